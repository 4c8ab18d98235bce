package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "charter",
	Short: "Generates rhythm-game charts from audio recordings",
	Long: `charter analyzes a recording, detects beats, and writes one chart
file per difficulty (Easy, Normal, Hard, Expert) for a given instrument.`,
	SilenceUsage: true,
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
