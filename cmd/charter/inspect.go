package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SeradedStripes/rhythm-pi/export"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <chart.json>",
	Short: "Prints a summary of an exported JSON chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func inspect(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c, err := export.ParseJSON(b)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	holds := 0
	lastTime := 0.0
	laneCounts := make([]int, c.Columns)
	for _, n := range c.Notes {
		if n.Duration > 0 {
			holds++
		}
		if n.Time > lastTime {
			lastTime = n.Time
		}
		if n.Col >= 0 && n.Col < len(laneCounts) {
			laneCounts[n.Col]++
		}
	}

	fmt.Printf("Song:       %s\n", c.SongID)
	fmt.Printf("Instrument: %s\n", c.Instrument)
	fmt.Printf("Difficulty: %s\n", c.Difficulty)
	fmt.Printf("BPM:        %.2f\n", c.BPM)
	fmt.Printf("Columns:    %d\n", c.Columns)
	fmt.Printf("Notes:      %d (%d holds), last at %.3fs\n", len(c.Notes), holds, lastTime)
	for lane, count := range laneCounts {
		fmt.Printf("  lane %d: %d\n", lane, count)
	}
	return nil
}
