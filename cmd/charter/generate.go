package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SeradedStripes/rhythm-pi/audio"
	"github.com/SeradedStripes/rhythm-pi/beat"
	"github.com/SeradedStripes/rhythm-pi/chart"
	"github.com/SeradedStripes/rhythm-pi/charter"
	"github.com/SeradedStripes/rhythm-pi/export"
)

var generateFlags struct {
	audioPath       string
	songID          string
	instrument      string
	outputDir       string
	bpm             float64
	gridDivision    int
	format          string
	sustainThresh   float64
	minHoldDuration float64
	laneStrategy    string
	laneSeed        int64
	refineBPM       bool
	sampleRate      int
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateFlags.audioPath, "audio", "a", "", "Path to the audio file (WAV)")
	f.StringVarP(&generateFlags.songID, "song-id", "s", "", "Song identifier for the chart")
	f.StringVarP(&generateFlags.instrument, "instrument", "i", "", "Instrument (vocals, bass, drums, lead)")
	f.StringVarP(&generateFlags.outputDir, "output", "o", ".", "Output directory")
	f.Float64Var(&generateFlags.bpm, "bpm", 0, "BPM override (0 = auto-detect)")
	f.IntVar(&generateFlags.gridDivision, "grid-division", 4, "Grid division (4, 8, 16, ...)")
	f.StringVar(&generateFlags.format, "format", "json", "Chart format (json or chart)")
	f.Float64Var(&generateFlags.sustainThresh, "sustain-threshold", 0.5, "Hold detection threshold (0.0-1.0)")
	f.Float64Var(&generateFlags.minHoldDuration, "min-hold-duration", 0.25, "Minimum hold duration in seconds")
	f.StringVar(&generateFlags.laneStrategy, "lane-strategy", "sequential", "Lane strategy (sequential, frequency, random)")
	f.Int64Var(&generateFlags.laneSeed, "lane-seed", 1, "Seed for the random lane strategy")
	f.BoolVar(&generateFlags.refineBPM, "refine-bpm", false, "Refine the detected BPM by fitting the grid to the peaks")
	f.IntVar(&generateFlags.sampleRate, "sample-rate", 0, "Resample to this rate before analysis (0 keeps source rate)")

	generateCmd.MarkFlagRequired("audio")
	generateCmd.MarkFlagRequired("song-id")
	generateCmd.MarkFlagRequired("instrument")

	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generates charts for all four difficulties",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate()
	},
}

var knownInstruments = map[string]bool{
	"vocals": true,
	"bass":   true,
	"drums":  true,
	"lead":   true,
}

// buildGenerateConfig resolves the generate flags into a validated
// pipeline config and output format.
func buildGenerateConfig() (charter.Config, export.Format, error) {
	if !knownInstruments[generateFlags.instrument] {
		return charter.Config{}, 0, fmt.Errorf("unknown instrument %q (want vocals, bass, drums or lead)", generateFlags.instrument)
	}
	format, err := export.ParseFormat(generateFlags.format)
	if err != nil {
		return charter.Config{}, 0, err
	}
	strategy, err := chart.ParseLaneStrategy(generateFlags.laneStrategy)
	if err != nil {
		return charter.Config{}, 0, err
	}
	strategy.Seed = generateFlags.laneSeed

	cfg := charter.DefaultConfig()
	cfg.BPMOverride = generateFlags.bpm
	cfg.GridDivision = generateFlags.gridDivision
	cfg.SustainThreshold = generateFlags.sustainThresh
	cfg.MinHoldDuration = generateFlags.minHoldDuration
	cfg.LaneStrategy = strategy
	cfg.RefineBPM = generateFlags.refineBPM
	cfg.AnalysisRate = generateFlags.sampleRate
	if err := cfg.Validate(); err != nil {
		return charter.Config{}, 0, err
	}
	return cfg, format, nil
}

func runGenerate() error {
	cfg, format, err := buildGenerateConfig()
	if err != nil {
		return err
	}
	ch, err := charter.New(cfg)
	if err != nil {
		return err
	}

	clip, err := audio.Load(generateFlags.audioPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", generateFlags.audioPath, err)
	}
	fmt.Printf("Loaded %s: %.2fs @ %d Hz\n", generateFlags.audioPath, clip.Duration(), clip.SampleRate)

	results := ch.GenerateAll(clip, generateFlags.songID, generateFlags.instrument)
	if len(results) > 0 && results[0].FallbackBPM {
		fmt.Fprintf(os.Stderr, "warning: peak spacing could not determine a tempo; charts use the %.0f BPM default\n", beat.DefaultBPM)
	}

	failed := 0
	for _, w := range charter.WriteAll(generateFlags.outputDir, results, format) {
		if w.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", w.Difficulty, w.Err)
			continue
		}
		fmt.Printf("Saved %s chart to %s\n", w.Difficulty, w.Path)
	}

	printSummary(results)
	if failed > 0 {
		return fmt.Errorf("%d of %d difficulty charts failed", failed, len(results))
	}
	return nil
}

func printSummary(results []charter.Result) {
	fmt.Println("\n=== Chart Summary ===")
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-8s | failed: %v\n", r.Difficulty, r.Err)
			continue
		}
		holds := 0
		for _, n := range r.Chart.Notes {
			if n.Duration > 0 {
				holds++
			}
		}
		tempo := fmt.Sprintf("%.1f BPM", r.Chart.BPM)
		if r.FallbackBPM {
			tempo += " (default)"
		}
		fmt.Printf("%-8s | %4d notes (%d holds) | %d columns | %s\n",
			r.Difficulty, len(r.Chart.Notes), holds, r.Chart.Columns, tempo)
	}
}
