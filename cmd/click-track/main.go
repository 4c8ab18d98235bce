package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/SeradedStripes/rhythm-pi/audio"
	"github.com/SeradedStripes/rhythm-pi/internal/synth"
)

func main() {
	output := flag.String("output", "click.wav", "Output WAV path")
	bpm := flag.Float64("bpm", 120.0, "Click tempo")
	duration := flag.Float64("duration", 10.0, "Track length in seconds")
	sampleRate := flag.Int("sample-rate", 44100, "Sample rate")
	clickFreq := flag.Float64("click-freq", 1000.0, "Click tone frequency in Hz")
	noise := flag.Float64("noise", 0.0, "Noise floor level (0 disables)")
	seed := flag.Int64("seed", 1, "Random seed for the noise floor")
	flag.Parse()

	cfg := synth.DefaultClickConfig()
	cfg.BPM = *bpm
	cfg.DurationS = *duration
	cfg.SampleRate = *sampleRate
	cfg.ClickFreq = *clickFreq
	cfg.NoiseLevel = *noise
	cfg.Seed = *seed

	samples, err := synth.ClickTrack(cfg)
	if err != nil {
		die("click track: %v", err)
	}
	if err := audio.WriteWAV(*output, samples, cfg.SampleRate); err != nil {
		die("write %s: %v", *output, err)
	}
	fmt.Printf("Wrote %s: %.1fs of %.0f BPM clicks @ %d Hz\n", *output, cfg.DurationS, cfg.BPM, cfg.SampleRate)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
