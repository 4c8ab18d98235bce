package charter

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/SeradedStripes/rhythm-pi/audio"
	"github.com/SeradedStripes/rhythm-pi/beat"
	"github.com/SeradedStripes/rhythm-pi/chart"
	"github.com/SeradedStripes/rhythm-pi/export"
	"github.com/SeradedStripes/rhythm-pi/internal/synth"
)

func clickClip(t *testing.T, bpm, durationS float64) *audio.Clip {
	t.Helper()
	cfg := synth.DefaultClickConfig()
	cfg.BPM = bpm
	cfg.DurationS = durationS
	samples, err := synth.ClickTrack(cfg)
	if err != nil {
		t.Fatalf("ClickTrack: %v", err)
	}
	return &audio.Clip{Samples: samples, SampleRate: cfg.SampleRate}
}

func mustCharter(t *testing.T, cfg Config) *Charter {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative bpm override", func(c *Config) { c.BPMOverride = -1 }},
		{"zero grid division", func(c *Config) { c.GridDivision = 0 }},
		{"peak threshold too high", func(c *Config) { c.PeakThreshold = 1 }},
		{"peak threshold zero", func(c *Config) { c.PeakThreshold = 0 }},
		{"sustain threshold", func(c *Config) { c.SustainThreshold = 2 }},
		{"min hold duration", func(c *Config) { c.MinHoldDuration = 0 }},
		{"analysis rate", func(c *Config) { c.AnalysisRate = -1 }},
		{"spectral", func(c *Config) { c.Spectral.HopSize = 0 }},
	}
	for _, m := range mutations {
		cfg := DefaultConfig()
		m.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error", m.name)
			continue
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: error %v does not wrap ErrInvalidConfig", m.name, err)
		}
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridDivision = 0
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestGenerateAllClickTrack(t *testing.T) {
	clip := clickClip(t, 100, 10)
	c := mustCharter(t, DefaultConfig())

	results := c.GenerateAll(clip, "click-demo", "drums")
	if len(results) != len(chart.Difficulties) {
		t.Fatalf("got %d results, want %d", len(results), len(chart.Difficulties))
	}

	counts := make(map[chart.Difficulty]int)
	for i, r := range results {
		if r.Difficulty != chart.Difficulties[i] {
			t.Fatalf("result %d has difficulty %s, want %s", i, r.Difficulty, chart.Difficulties[i])
		}
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Difficulty, r.Err)
		}
		ch := r.Chart
		if ch.Columns != r.Difficulty.Columns() {
			t.Fatalf("%s: got %d columns, want %d", r.Difficulty, ch.Columns, r.Difficulty.Columns())
		}
		if len(ch.Notes) == 0 {
			t.Fatalf("%s: chart has no notes", r.Difficulty)
		}
		if ch.BPM < 95 || ch.BPM > 105 {
			t.Fatalf("%s: detected bpm %g, want near 100", r.Difficulty, ch.BPM)
		}
		if r.FallbackBPM {
			t.Fatalf("%s: detected tempo wrongly flagged as the default", r.Difficulty)
		}
		if err := ch.Validate(clip.Duration()); err != nil {
			t.Fatalf("%s: %v", r.Difficulty, err)
		}
		counts[r.Difficulty] = len(ch.Notes)
	}

	if counts[chart.Easy] > counts[chart.Hard] {
		t.Errorf("Easy (%d notes) denser than Hard (%d)", counts[chart.Easy], counts[chart.Hard])
	}
	if counts[chart.Normal] > counts[chart.Hard] {
		t.Errorf("Normal (%d notes) denser than Hard (%d)", counts[chart.Normal], counts[chart.Hard])
	}
	// A 0.6s beat spacing exceeds the midpoint-insertion gap, so Expert
	// fills in extra notes.
	if counts[chart.Expert] <= counts[chart.Hard] {
		t.Errorf("Expert (%d notes) not denser than Hard (%d)", counts[chart.Expert], counts[chart.Hard])
	}
}

// singleClickClip holds exactly one decaying tone burst mid-signal, so
// peak spacing cannot determine a tempo.
func singleClickClip(t *testing.T) *audio.Clip {
	t.Helper()
	rate := 44100
	samples := make([]float64, 2*rate)
	w := 2 * math.Pi * 440 / float64(rate)
	decay := 0.03 * float64(rate)
	start := rate
	for i := 0; i < int(5*decay) && start+i < len(samples); i++ {
		samples[start+i] = 0.8 * math.Exp(-float64(i)/decay) * math.Sin(w*float64(i))
	}
	return &audio.Clip{Samples: samples, SampleRate: rate}
}

func TestGenerateAllSinglePeakReportsFallback(t *testing.T) {
	c := mustCharter(t, DefaultConfig())

	results := c.GenerateAll(singleClickClip(t), "one-click", "drums")
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Difficulty, r.Err)
		}
		if !r.FallbackBPM {
			t.Fatalf("%s: default-tempo fallback not reported", r.Difficulty)
		}
		if r.Chart.BPM != beat.DefaultBPM {
			t.Fatalf("%s: got bpm %g, want the %g default", r.Difficulty, r.Chart.BPM, beat.DefaultBPM)
		}
		if len(r.Chart.Notes) == 0 {
			t.Fatalf("%s: the single click produced no notes", r.Difficulty)
		}
	}
}

func TestGenerateAllSinglePeakWithOverrideNotFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BPMOverride = 90
	c := mustCharter(t, cfg)

	results := c.GenerateAll(singleClickClip(t), "one-click", "drums")
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Difficulty, r.Err)
		}
		if r.FallbackBPM {
			t.Fatalf("%s: override must supersede the fallback report", r.Difficulty)
		}
		if r.Chart.BPM != 90 {
			t.Fatalf("%s: got bpm %g, want the 90 override", r.Difficulty, r.Chart.BPM)
		}
	}
}

func TestGenerateSingleDifficulty(t *testing.T) {
	clip := clickClip(t, 120, 6)
	c := mustCharter(t, DefaultConfig())

	ch, err := c.Generate(clip, "click-demo", "drums", chart.Expert)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ch.Difficulty != chart.Expert || ch.Columns != 5 {
		t.Fatalf("got %s with %d columns", ch.Difficulty, ch.Columns)
	}
	for i, n := range ch.Notes {
		if n.Col < 0 || n.Col >= 5 {
			t.Fatalf("note %d lane %d out of range", i, n.Col)
		}
	}
}

func TestGenerateAllSilence(t *testing.T) {
	clip := &audio.Clip{Samples: make([]float64, 44100), SampleRate: 44100}
	c := mustCharter(t, DefaultConfig())

	results := c.GenerateAll(clip, "silent", "drums")
	for _, r := range results {
		if !errors.Is(r.Err, beat.ErrNoBeats) {
			t.Fatalf("%s: expected ErrNoBeats, got %v", r.Difficulty, r.Err)
		}
	}
}

func TestGenerateAllSilenceWithOverride(t *testing.T) {
	clip := &audio.Clip{Samples: make([]float64, 44100), SampleRate: 44100}
	cfg := DefaultConfig()
	cfg.BPMOverride = 120
	c := mustCharter(t, cfg)

	results := c.GenerateAll(clip, "silent", "drums")
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Difficulty, r.Err)
		}
		if r.Chart.BPM != 120 {
			t.Fatalf("%s: got bpm %g, want the 120 override", r.Difficulty, r.Chart.BPM)
		}
		if len(r.Chart.Notes) != 0 {
			t.Fatalf("%s: silent input produced %d notes", r.Difficulty, len(r.Chart.Notes))
		}
	}
}

func TestGenerateBPMOverrideWins(t *testing.T) {
	clip := clickClip(t, 100, 6)
	cfg := DefaultConfig()
	cfg.BPMOverride = 90
	c := mustCharter(t, cfg)

	ch, err := c.Generate(clip, "click-demo", "drums", chart.Normal)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ch.BPM != 90 {
		t.Fatalf("got bpm %g, want the 90 override", ch.BPM)
	}
}

func TestGenerateFrequencyStrategy(t *testing.T) {
	clip := clickClip(t, 120, 6)
	cfg := DefaultConfig()
	cfg.LaneStrategy = chart.LaneStrategy{Kind: chart.Frequency}
	c := mustCharter(t, cfg)

	ch, err := c.Generate(clip, "click-demo", "drums", chart.Hard)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i, n := range ch.Notes {
		if n.Col < 0 || n.Col >= ch.Columns {
			t.Fatalf("note %d lane %d out of range", i, n.Col)
		}
	}
}

func TestGenerateWithResample(t *testing.T) {
	clip := clickClip(t, 120, 4)
	cfg := DefaultConfig()
	cfg.AnalysisRate = 22050
	c := mustCharter(t, cfg)

	ch, err := c.Generate(clip, "click-demo", "drums", chart.Normal)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ch.Notes) == 0 {
		t.Fatalf("resampled analysis produced no notes")
	}
	if ch.BPM < 115 || ch.BPM > 125 {
		t.Fatalf("got bpm %g, want near 120", ch.BPM)
	}
}

func TestGenerateRefinedBPMStable(t *testing.T) {
	clip := clickClip(t, 120, 8)
	cfg := DefaultConfig()
	cfg.RefineBPM = true
	cfg.RefineSeed = 7
	c := mustCharter(t, cfg)

	a, err := c.Generate(clip, "click-demo", "drums", chart.Hard)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	b, err := c.Generate(clip, "click-demo", "drums", chart.Hard)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if a.BPM != b.BPM {
		t.Fatalf("refined bpm not deterministic: %g vs %g", a.BPM, b.BPM)
	}
	if a.BPM < 108 || a.BPM > 132 {
		t.Fatalf("refined bpm %g strayed from 120", a.BPM)
	}
}

func TestWriteAll(t *testing.T) {
	clip := clickClip(t, 120, 6)
	c := mustCharter(t, DefaultConfig())
	dir := t.TempDir()

	results := c.GenerateAll(clip, "click-demo", "drums")
	writes := WriteAll(dir, results, export.FormatJSON)
	if len(writes) != len(results) {
		t.Fatalf("got %d write results, want %d", len(writes), len(results))
	}
	for _, w := range writes {
		if w.Err != nil {
			t.Fatalf("%s: %v", w.Difficulty, w.Err)
		}
		b, err := os.ReadFile(w.Path)
		if err != nil {
			t.Fatalf("%s: %v", w.Difficulty, err)
		}
		ch, err := export.ParseJSON(b)
		if err != nil {
			t.Fatalf("%s: %v", w.Difficulty, err)
		}
		if ch.Difficulty != w.Difficulty {
			t.Fatalf("file for %s holds a %s chart", w.Difficulty, ch.Difficulty)
		}
	}
}

func TestWriteAllCarriesGenerationErrors(t *testing.T) {
	clip := &audio.Clip{Samples: make([]float64, 44100), SampleRate: 44100}
	c := mustCharter(t, DefaultConfig())

	results := c.GenerateAll(clip, "silent", "drums")
	writes := WriteAll(t.TempDir(), results, export.FormatJSON)
	for _, w := range writes {
		if !errors.Is(w.Err, beat.ErrNoBeats) {
			t.Fatalf("%s: expected ErrNoBeats, got %v", w.Difficulty, w.Err)
		}
		if w.Path != "" {
			t.Fatalf("%s: failed result wrote %s", w.Difficulty, w.Path)
		}
	}
}
