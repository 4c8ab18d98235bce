// Package charter drives the full audio-to-chart pipeline across the four
// difficulty presets.
package charter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SeradedStripes/rhythm-pi/audio"
	"github.com/SeradedStripes/rhythm-pi/beat"
	"github.com/SeradedStripes/rhythm-pi/chart"
	"github.com/SeradedStripes/rhythm-pi/spectral"
)

// ErrInvalidConfig wraps configuration errors surfaced before any
// analysis runs.
var ErrInvalidConfig = errors.New("invalid charter config")

// Config holds the tunable pipeline parameters. It is passed by value
// into each stage; no stage mutates it.
type Config struct {
	BPMOverride      float64 // 0 = auto-detect
	GridDivision     int     // base subdivision per beat (4, 8, 16, ...)
	PeakThreshold    float64 // beat sensitivity, fraction of envelope max
	SustainThreshold float64
	MinHoldDuration  float64
	LaneStrategy     chart.LaneStrategy
	RefineBPM        bool  // fit the grid to the peaks with the optimizer
	RefineSeed       int64 // seed for the refinement search
	AnalysisRate     int   // resample target before analysis; 0 keeps source rate
	Spectral         spectral.Config
}

func DefaultConfig() Config {
	return Config{
		GridDivision:     4,
		PeakThreshold:    0.5,
		SustainThreshold: 0.5,
		MinHoldDuration:  0.25,
		LaneStrategy:     chart.LaneStrategy{Kind: chart.Sequential},
		RefineSeed:       1,
		Spectral:         spectral.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if c.BPMOverride < 0 {
		return fmt.Errorf("%w: bpm override must be >= 0, got %g", ErrInvalidConfig, c.BPMOverride)
	}
	if c.GridDivision < 1 {
		return fmt.Errorf("%w: grid division must be >= 1, got %d", ErrInvalidConfig, c.GridDivision)
	}
	if c.PeakThreshold <= 0 || c.PeakThreshold >= 1 {
		return fmt.Errorf("%w: peak threshold must be in (0, 1), got %g", ErrInvalidConfig, c.PeakThreshold)
	}
	if c.SustainThreshold < 0 || c.SustainThreshold > 1 {
		return fmt.Errorf("%w: sustain threshold must be in [0, 1], got %g", ErrInvalidConfig, c.SustainThreshold)
	}
	if c.MinHoldDuration <= 0 {
		return fmt.Errorf("%w: min hold duration must be > 0, got %g", ErrInvalidConfig, c.MinHoldDuration)
	}
	if c.AnalysisRate < 0 {
		return fmt.Errorf("%w: analysis rate must be >= 0, got %d", ErrInvalidConfig, c.AnalysisRate)
	}
	if err := c.Spectral.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Charter runs the pipeline. Stateless between invocations.
type Charter struct {
	cfg Config
}

func New(cfg Config) (*Charter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Charter{cfg: cfg}, nil
}

// Result is the outcome of one difficulty run.
type Result struct {
	Difficulty chart.Difficulty
	Chart      *chart.Chart
	Err        error

	// FallbackBPM reports that the chart tempo is the 120 BPM default
	// because peak spacing could not determine one, rather than a value
	// detected from the recording.
	FallbackBPM bool
}

// analysis holds the shared read-only inputs each difficulty run consumes.
type analysis struct {
	clip      *audio.Clip
	detection *beat.Detection
	bpm       float64
	fallback  bool
	spectra   [][]float64
	laneEnv   [][]float64
	frameDur  float64
	binHz     float64
}

// GenerateAll produces one chart per difficulty for an instrument. The
// shared analysis happens once; the four difficulty runs are independent
// and execute in parallel over read-only inputs. A failing difficulty
// does not abort its siblings.
func (c *Charter) GenerateAll(clip *audio.Clip, songID, instrument string) []Result {
	results := make([]Result, len(chart.Difficulties))
	for i, d := range chart.Difficulties {
		results[i].Difficulty = d
	}

	shared, err := c.analyze(clip, instrument)
	if err != nil {
		for i := range results {
			results[i].Err = err
		}
		return results
	}

	for i := range results {
		results[i].FallbackBPM = shared.fallback
	}

	var wg sync.WaitGroup
	for i, d := range chart.Difficulties {
		wg.Add(1)
		go func(i int, d chart.Difficulty) {
			defer wg.Done()
			ch, err := c.buildChart(shared, songID, instrument, d)
			results[i].Chart = ch
			results[i].Err = err
		}(i, d)
	}
	wg.Wait()
	return results
}

// Generate runs the pipeline for a single difficulty.
func (c *Charter) Generate(clip *audio.Clip, songID, instrument string, d chart.Difficulty) (*chart.Chart, error) {
	shared, err := c.analyze(clip, instrument)
	if err != nil {
		return nil, err
	}
	return c.buildChart(shared, songID, instrument, d)
}

// analyze performs the stages shared by every difficulty: resampling,
// STFT, band-restricted beat detection, and tempo resolution.
func (c *Charter) analyze(clip *audio.Clip, instrument string) (*analysis, error) {
	if err := clip.Validate(); err != nil {
		return nil, err
	}
	if c.cfg.AnalysisRate > 0 {
		resampled, err := audio.Resample(clip, c.cfg.AnalysisRate)
		if err != nil {
			return nil, fmt.Errorf("resample: %w", err)
		}
		clip = resampled
	}

	analyzer, err := spectral.NewAnalyzer(c.cfg.Spectral, clip.SampleRate)
	if err != nil {
		return nil, err
	}
	spectra, err := analyzer.Spectra(clip.Samples)
	if err != nil {
		return nil, err
	}

	// Beats are detected in the instrument's own frequency band so, say,
	// a bass chart follows the bassline rather than the hi-hats.
	band := spectral.BandForInstrument(instrument)
	env := analyzer.BandEnvelope(spectra, band.LowHz, band.HighHz)

	detection, err := beat.Detect(env, c.cfg.PeakThreshold)
	if err != nil {
		if errors.Is(err, beat.ErrNoBeats) && c.cfg.BPMOverride > 0 {
			// An explicit tempo lets the run proceed; the charts will
			// simply carry no notes.
			detection = &beat.Detection{BPM: c.cfg.BPMOverride}
		} else {
			return nil, err
		}
	}

	bpm := detection.BPM
	// The default-tempo fallback only matters when it is what the charts
	// end up carrying; an explicit override supersedes it.
	fallback := detection.FallbackBPM && c.cfg.BPMOverride <= 0
	if c.cfg.BPMOverride > 0 {
		bpm = c.cfg.BPMOverride
	} else if c.cfg.RefineBPM {
		rcfg := beat.DefaultRefineConfig()
		rcfg.GridDivision = c.cfg.GridDivision
		rcfg.Seed = c.cfg.RefineSeed
		refined, err := beat.RefineBPM(detection.Peaks, bpm, rcfg)
		if err != nil {
			return nil, fmt.Errorf("refine bpm: %w", err)
		}
		bpm = refined
	}

	// Band energy per lane, shared by hold detection across difficulties.
	bands := chart.LaneBands(5)
	laneEnv := make([][]float64, len(bands))
	for i, b := range bands {
		lane := analyzer.BandEnvelope(spectra, b[0], b[1])
		vals := make([]float64, len(lane))
		for j, p := range lane {
			vals[j] = p.Energy
		}
		laneEnv[i] = vals
	}

	return &analysis{
		clip:      clip,
		detection: detection,
		bpm:       bpm,
		fallback:  fallback,
		spectra:   spectra,
		laneEnv:   laneEnv,
		frameDur:  analyzer.FrameDuration(),
		binHz:     analyzer.BinHz(),
	}, nil
}

// buildChart runs quantization, lane assignment and hold detection for
// one difficulty over the shared analysis.
func (c *Charter) buildChart(a *analysis, songID, instrument string, d chart.Difficulty) (*chart.Chart, error) {
	preset := presetFor(d, c.cfg.GridDivision)
	times := preset.selectPeaks(a.detection.Times())

	quantizer, err := chart.NewQuantizer(a.bpm, preset.gridDivision)
	if err != nil {
		return nil, err
	}
	times = quantizer.Apply(times)
	times = dropPastEnd(times, a.clip.Duration())

	notes, err := chart.AssignLanes(times, preset.lanes, c.cfg.LaneStrategy, a.spectra, a.frameDur, a.binHz)
	if err != nil {
		return nil, err
	}

	holds, err := chart.NewHoldDetector(c.cfg.SustainThreshold, c.cfg.MinHoldDuration)
	if err != nil {
		return nil, err
	}
	notes = holds.DetectHolds(notes, a.laneEnv[:preset.lanes], a.frameDur)

	chart.SortNotes(notes)
	out := &chart.Chart{
		SongID:      songID,
		Instrument:  instrument,
		Difficulty:  d,
		Columns:     preset.lanes,
		BPM:         a.bpm,
		GeneratedAt: time.Now().Unix(),
		Notes:       notes,
	}
	if err := out.Validate(a.clip.Duration()); err != nil {
		return nil, fmt.Errorf("%s chart invalid: %w", d, err)
	}
	return out, nil
}
