// Package synth generates deterministic test signals.
package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-approx"
)

// ClickConfig controls synthetic click-track generation.
type ClickConfig struct {
	SampleRate  int
	DurationS   float64
	BPM         float64
	ClickFreq   float64 // tone frequency of each click, Hz
	ClickDecayS float64 // exponential decay time constant per click
	Amplitude   float64
	NoiseLevel  float64 // 0 disables the noise floor
	Seed        int64
}

func DefaultClickConfig() ClickConfig {
	return ClickConfig{
		SampleRate:  44100,
		DurationS:   10.0,
		BPM:         120.0,
		ClickFreq:   1000.0,
		ClickDecayS: 0.03,
		Amplitude:   0.8,
		NoiseLevel:  0.0,
		Seed:        1,
	}
}

func (c ClickConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.BPM <= 0 {
		return fmt.Errorf("bpm must be > 0")
	}
	if c.ClickFreq <= 0 || c.ClickFreq >= 0.5*float64(c.SampleRate) {
		return fmt.Errorf("click frequency %g outside (0, nyquist)", c.ClickFreq)
	}
	if c.ClickDecayS <= 0 {
		return fmt.Errorf("click decay must be > 0")
	}
	if c.Amplitude <= 0 || c.Amplitude > 1 {
		return fmt.Errorf("amplitude must be in (0, 1], got %g", c.Amplitude)
	}
	if c.NoiseLevel < 0 {
		return fmt.Errorf("noise level must be >= 0")
	}
	return nil
}

// ClickTrack synthesizes evenly spaced decaying tone bursts, one per beat,
// starting at t = 0. Deterministic for a fixed seed.
func ClickTrack(cfg ClickConfig) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := int(math.Round(cfg.DurationS * float64(cfg.SampleRate)))
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)

	if cfg.NoiseLevel > 0 {
		rng := rand.New(rand.NewSource(cfg.Seed))
		for i := range out {
			out[i] = cfg.NoiseLevel * (2*rng.Float64() - 1)
		}
	}

	beatDur := 60.0 / cfg.BPM
	burstLen := int(5 * cfg.ClickDecayS * float64(cfg.SampleRate))
	w := 2 * math.Pi * cfg.ClickFreq / float64(cfg.SampleRate)
	invDecay := 1.0 / (cfg.ClickDecayS * float64(cfg.SampleRate))

	for beat := 0; ; beat++ {
		start := int(math.Round(float64(beat) * beatDur * float64(cfg.SampleRate)))
		if start >= n {
			break
		}
		for i := 0; i < burstLen && start+i < n; i++ {
			env := float64(approx.FastExp(float32(-float64(i) * invDecay)))
			out[start+i] += cfg.Amplitude * env * math.Sin(w*float64(i))
		}
	}

	// Keep the result inside [-1, 1] in case noise rides a burst peak.
	for i, v := range out {
		if v > 1 {
			out[i] = 1
		} else if v < -1 {
			out[i] = -1
		}
	}
	return out, nil
}
