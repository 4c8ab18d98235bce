// Package spectral computes short-time frequency-domain energy measures
// used for onset and sustain analysis.
package spectral

import (
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

// Config controls STFT framing and envelope smoothing.
type Config struct {
	WindowSize  int // frame length in samples
	HopSize     int // frame advance in samples, must be < WindowSize
	SmoothWidth int // moving-average width in frames, odd
}

func DefaultConfig() Config {
	return Config{
		WindowSize:  2048,
		HopSize:     512,
		SmoothWidth: 3,
	}
}

func (c Config) Validate() error {
	if c.WindowSize < 16 {
		return fmt.Errorf("window size too small: %d", c.WindowSize)
	}
	if c.HopSize <= 0 {
		return fmt.Errorf("hop size must be > 0, got %d", c.HopSize)
	}
	if c.HopSize >= c.WindowSize {
		return fmt.Errorf("hop size %d must be < window size %d", c.HopSize, c.WindowSize)
	}
	if c.SmoothWidth < 1 || c.SmoothWidth%2 == 0 {
		return fmt.Errorf("smooth width must be a positive odd number, got %d", c.SmoothWidth)
	}
	return nil
}

// Point is one (time, energy) sample of an envelope.
type Point struct {
	Time   float64
	Energy float64
}

// Envelope is an energy curve over frame times, monotonic in time.
type Envelope []Point

// MaxEnergy returns the largest energy value in the envelope.
func (e Envelope) MaxEnergy() float64 {
	m := 0.0
	for _, p := range e {
		if p.Energy > m {
			m = p.Energy
		}
	}
	return m
}

// Analyzer windows a sample stream into overlapping Hann frames and
// derives energy envelopes from the frame spectra.
type Analyzer struct {
	cfg        Config
	sampleRate int
	hann       []float64
}

func NewAnalyzer(cfg Config, sampleRate int) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0, got %d", sampleRate)
	}
	hann := make([]float64, cfg.WindowSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(cfg.WindowSize-1))
	}
	return &Analyzer{cfg: cfg, sampleRate: sampleRate, hann: hann}, nil
}

// FrameDuration returns the time step between consecutive frames in seconds.
func (a *Analyzer) FrameDuration() float64 {
	return float64(a.cfg.HopSize) / float64(a.sampleRate)
}

// BinHz returns the frequency resolution of one spectrum bin.
func (a *Analyzer) BinHz() float64 {
	return float64(a.sampleRate) / float64(a.cfg.WindowSize)
}

// NumBins returns the number of usable spectrum bins per frame.
func (a *Analyzer) NumBins() int {
	return a.cfg.WindowSize / 2
}

func (a *Analyzer) numFrames(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + a.cfg.HopSize - 1) / a.cfg.HopSize
}

// Spectra computes the per-frame power spectrum (squared magnitudes) for
// every frame covering the signal. Frames extending past the end are
// zero-padded. Frames are computed in parallel; the result order is by
// frame index regardless of scheduling.
func (a *Analyzer) Spectra(samples []float64) ([][]float64, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to analyze")
	}
	frames := a.numFrames(len(samples))
	out := make([][]float64, frames)

	workers := runtime.GOMAXPROCS(0)
	if workers > frames {
		workers = frames
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			plan, err := algofft.NewPlanReal64(a.cfg.WindowSize)
			if err != nil {
				errs[worker] = err
				for range jobs {
				}
				return
			}
			buf := make([]float64, a.cfg.WindowSize)
			spec := make([]complex128, a.cfg.WindowSize/2+1)
			for i := range jobs {
				start := i * a.cfg.HopSize
				for j := 0; j < a.cfg.WindowSize; j++ {
					if start+j < len(samples) {
						buf[j] = samples[start+j] * a.hann[j]
					} else {
						buf[j] = 0
					}
				}
				plan.Forward(spec, buf)
				power := make([]float64, a.NumBins())
				for k := 0; k < len(power); k++ {
					m := cmplx.Abs(spec[k])
					power[k] = m * m
				}
				out[i] = power
			}
		}(w)
	}
	for i := 0; i < frames; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fft plan: %w", err)
		}
	}
	return out, nil
}

// TotalEnvelope sums each frame's full spectrum into a smoothed energy curve.
func (a *Analyzer) TotalEnvelope(spectra [][]float64) Envelope {
	return a.envelope(spectra, 0, a.NumBins()-1)
}

// BandEnvelope restricts the energy sum to the bins covering [loHz, hiHz].
func (a *Analyzer) BandEnvelope(spectra [][]float64, loHz, hiHz float64) Envelope {
	binHz := a.BinHz()
	lo := int(loHz / binHz)
	hi := int(hiHz / binHz)
	if lo < 0 {
		lo = 0
	}
	if hi > a.NumBins()-1 {
		hi = a.NumBins() - 1
	}
	return a.envelope(spectra, lo, hi)
}

func (a *Analyzer) envelope(spectra [][]float64, loBin, hiBin int) Envelope {
	raw := make([]float64, len(spectra))
	for i, frame := range spectra {
		var sum float64
		for k := loBin; k <= hiBin && k < len(frame); k++ {
			sum += frame[k]
		}
		raw[i] = sum
	}
	smoothed := Smooth(raw, a.cfg.SmoothWidth)

	frameDur := a.FrameDuration()
	env := make(Envelope, len(smoothed))
	for i, e := range smoothed {
		env[i] = Point{Time: float64(i) * frameDur, Energy: e}
	}
	return env
}

// Analyze is a convenience wrapper computing the smoothed total-energy
// envelope in one pass. Deterministic: identical input yields identical
// output.
func (a *Analyzer) Analyze(samples []float64) (Envelope, error) {
	spectra, err := a.Spectra(samples)
	if err != nil {
		return nil, err
	}
	return a.TotalEnvelope(spectra), nil
}

// Smooth applies a centered moving average of the given width. Width 1
// returns a copy of the input.
func Smooth(data []float64, width int) []float64 {
	if len(data) == 0 {
		return nil
	}
	half := width / 2
	out := make([]float64, len(data))
	for i := range data {
		start := i - half
		if start < 0 {
			start = 0
		}
		end := i + half + 1
		if end > len(data) {
			end = len(data)
		}
		var sum float64
		for j := start; j < end; j++ {
			sum += data[j]
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
