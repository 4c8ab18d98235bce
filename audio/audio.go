// Package audio loads recordings into mono, normalized sample streams.
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
)

// Errors reported while loading a recording.
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDecode            = errors.New("audio decode failed")
	ErrEmptySignal       = errors.New("audio signal is empty")
)

// Clip is a single-channel recording with samples normalized to [-1, 1].
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

func (c *Clip) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0, got %d", c.SampleRate)
	}
	if len(c.Samples) == 0 {
		return ErrEmptySignal
	}
	return nil
}

// Load reads an audio file and returns it as a mono normalized clip.
// Multi-channel sources are downmixed by averaging channels sample-wise.
func Load(path string) (*Clip, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return loadWAV(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func loadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav file %s", ErrDecode, path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: missing format in %s", ErrDecode, path)
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	if frames == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySignal, path)
	}

	bits := int(dec.BitDepth)
	if bits <= 1 {
		bits = 16
	}
	scale := 1.0 / float64(int64(1)<<(bits-1))

	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		v := sum / float64(ch) * scale
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = v
	}
	return &Clip{Samples: out, SampleRate: buf.Format.SampleRate}, nil
}

// Resample converts a clip to the given sample rate. The input clip is
// returned unchanged when the rates already match.
func Resample(c *Clip, rate int) (*Clip, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("target sample rate must be > 0, got %d", rate)
	}
	if c.SampleRate == rate {
		return c, nil
	}
	r, err := dspresample.NewForRates(
		float64(c.SampleRate),
		float64(rate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return &Clip{Samples: r.Process(c.Samples), SampleRate: rate}, nil
}

// Peak returns the maximum absolute sample value.
func (c *Clip) Peak() float64 {
	m := 0.0
	for _, v := range c.Samples {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
