// Package beat finds onset peaks in an energy envelope and estimates tempo.
package beat

import (
	"errors"
	"sort"

	"github.com/SeradedStripes/rhythm-pi/spectral"
)

// ErrNoBeats is returned when the envelope contains no usable peaks.
var ErrNoBeats = errors.New("no beats detected")

const (
	// DefaultBPM is used when at least one peak exists but gap spacing
	// alone cannot determine a tempo.
	DefaultBPM = 120.0

	minBPM = 60.0
	maxBPM = 240.0

	// minPeakGap merges peaks closer than this many seconds, keeping the
	// one with higher energy.
	minPeakGap = 0.05

	// maxGapPeaks bounds how many leading peaks contribute spacing gaps
	// to the tempo estimate.
	maxGapPeaks = 20
)

// Peak is one detected onset candidate.
type Peak struct {
	Time   float64
	Energy float64
}

// Detection holds the detected peaks and the tempo estimated from them.
type Detection struct {
	Peaks []Peak
	BPM   float64

	// FallbackBPM reports that DefaultBPM was used because fewer than two
	// usable inter-peak gaps existed.
	FallbackBPM bool
}

// Times returns the peak timestamps in order.
func (d *Detection) Times() []float64 {
	out := make([]float64, len(d.Peaks))
	for i, p := range d.Peaks {
		out[i] = p.Time
	}
	return out
}

// Detect finds local energy maxima above threshold*max(envelope) and
// estimates a BPM from their spacing. The envelope is expected to be
// smoothed already.
func Detect(env spectral.Envelope, threshold float64) (*Detection, error) {
	peaks := findPeaks(env, threshold)
	if len(peaks) == 0 {
		return nil, ErrNoBeats
	}

	bpm, fallback := estimateBPM(peaks)
	return &Detection{Peaks: peaks, BPM: bpm, FallbackBPM: fallback}, nil
}

func findPeaks(env spectral.Envelope, threshold float64) []Peak {
	if len(env) < 3 {
		return nil
	}
	floor := threshold * env.MaxEnergy()

	var peaks []Peak
	for i := 1; i < len(env)-1; i++ {
		e := env[i].Energy
		if e > floor && e > env[i-1].Energy && e > env[i+1].Energy {
			peaks = append(peaks, Peak{Time: env[i].Time, Energy: e})
		}
	}
	return mergeClose(peaks)
}

// mergeClose collapses peaks closer than minPeakGap, keeping the higher one.
func mergeClose(peaks []Peak) []Peak {
	if len(peaks) < 2 {
		return peaks
	}
	merged := peaks[:1]
	for _, p := range peaks[1:] {
		last := &merged[len(merged)-1]
		if p.Time-last.Time < minPeakGap {
			if p.Energy > last.Energy {
				*last = p
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// estimateBPM derives a tempo from the median inter-peak gap. Non-positive
// gaps are skipped; fewer than one usable gap falls back to DefaultBPM.
func estimateBPM(peaks []Peak) (float64, bool) {
	limit := len(peaks)
	if limit > maxGapPeaks {
		limit = maxGapPeaks
	}
	var gaps []float64
	for i := 1; i < limit; i++ {
		g := peaks[i].Time - peaks[i-1].Time
		if g > 0 {
			gaps = append(gaps, g)
		}
	}
	if len(gaps) == 0 {
		return DefaultBPM, true
	}

	sort.Float64s(gaps)
	var median float64
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		median = gaps[mid]
	} else {
		median = 0.5 * (gaps[mid-1] + gaps[mid])
	}

	bpm := 60.0 / median
	if bpm < minBPM {
		bpm = minBPM
	} else if bpm > maxBPM {
		bpm = maxBPM
	}
	return bpm, false
}
