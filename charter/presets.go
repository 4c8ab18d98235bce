package charter

import (
	"math"
	"sort"

	"github.com/SeradedStripes/rhythm-pi/chart"
)

// enhanceGap is the peak spacing above which Expert inserts a midpoint.
const enhanceGap = 0.5

// enhanceDedup collapses enhanced peaks closer than this many seconds.
const enhanceDedup = 0.05

// preset captures how one difficulty diverges from the base config:
// grid coarseness, note density, and lane count.
type preset struct {
	gridDivision int
	keepRatio    float64 // fraction of detected peaks kept; 1 keeps all
	enhance      bool    // insert midpoints into large gaps
	lanes        int
}

func presetFor(d chart.Difficulty, baseDivision int) preset {
	switch d {
	case chart.Easy:
		div := baseDivision / 2
		if div < 1 {
			div = 1
		}
		return preset{gridDivision: div, keepRatio: 0.6, lanes: d.Columns()}
	case chart.Normal:
		return preset{gridDivision: baseDivision, keepRatio: 0.8, lanes: d.Columns()}
	case chart.Expert:
		return preset{gridDivision: baseDivision * 2, keepRatio: 1, enhance: true, lanes: d.Columns()}
	default:
		return preset{gridDivision: baseDivision, keepRatio: 1, lanes: d.Columns()}
	}
}

func (p preset) selectPeaks(times []float64) []float64 {
	if p.enhance {
		return enhancePeaks(times)
	}
	return reducePeaks(times, p.keepRatio)
}

// reducePeaks keeps roughly keepRatio of the peaks, evenly spread over
// the sequence rather than biased toward its start.
func reducePeaks(times []float64, keepRatio float64) []float64 {
	if len(times) == 0 || keepRatio >= 1 {
		return append([]float64(nil), times...)
	}
	keep := int(math.Ceil(float64(len(times)) * keepRatio))
	if keep < 1 {
		keep = 1
	}
	spacing := float64(len(times)) / float64(keep)

	out := make([]float64, 0, keep)
	next := 0.0
	for i, t := range times {
		if float64(i) >= next {
			out = append(out, t)
			next += spacing
		}
	}
	return out
}

// enhancePeaks adds a midpoint into every gap wider than enhanceGap, then
// re-sorts and dedups within enhanceDedup.
func enhancePeaks(times []float64) []float64 {
	out := append([]float64(nil), times...)
	for i := 0; i+1 < len(times); i++ {
		if times[i+1]-times[i] > enhanceGap {
			out = append(out, 0.5*(times[i]+times[i+1]))
		}
	}
	sort.Float64s(out)

	deduped := out[:0]
	last := math.Inf(-1)
	for _, t := range out {
		if t-last > enhanceDedup {
			deduped = append(deduped, t)
			last = t
		}
	}
	return deduped
}

// dropPastEnd removes quantized times the grid pushed beyond the end of
// the signal.
func dropPastEnd(times []float64, duration float64) []float64 {
	out := times[:0]
	for _, t := range times {
		if t <= duration {
			out = append(out, t)
		}
	}
	return out
}
