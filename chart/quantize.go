package chart

import (
	"fmt"
	"math"
	"sort"
)

// DedupTolerance is the spacing below which two quantized times collapse
// into one, keeping the earlier of the pair.
const DedupTolerance = 0.010

// Quantizer snaps timestamps onto the musical grid derived from BPM and a
// per-beat subdivision count.
type Quantizer struct {
	BPM          float64
	GridDivision int // 4 = sixteenth notes at 4/4, 8 = thirty-seconds, ...
}

func NewQuantizer(bpm float64, gridDivision int) (*Quantizer, error) {
	if bpm <= 0 {
		return nil, fmt.Errorf("bpm must be > 0, got %g", bpm)
	}
	if gridDivision < 1 {
		return nil, fmt.Errorf("grid division must be >= 1, got %d", gridDivision)
	}
	return &Quantizer{BPM: bpm, GridDivision: gridDivision}, nil
}

// SubdivisionDuration returns the grid step in seconds.
func (q *Quantizer) SubdivisionDuration() float64 {
	return 60.0 / q.BPM / float64(q.GridDivision)
}

// Snap maps a time to the nearest grid instant, clamping negatives to zero.
func (q *Quantizer) Snap(t float64) float64 {
	sub := q.SubdivisionDuration()
	snapped := math.Round(t/sub) * sub
	if snapped < 0 {
		return 0
	}
	return snapped
}

// Apply snaps every timestamp to the grid, sorts ascending, and removes
// near-duplicates: consecutive results within DedupTolerance collapse to
// the earlier one. The input slice is not modified.
func (q *Quantizer) Apply(times []float64) []float64 {
	snapped := make([]float64, len(times))
	for i, t := range times {
		snapped[i] = q.Snap(t)
	}
	sort.Float64s(snapped)

	out := snapped[:0]
	lastKept := math.Inf(-1)
	for _, t := range snapped {
		if t-lastKept > DedupTolerance {
			out = append(out, t)
			lastKept = t
		}
	}
	return out
}
