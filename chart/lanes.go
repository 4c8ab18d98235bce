package chart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLaneCount is returned for non-positive lane counts.
var ErrInvalidLaneCount = errors.New("lane count must be > 0")

// StrategyKind names one of the fixed lane assignment behaviors.
type StrategyKind int

const (
	// Sequential cycles lanes by note index. Always available; used as
	// the fallback when frequency data is missing.
	Sequential StrategyKind = iota
	// Frequency picks the lane whose frequency band carries the most
	// energy at the note's time.
	Frequency
	// Random draws lanes from a seeded LCG, one draw per note.
	Random
)

// LaneStrategy is a tagged variant: Kind selects the behavior, Seed only
// applies to Random.
type LaneStrategy struct {
	Kind StrategyKind
	Seed int64
}

// ParseLaneStrategy accepts "sequential", "frequency" or "random".
func ParseLaneStrategy(s string) (LaneStrategy, error) {
	switch strings.ToLower(s) {
	case "sequential":
		return LaneStrategy{Kind: Sequential}, nil
	case "frequency":
		return LaneStrategy{Kind: Frequency}, nil
	case "random":
		return LaneStrategy{Kind: Random}, nil
	}
	return LaneStrategy{}, fmt.Errorf("unknown lane strategy %q", s)
}

func (s LaneStrategy) String() string {
	switch s.Kind {
	case Sequential:
		return "sequential"
	case Frequency:
		return "frequency"
	case Random:
		return "random"
	}
	return fmt.Sprintf("strategy(%d)", int(s.Kind))
}

// LaneBands returns the per-lane frequency ranges, in Hz, used both for
// frequency-based assignment and for sustain analysis. At most five lanes
// are defined.
func LaneBands(lanes int) [][2]float64 {
	all := [][2]float64{
		{50, 150},
		{150, 300},
		{300, 600},
		{600, 2000},
		{2000, 8000},
	}
	if lanes > len(all) {
		lanes = len(all)
	}
	return all[:lanes]
}

// AssignLanes turns quantized note times into notes with lanes assigned
// by the strategy. spectra holds per-frame power spectra (bin resolution
// binHz, frame spacing frameDur seconds); it is only consulted by the
// Frequency strategy, which falls back to Sequential when it is nil.
func AssignLanes(times []float64, lanes int, strategy LaneStrategy, spectra [][]float64, frameDur, binHz float64) ([]Note, error) {
	if lanes <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLaneCount, lanes)
	}

	notes := make([]Note, len(times))
	for i, t := range times {
		notes[i] = Note{Time: t}
	}

	switch strategy.Kind {
	case Frequency:
		if len(spectra) == 0 {
			assignSequential(notes, lanes)
			break
		}
		assignByFrequency(notes, lanes, spectra, frameDur, binHz)
	case Random:
		rng := lcg{state: uint64(strategy.Seed)}
		for i := range notes {
			notes[i].Col = int(rng.next() % uint64(lanes))
		}
	default:
		assignSequential(notes, lanes)
	}
	return notes, nil
}

func assignSequential(notes []Note, lanes int) {
	for i := range notes {
		notes[i].Col = i % lanes
	}
}

// assignByFrequency gives each note the lane whose band holds the most
// energy in the note's frame. Ties go to the lowest band index.
func assignByFrequency(notes []Note, lanes int, spectra [][]float64, frameDur, binHz float64) {
	bands := LaneBands(lanes)
	for i := range notes {
		frame := int(notes[i].Time / frameDur)
		if frame >= len(spectra) {
			frame = len(spectra) - 1
		}
		if frame < 0 {
			frame = 0
		}
		spectrum := spectra[frame]

		bestLane := 0
		bestEnergy := -1.0
		for lane, band := range bands {
			e := bandEnergy(spectrum, band[0], band[1], binHz)
			if e > bestEnergy {
				bestEnergy = e
				bestLane = lane
			}
		}
		notes[i].Col = bestLane % lanes
	}
}

// bandEnergy sums spectrum power over the bins covering [loHz, hiHz].
func bandEnergy(spectrum []float64, loHz, hiHz, binHz float64) float64 {
	lo := int(loHz / binHz)
	hi := int(hiHz / binHz)
	if lo < 0 {
		lo = 0
	}
	if hi > len(spectrum)-1 {
		hi = len(spectrum) - 1
	}
	var sum float64
	for k := lo; k <= hi; k++ {
		sum += spectrum[k]
	}
	return sum
}

// lcg is the classic 1103515245 linear congruential generator, kept for
// reproducible lane sequences under a fixed seed.
type lcg struct {
	state uint64
}

func (r *lcg) next() uint64 {
	r.state = r.state*1103515245 + 12345
	return (r.state / 65536) % 32768
}
