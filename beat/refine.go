package beat

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/cwbudde/mayfly"
)

// RefineConfig controls the grid-fit tempo refinement.
type RefineConfig struct {
	Window       float64 // fractional search width around the estimate
	GridDivision int     // subdivisions per beat used for snap error
	Population   int
	Iterations   int
	Seed         int64
}

func DefaultRefineConfig() RefineConfig {
	return RefineConfig{
		Window:       0.08,
		GridDivision: 4,
		Population:   12,
		Iterations:   40,
		Seed:         1,
	}
}

func (c RefineConfig) Validate() error {
	if c.Window <= 0 || c.Window >= 1 {
		return fmt.Errorf("window must be in (0, 1), got %g", c.Window)
	}
	if c.GridDivision < 1 {
		return fmt.Errorf("grid division must be >= 1, got %d", c.GridDivision)
	}
	if c.Population < 2 {
		return fmt.Errorf("population must be >= 2, got %d", c.Population)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", c.Iterations)
	}
	return nil
}

// RefineBPM searches a window around the estimated tempo for the (BPM,
// phase) pair whose subdivision grid best fits the detected peaks,
// minimizing the mean squared snap distance. Deterministic for a fixed
// seed. With fewer than two peaks the estimate is returned unchanged.
func RefineBPM(peaks []Peak, bpm float64, cfg RefineConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return bpm, err
	}
	if len(peaks) < 2 || bpm <= 0 {
		return bpm, nil
	}

	mcfg := mayfly.NewDESMAConfig()
	mcfg.ProblemSize = 2
	mcfg.LowerBound = 0.0
	mcfg.UpperBound = 1.0
	mcfg.MaxIterations = cfg.Iterations
	mcfg.NPop = cfg.Population
	mcfg.NPopF = cfg.Population
	mcfg.NC = 2 * cfg.Population
	mcfg.NM = maxInt(1, int(math.Round(0.05*float64(cfg.Population))))
	mcfg.Rand = rand.New(rand.NewSource(cfg.Seed))

	var mu sync.Mutex
	best := bpm
	bestScore := snapError(peaks, bpm, 0, cfg.GridDivision)

	mcfg.ObjectiveFunc = func(pos []float64) float64 {
		cand := bpm * (1 - cfg.Window + 2*cfg.Window*pos[0])
		sub := 60.0 / cand / float64(cfg.GridDivision)
		phase := pos[1] * sub
		score := snapError(peaks, cand, phase, cfg.GridDivision)

		mu.Lock()
		if score < bestScore {
			bestScore = score
			best = cand
		}
		mu.Unlock()
		return score
	}

	if _, err := runMayfly(mcfg); err != nil {
		return bpm, err
	}
	return best, nil
}

// snapError is the mean squared distance from each peak to its nearest
// grid instant for the given tempo and phase offset.
func snapError(peaks []Peak, bpm, phase float64, division int) float64 {
	sub := 60.0 / bpm / float64(division)
	var sum float64
	for _, p := range peaks {
		t := p.Time - phase
		d := t - math.Round(t/sub)*sub
		sum += d * d
	}
	return sum / float64(len(peaks))
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
