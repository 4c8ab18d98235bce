package beat

import (
	"math"
	"testing"
)

func clickPeaks(bpm float64, count int) []Peak {
	beat := 60.0 / bpm
	peaks := make([]Peak, count)
	for i := range peaks {
		peaks[i] = Peak{Time: float64(i) * beat, Energy: 1}
	}
	return peaks
}

func TestRefineBPMStaysInWindow(t *testing.T) {
	peaks := clickPeaks(120, 20)
	cfg := DefaultRefineConfig()

	refined, err := RefineBPM(peaks, 117, cfg)
	if err != nil {
		t.Fatalf("RefineBPM: %v", err)
	}
	lo := 117 * (1 - cfg.Window)
	hi := 117 * (1 + cfg.Window)
	if refined < lo || refined > hi {
		t.Fatalf("refined BPM %g outside search window [%g, %g]", refined, lo, hi)
	}
}

func TestRefineBPMDeterministicForSeed(t *testing.T) {
	peaks := clickPeaks(100, 16)
	cfg := DefaultRefineConfig()
	cfg.Seed = 42

	r1, err := RefineBPM(peaks, 96, cfg)
	if err != nil {
		t.Fatalf("first RefineBPM: %v", err)
	}
	r2, err := RefineBPM(peaks, 96, cfg)
	if err != nil {
		t.Fatalf("second RefineBPM: %v", err)
	}
	if r1 != r2 {
		t.Fatalf("refinement not deterministic under a fixed seed: %g vs %g", r1, r2)
	}
}

func TestRefineBPMTooFewPeaks(t *testing.T) {
	refined, err := RefineBPM([]Peak{{Time: 1}}, 120, DefaultRefineConfig())
	if err != nil {
		t.Fatalf("RefineBPM: %v", err)
	}
	if refined != 120 {
		t.Fatalf("expected the estimate back unchanged, got %g", refined)
	}
}

func TestSnapErrorZeroOnGrid(t *testing.T) {
	peaks := clickPeaks(120, 8)
	if e := snapError(peaks, 120, 0, 4); math.Abs(e) > 1e-18 {
		t.Fatalf("expected zero snap error on an exact grid, got %g", e)
	}
}
