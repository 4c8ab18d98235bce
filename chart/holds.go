package chart

import "fmt"

// HoldDetector decides which notes carry a sustain duration by scanning
// forward through band energy after each note's onset.
type HoldDetector struct {
	// SustainThreshold is the fraction of the note-frame band energy a
	// later frame must keep for the sustain to continue, in [0, 1].
	SustainThreshold float64
	// MinHoldDuration is the shortest sustain worth a hold, in seconds.
	MinHoldDuration float64
}

func NewHoldDetector(sustainThreshold, minHoldDuration float64) (*HoldDetector, error) {
	if sustainThreshold < 0 || sustainThreshold > 1 {
		return nil, fmt.Errorf("sustain threshold must be in [0, 1], got %g", sustainThreshold)
	}
	if minHoldDuration <= 0 {
		return nil, fmt.Errorf("min hold duration must be > 0, got %g", minHoldDuration)
	}
	return &HoldDetector{
		SustainThreshold: sustainThreshold,
		MinHoldDuration:  minHoldDuration,
	}, nil
}

// DetectHolds returns the notes with durations set where sustained band
// energy warrants a hold. laneEnergy[lane][frame] is the smoothed band
// energy for that lane's frequency range; frameDur is the frame spacing
// in seconds. Holds that would overlap in the same lane are left as
// independently computed durations, never merged.
func (h *HoldDetector) DetectHolds(notes []Note, laneEnergy [][]float64, frameDur float64) []Note {
	if frameDur <= 0 || len(laneEnergy) == 0 {
		return notes
	}

	out := make([]Note, len(notes))
	copy(out, notes)

	for i := range out {
		n := &out[i]
		if n.Col < 0 || n.Col >= len(laneEnergy) {
			continue
		}
		energy := laneEnergy[n.Col]
		start := int(n.Time/frameDur + 0.5)
		if start < 0 || start >= len(energy) {
			continue
		}
		ref := energy[start]
		if ref <= 0 {
			continue
		}

		floor := h.SustainThreshold * ref
		end := len(energy)
		for f := start + 1; f < len(energy); f++ {
			if energy[f] < floor {
				end = f
				break
			}
		}

		duration := float64(end-start) * frameDur
		if duration >= h.MinHoldDuration {
			n.Duration = duration
		}
	}
	return out
}
