// Package chart defines the note/chart data model and the stages that
// shape detected onsets into playable notes.
package chart

import (
	"fmt"
	"sort"
	"strings"
)

// Difficulty selects one of the four fixed chart presets.
type Difficulty int

const (
	Easy Difficulty = iota
	Normal
	Hard
	Expert
)

// Difficulties lists all presets in ascending order.
var Difficulties = []Difficulty{Easy, Normal, Hard, Expert}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "Easy"
	case Normal:
		return "Normal"
	case Hard:
		return "Hard"
	case Expert:
		return "Expert"
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// Columns returns the playable lane count for the difficulty: 4 for
// Easy/Normal/Hard, 5 for Expert.
func (d Difficulty) Columns() int {
	if d == Expert {
		return 5
	}
	return 4
}

// ParseDifficulty is case-insensitive.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(s) {
	case "easy":
		return Easy, nil
	case "normal":
		return Normal, nil
	case "hard":
		return Hard, nil
	case "expert":
		return Expert, nil
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// Note is one playable event. Duration 0 means a tap; > 0 means a hold
// sustained for that many seconds.
type Note struct {
	Time     float64
	Col      int
	Duration float64
}

// Chart is the complete note list for one (song, instrument, difficulty).
type Chart struct {
	SongID      string
	Instrument  string
	Difficulty  Difficulty
	Columns     int
	BPM         float64
	GeneratedAt int64
	Notes       []Note
}

// Validate checks the chart invariants: notes sorted by time with ties
// broken by ascending lane, unique (time, lane) pairs, lanes within the
// column count, and note times within [0, maxTime].
func (c *Chart) Validate(maxTime float64) error {
	if c.BPM <= 0 {
		return fmt.Errorf("bpm must be > 0, got %g", c.BPM)
	}
	if c.Columns != 4 && c.Columns != 5 {
		return fmt.Errorf("column count must be 4 or 5, got %d", c.Columns)
	}
	for i, n := range c.Notes {
		if n.Time < 0 || (maxTime > 0 && n.Time > maxTime) {
			return fmt.Errorf("note %d time %.3f outside [0, %.3f]", i, n.Time, maxTime)
		}
		if n.Col < 0 || n.Col >= c.Columns {
			return fmt.Errorf("note %d lane %d outside [0, %d)", i, n.Col, c.Columns)
		}
		if n.Duration < 0 {
			return fmt.Errorf("note %d has negative duration %.3f", i, n.Duration)
		}
		if i > 0 {
			prev := c.Notes[i-1]
			if n.Time < prev.Time || (n.Time == prev.Time && n.Col < prev.Col) {
				return fmt.Errorf("notes out of order at index %d", i)
			}
			if n.Time == prev.Time && n.Col == prev.Col {
				return fmt.Errorf("duplicate (time, lane) at index %d", i)
			}
		}
	}
	return nil
}

// SortNotes orders notes by time, ties broken by ascending lane.
func SortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Time != notes[j].Time {
			return notes[i].Time < notes[j].Time
		}
		return notes[i].Col < notes[j].Col
	})
}
