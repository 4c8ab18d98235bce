// Package export serializes charts to their on-disk formats.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SeradedStripes/rhythm-pi/chart"
)

// Format selects the output serialization.
type Format int

const (
	FormatJSON Format = iota
	FormatChart
)

// ParseFormat accepts "json" or "chart".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "chart":
		return FormatChart, nil
	}
	return 0, fmt.Errorf("unknown chart format %q", s)
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	if f == FormatChart {
		return "chart"
	}
	return "json"
}

func (f Format) String() string { return f.Ext() }

// chartFile is the JSON schema for an exported chart.
type chartFile struct {
	SongID      string     `json:"song_id"`
	Instrument  string     `json:"instrument"`
	Difficulty  string     `json:"difficulty"`
	Columns     int        `json:"columns"`
	BPM         float64    `json:"bpm"`
	GeneratedAt int64      `json:"generated_at"`
	Notes       []noteFile `json:"notes"`
}

type noteFile struct {
	Time     float64 `json:"time"`
	Col      int     `json:"col"`
	Duration float64 `json:"duration,omitempty"`
}

// MarshalJSON renders a chart as indented JSON.
func MarshalJSON(c *chart.Chart) ([]byte, error) {
	file := chartFile{
		SongID:      c.SongID,
		Instrument:  c.Instrument,
		Difficulty:  c.Difficulty.String(),
		Columns:     c.Columns,
		BPM:         c.BPM,
		GeneratedAt: c.GeneratedAt,
		Notes:       make([]noteFile, len(c.Notes)),
	}
	for i, n := range c.Notes {
		file.Notes[i] = noteFile{Time: n.Time, Col: n.Col, Duration: n.Duration}
	}
	return json.MarshalIndent(&file, "", "  ")
}

// ParseJSON reads an exported JSON chart back into memory.
func ParseJSON(b []byte) (*chart.Chart, error) {
	var file chartFile
	if err := json.Unmarshal(b, &file); err != nil {
		return nil, err
	}
	diff, err := chart.ParseDifficulty(file.Difficulty)
	if err != nil {
		return nil, err
	}
	c := &chart.Chart{
		SongID:      file.SongID,
		Instrument:  file.Instrument,
		Difficulty:  diff,
		Columns:     file.Columns,
		BPM:         file.BPM,
		GeneratedAt: file.GeneratedAt,
		Notes:       make([]chart.Note, len(file.Notes)),
	}
	for i, n := range file.Notes {
		c.Notes[i] = chart.Note{Time: n.Time, Col: n.Col, Duration: n.Duration}
	}
	return c, nil
}

// FileName builds the deterministic output name for one chart:
// {songId}_{instrument}_{difficulty}.{ext}, with non-alphanumeric runs in
// the song id and instrument replaced by underscores and the difficulty
// lowercased.
func FileName(songID, instrument string, d chart.Difficulty, f Format) string {
	return fmt.Sprintf("%s_%s_%s.%s",
		sanitize(songID),
		sanitize(strings.ToLower(instrument)),
		strings.ToLower(d.String()),
		f.Ext(),
	)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Write serializes the chart into dir and returns the written path.
func Write(dir string, c *chart.Chart, f Format) (string, error) {
	var content []byte
	switch f {
	case FormatJSON:
		b, err := MarshalJSON(c)
		if err != nil {
			return "", err
		}
		content = b
	case FormatChart:
		content = MarshalChartText(c)
	default:
		return "", fmt.Errorf("unknown chart format %d", int(f))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(c.SongID, c.Instrument, c.Difficulty, f))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}
	return path, nil
}
