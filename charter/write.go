package charter

import (
	"github.com/SeradedStripes/rhythm-pi/chart"
	"github.com/SeradedStripes/rhythm-pi/export"
)

// WriteResult reports one difficulty's export outcome.
type WriteResult struct {
	Difficulty chart.Difficulty
	Path       string
	Err        error
}

// WriteAll exports every successful generation result into dir, one file
// per difficulty. Generation failures carry over into the corresponding
// write result; a failing write does not abort the rest.
func WriteAll(dir string, results []Result, format export.Format) []WriteResult {
	out := make([]WriteResult, len(results))
	for i, r := range results {
		out[i].Difficulty = r.Difficulty
		if r.Err != nil {
			out[i].Err = r.Err
			continue
		}
		path, err := export.Write(dir, r.Chart, format)
		out[i].Path = path
		out[i].Err = err
	}
	return out
}
