package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SeradedStripes/rhythm-pi/chart"
)

// Hold sustains shorter than this render as taps in the text format.
const tapCutoff = 0.001

// MarshalChartText renders the section-based plain-text chart format: a
// [SONG] block with title and BPM, then a [NOTES] block whose Notes header
// always equals the serialized note count. Note lines are type|col|time
// with type 1 for taps and 2 for holds; each hold adds a 2|col|duration
// continuation line.
func MarshalChartText(c *chart.Chart) []byte {
	var b strings.Builder

	b.WriteString("[SONG]\n")
	fmt.Fprintf(&b, "  Title = %q\n", c.SongID)
	b.WriteString("  Artist = \"\"\n")
	fmt.Fprintf(&b, "  BPM = %s\n", strconv.FormatFloat(c.BPM, 'g', -1, 64))
	b.WriteString("  Gap = 0\n\n")

	b.WriteString("[NOTES]\n")
	fmt.Fprintf(&b, "  Instrument = %s\n", c.Instrument)
	fmt.Fprintf(&b, "  Difficulty = %s\n", c.Difficulty)
	fmt.Fprintf(&b, "  Columns = %d\n", c.Columns)
	fmt.Fprintf(&b, "  Notes = %d\n", len(c.Notes))
	b.WriteString(":\n")

	for _, n := range c.Notes {
		if n.Duration > tapCutoff {
			fmt.Fprintf(&b, "  2|%d|%.3f\n", n.Col, n.Time)
			fmt.Fprintf(&b, "  2|%d|%.3f\n", n.Col, n.Duration)
		} else {
			fmt.Fprintf(&b, "  1|%d|%.3f\n", n.Col, n.Time)
		}
	}
	b.WriteString(";\n")
	return []byte(b.String())
}
