package spectral

import "strings"

// Band is a frequency range of interest for one instrument.
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// BandForInstrument returns the frequency band an instrument typically
// occupies. Unknown instruments get a broad default band.
func BandForInstrument(instrument string) Band {
	switch strings.ToLower(instrument) {
	case "vocals":
		return Band{Name: "vocals", LowHz: 200, HighHz: 4000}
	case "bass":
		return Band{Name: "bass", LowHz: 40, HighHz: 250}
	case "drums":
		return Band{Name: "drums", LowHz: 30, HighHz: 5000}
	case "lead":
		return Band{Name: "lead", LowHz: 400, HighHz: 8000}
	default:
		return Band{Name: "default", LowHz: 40, HighHz: 8000}
	}
}
