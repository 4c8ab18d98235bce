package audio

import (
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// WriteWAV writes mono samples as a 16-bit PCM WAV file. Values outside
// [-1, 1] are clipped.
func WriteWAV(path string, samples []float64, sampleRate int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	defer enc.Close()

	data := make([]float32, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = float32(v)
	}
	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}
