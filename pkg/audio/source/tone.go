// ABOUTME: Test tone generator for audio source
// ABOUTME: Generates a sine wave at 44.1kHz, endless or for a fixed number of frames
package source

import (
	"io"
	"math"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
)

const toneSampleRate = 44100

// ToneSource generates a sine test tone
type ToneSource struct {
	frequency   float64
	sampleIndex uint64
	limit       uint64 // 0 means endless
}

// NewToneSource creates a tone generator. frames limits the length of the
// tone; 0 generates forever.
func NewToneSource(frequency float64, frames int) *ToneSource {
	return &ToneSource{
		frequency: frequency,
		limit:     uint64(frames),
	}
}

func (s *ToneSource) Read(left, right []float32) (int, error) {
	n := len(left)
	if s.limit > 0 {
		remaining := s.limit - s.sampleIndex
		if remaining == 0 {
			return 0, io.EOF
		}
		if uint64(n) > remaining {
			n = int(remaining)
		}
	}

	for i := 0; i < n; i++ {
		t := float64(s.sampleIndex+uint64(i)) / toneSampleRate
		sample := float32(math.Sin(2*math.Pi*s.frequency*t) * 0.5) // 50% volume
		left[i] = sample
		right[i] = sample
	}
	s.sampleIndex += uint64(n)

	return n, nil
}

func (s *ToneSource) SampleRate() int { return toneSampleRate }
func (s *ToneSource) Format() audio.Format {
	return audio.Format{Codec: "tone", SampleRate: toneSampleRate, Channels: 2, BitDepth: 32}
}
func (s *ToneSource) Metadata() (string, string, string) {
	return "Test Tone", "wasmplay", "Reference Tones"
}
func (s *ToneSource) Close() error { return nil }
