// ABOUTME: WAV audio source
// ABOUTME: Decodes PCM WAV with go-audio/wav into normalized stereo frames
package source

import (
	"fmt"
	"io"
	"log"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
)

// WAVSource reads from a WAV file
type WAVSource struct {
	r          io.ReadSeekCloser
	decoder    *wav.Decoder
	buf        *goaudio.IntBuffer
	samples    []float32
	sampleRate int
	channels   int
	bitDepth   int
	title      string
}

// NewWAVSource creates a new WAV audio source. The decoder seeks, so the
// whole file has to be available.
func NewWAVSource(r io.ReadSeekCloser, title string) (*WAVSource, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	sampleRate := int(decoder.SampleRate)
	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)

	log.Printf("Loaded WAV: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, sampleRate, channels, bitDepth)

	return &WAVSource{
		r:          r,
		decoder:    decoder,
		buf:        &goaudio.IntBuffer{},
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		title:      title,
	}, nil
}

func (s *WAVSource) Read(left, right []float32) (int, error) {
	want := len(left) * s.channels
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
		s.samples = make([]float32, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("wav decode error: %w", err)
	}
	frames := n / s.channels
	if frames == 0 {
		return 0, io.EOF
	}

	samples := s.samples[:frames*s.channels]
	for i := range samples {
		samples[i] = s.normalize(s.buf.Data[i])
	}

	block := audio.Deinterleave(samples, s.channels)
	copy(left, block.Left)
	copy(right, block.Right)
	return frames, nil
}

// normalize maps a decoded sample to -1..1. 8-bit WAV is unsigned with
// silence at 128; wider depths are signed.
func (s *WAVSource) normalize(sample int) float32 {
	if s.bitDepth == 8 {
		sample -= 128
	}
	return audio.SampleToFloat(int32(sample), s.bitDepth)
}

func (s *WAVSource) SampleRate() int { return s.sampleRate }
func (s *WAVSource) Format() audio.Format {
	return audio.Format{Codec: "wav", SampleRate: s.sampleRate, Channels: s.channels, BitDepth: s.bitDepth}
}
func (s *WAVSource) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *WAVSource) Close() error {
	return s.r.Close()
}
