// ABOUTME: FLAC audio source
// ABOUTME: Decodes FLAC frames with mewkiz/flac into normalized stereo frames
package source

import (
	"fmt"
	"io"
	"log"

	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
)

// FLACSource reads from a FLAC file or stream
type FLACSource struct {
	r          io.ReadCloser
	stream     *flac.Stream
	pending    audio.Block // decoded frames not yet returned
	sampleRate int
	channels   int
	bitDepth   int
	title      string
}

// NewFLACSource creates a new FLAC audio source
func NewFLACSource(r io.ReadCloser, title string) (*FLACSource, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	sampleRate := int(info.SampleRate)
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, sampleRate, channels, bitDepth)

	return &FLACSource{
		r:          r,
		stream:     stream,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		title:      title,
	}, nil
}

func (s *FLACSource) Read(left, right []float32) (int, error) {
	for s.pending.Frames() < len(left) {
		frame, err := s.stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("flac decode error: %w", err)
		}

		n := int(frame.BlockSize)
		block := audio.NewBlock(n)
		for i := 0; i < n; i++ {
			block.Left[i] = audio.SampleToFloat(frame.Subframes[0].Samples[i], s.bitDepth)
			if s.channels == 1 {
				block.Right[i] = block.Left[i]
			} else {
				block.Right[i] = audio.SampleToFloat(frame.Subframes[1].Samples[i], s.bitDepth)
			}
		}
		s.pending.Left = append(s.pending.Left, block.Left...)
		s.pending.Right = append(s.pending.Right, block.Right...)
	}

	if s.pending.Frames() == 0 {
		return 0, io.EOF
	}

	n := copy(left, s.pending.Left)
	copy(right, s.pending.Right)
	s.pending.Left = s.pending.Left[n:]
	s.pending.Right = s.pending.Right[n:]

	return n, nil
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Format() audio.Format {
	return audio.Format{Codec: "flac", SampleRate: s.sampleRate, Channels: s.channels, BitDepth: s.bitDepth}
}
func (s *FLACSource) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *FLACSource) Close() error {
	s.stream.Close()
	return s.r.Close()
}
