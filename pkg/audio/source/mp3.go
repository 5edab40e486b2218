// ABOUTME: MP3 audio source
// ABOUTME: Decodes MP3 files or HTTP streams with go-mp3 into normalized stereo frames
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
)

// MP3Source reads from an MP3 file or stream
type MP3Source struct {
	r          io.ReadCloser
	decoder    *mp3.Decoder
	buf        []byte
	sampleRate int
	title      string
}

// NewMP3Source creates a new MP3 audio source
func NewMP3Source(r io.ReadCloser, title string) (*MP3Source, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", title, decoder.SampleRate())

	return &MP3Source{
		r:          r,
		decoder:    decoder,
		sampleRate: decoder.SampleRate(),
		title:      title,
	}, nil
}

func (s *MP3Source) Read(left, right []float32) (int, error) {
	// MP3 decoder outputs 16-bit stereo, 4 bytes per frame
	numBytes := len(left) * 4
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := io.ReadFull(s.decoder, buf)
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	frames := n / 4
	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(buf[i*4:]))
		r := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
		left[i] = audio.SampleToFloat(int32(l), 16)
		right[i] = audio.SampleToFloat(int32(r), 16)
	}

	if frames > 0 && err == io.EOF {
		err = nil
	}
	if err != nil && err != io.EOF {
		return frames, fmt.Errorf("mp3 decode error: %w", err)
	}
	return frames, err
}

func (s *MP3Source) SampleRate() int { return s.sampleRate }
func (s *MP3Source) Format() audio.Format {
	return audio.Format{Codec: "mp3", SampleRate: s.sampleRate, Channels: 2, BitDepth: 16}
}
func (s *MP3Source) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *MP3Source) Close() error {
	return s.r.Close()
}
