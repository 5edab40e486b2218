// ABOUTME: Source wrapper converting any source to a fixed output sample rate
// ABOUTME: Buffers resampled frames so callers can read arbitrary block sizes
package source

import (
	"io"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
	"github.com/Resonate-Protocol/wasmplay/pkg/audio/resample"
)

// ResampledSource reads from an inner source at its native rate and
// delivers frames at the target rate.
type ResampledSource struct {
	Source
	resampler *resample.Resampler
	rate      int
	pending   audio.Block
	in        audio.Block
	eof       bool
}

// NewResampled wraps src so it produces audio at rate. If src already runs
// at rate, it is returned unchanged.
func NewResampled(src Source, rate int) Source {
	if src.SampleRate() == rate {
		return src
	}
	return &ResampledSource{
		Source:    src,
		resampler: resample.New(src.SampleRate(), rate),
		rate:      rate,
	}
}

func (s *ResampledSource) Read(left, right []float32) (int, error) {
	want := len(left)
	for s.pending.Frames() < want && !s.eof {
		inFrames := s.resampler.InputFramesNeeded(want - s.pending.Frames())
		if inFrames < 2 {
			inFrames = 2
		}
		if cap(s.in.Left) < inFrames {
			s.in = audio.NewBlock(inFrames)
		}
		n, err := s.Source.Read(s.in.Left[:inFrames], s.in.Right[:inFrames])
		if n > 0 {
			out := s.resampler.Process(audio.Block{Left: s.in.Left[:n], Right: s.in.Right[:n]})
			s.pending.Left = append(s.pending.Left, out.Left...)
			s.pending.Right = append(s.pending.Right, out.Right...)
		}
		if err == io.EOF {
			s.eof = true
			tail := s.resampler.Flush()
			s.pending.Left = append(s.pending.Left, tail.Left...)
			s.pending.Right = append(s.pending.Right, tail.Right...)
		} else if err != nil {
			return 0, err
		}
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

func (s *ResampledSource) SampleRate() int { return s.rate }
