// ABOUTME: Streaming linear resampler for stereo blocks
// ABOUTME: Converts decoded audio to the scheduler's fixed sample rate, continuous across blocks
package resample

import (
	"math"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
)

// Resampler performs linear interpolation to convert between sample rates.
// State carries over between calls, so consecutive blocks of one stream
// join without clicks.
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64 // input frames per output frame
	position   float64 // next output position, in input frames; -1 addresses prevL/prevR
	prevL      float32
	prevR      float32
	primed     bool // a frame is held back
}

// New creates a new resampler
func New(inputRate, outputRate int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Passthrough reports whether the rates are equal
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Process resamples one block of the stream. The last input frame is held
// back to interpolate against the next block, so output lags input by one
// frame.
func (r *Resampler) Process(in audio.Block) audio.Block {
	if r.Passthrough() {
		return in
	}

	n := in.Frames()
	if n == 0 {
		return audio.Block{}
	}

	sample := func(i int) (float32, float32) {
		if i < 0 {
			return r.prevL, r.prevR
		}
		return in.Left[i], in.Right[i]
	}

	size := r.OutputFramesNeeded(n) + 1
	out := audio.Block{
		Left:  make([]float32, 0, size),
		Right: make([]float32, 0, size),
	}

	for {
		idx := int(math.Floor(r.position))
		if idx+1 >= n {
			break
		}

		frac := float32(r.position - float64(idx))
		l1, r1 := sample(idx)
		l2, r2 := sample(idx + 1)

		out.Left = append(out.Left, l1+(l2-l1)*frac)
		out.Right = append(out.Right, r1+(r2-r1)*frac)

		r.position += r.ratio
	}

	// Re-base so the last frame of this block becomes index -1
	r.position -= float64(n)
	r.prevL = in.Left[n-1]
	r.prevR = in.Right[n-1]
	r.primed = true

	return out
}

// Flush emits the output owed to the held-back last frame at the end of a
// stream and clears the state for a new stream.
func (r *Resampler) Flush() audio.Block {
	var out audio.Block
	if r.Passthrough() || !r.primed {
		return out
	}

	for ; r.position < 0; r.position += r.ratio {
		out.Left = append(out.Left, r.prevL)
		out.Right = append(out.Right, r.prevR)
	}

	r.position = 0
	r.prevL, r.prevR = 0, 0
	r.primed = false
	return out
}

// OutputFramesNeeded estimates how many output frames inputFrames produce
func (r *Resampler) OutputFramesNeeded(inputFrames int) int {
	return int(float64(inputFrames) / r.ratio)
}

// InputFramesNeeded estimates how many input frames produce outputFrames
func (r *Resampler) InputFramesNeeded(outputFrames int) int {
	return int(float64(outputFrames) * r.ratio)
}
