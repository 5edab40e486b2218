// ABOUTME: Audio type definitions
// ABOUTME: Defines source formats, stereo blocks and sample conversions
package audio

// Format describes a decoded audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Block is one stereo block of normalized float samples (-1..1).
// Left and Right are expected to have the same length.
type Block struct {
	Left  []float32
	Right []float32
}

// NewBlock allocates a silent block of the given number of frames
func NewBlock(frames int) Block {
	return Block{
		Left:  make([]float32, frames),
		Right: make([]float32, frames),
	}
}

// Frames returns the number of frames in the block
func (b Block) Frames() int {
	return len(b.Left)
}

// Duration returns the block length in seconds at the given sample rate
func (b Block) Duration(sampleRate int) float64 {
	return float64(len(b.Left)) / float64(sampleRate)
}

// Deinterleave splits interleaved samples into a stereo block.
// Mono input (channels == 1) is copied to both sides; channels beyond
// the second are discarded.
func Deinterleave(samples []float32, channels int) Block {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels
	b := NewBlock(frames)
	for i, j := 0, 0; i < frames; i, j = i+1, j+channels {
		b.Left[i] = samples[j]
		if channels == 1 {
			b.Right[i] = samples[j]
		} else {
			b.Right[i] = samples[j+1]
		}
	}
	return b
}

// Gain multiplies every sample of the block in place
func Gain(b Block, multiplier float32) {
	for i := range b.Left {
		b.Left[i] *= multiplier
	}
	for i := range b.Right {
		b.Right[i] *= multiplier
	}
}

// SampleToFloat normalizes a signed integer sample of the given bit depth
// to the -1..1 range
func SampleToFloat(sample int32, bitDepth int) float32 {
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	return float32(float64(sample) / float64(int64(1)<<(bitDepth-1)))
}
