// ABOUTME: Frame-accurate mixing timeline implementing the PCM scheduler context
// ABOUTME: Renders scheduled buffers as interleaved float32 PCM through io.Reader
package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/Resonate-Protocol/wasmplay/pkg/pcm"
)

// Timeline is a native audio graph: buffers are started at a time on its
// clock and rendered by Read. Its clock only advances as frames are read,
// so it runs at whatever pace the consumer pulls it.
type Timeline struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	frame      int64 // frames rendered so far
	voices     []voice
	mix        []float32
}

type voice struct {
	buf   *timelineBuffer
	start int64
}

var _ pcm.Context = (*Timeline)(nil)

// NewTimeline creates a timeline at the given format with its clock at zero
func NewTimeline(sampleRate, channels int) *Timeline {
	return &Timeline{
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// CurrentTime returns the number of rendered frames in seconds
func (t *Timeline) CurrentTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.frame) / float64(t.sampleRate)
}

// CreateBuffer allocates a silent buffer. The timeline does not convert
// formats, so channels and sampleRate must match its own.
func (t *Timeline) CreateBuffer(channels, frames, sampleRate int) (pcm.Buffer, error) {
	if channels != t.channels {
		return nil, fmt.Errorf("unsupported channel count: %d (timeline has %d)", channels, t.channels)
	}
	if sampleRate != t.sampleRate {
		return nil, fmt.Errorf("unsupported sample rate: %d (timeline runs at %d)", sampleRate, t.sampleRate)
	}
	if frames < 0 {
		return nil, fmt.Errorf("invalid buffer length: %d", frames)
	}

	buf := &timelineBuffer{
		data:       make([][]float32, channels),
		frames:     frames,
		sampleRate: sampleRate,
	}
	for ch := range buf.data {
		buf.data[ch] = make([]float32, frames)
	}
	return buf, nil
}

// Start places buf on the timeline at when. Times already rendered start
// at the next frame to be read.
func (t *Timeline) Start(buf pcm.Buffer, when float64) error {
	b, ok := buf.(*timelineBuffer)
	if !ok {
		return fmt.Errorf("buffer of type %T was not created by a timeline", buf)
	}

	start := int64(math.Round(when * float64(t.sampleRate)))

	t.mu.Lock()
	defer t.mu.Unlock()

	if start < t.frame {
		start = t.frame
	}
	if b.frames > 0 {
		t.voices = append(t.voices, voice{buf: b, start: start})
	}
	return nil
}

// Pending returns the number of buffers not yet fully rendered
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.voices)
}

// Read renders whole frames of interleaved float32 little-endian samples,
// mixing every buffer that overlaps them. It never returns an error and
// fills gaps with silence.
func (t *Timeline) Read(p []byte) (int, error) {
	frameSize := 4 * t.channels
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := frames * t.channels
	if cap(t.mix) < n {
		t.mix = make([]float32, n)
	}
	mix := t.mix[:n]
	for i := range mix {
		mix[i] = 0
	}

	from := t.frame
	to := t.frame + int64(frames)

	active := t.voices[:0]
	for _, v := range t.voices {
		end := v.start + int64(v.buf.frames)
		if v.start >= to {
			active = append(active, v)
			continue
		}

		first := max(v.start, from)
		last := min(end, to)
		for f := first; f < last; f++ {
			in := int(f - v.start)
			out := int(f-from) * t.channels
			for ch := 0; ch < t.channels; ch++ {
				mix[out+ch] += v.buf.data[ch][in]
			}
		}

		if end > to {
			active = append(active, v)
		}
	}
	t.voices = active
	t.frame = to

	for i, s := range mix {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}

	return frames * frameSize, nil
}

// timelineBuffer holds deinterleaved channel data
type timelineBuffer struct {
	data       [][]float32
	frames     int
	sampleRate int
}

// CopyToChannel copies samples into a channel. Shorter input leaves the
// rest of the channel silent; longer input is rejected.
func (b *timelineBuffer) CopyToChannel(samples []float32, channel int) error {
	if channel < 0 || channel >= len(b.data) {
		return fmt.Errorf("channel index %d out of range (buffer has %d)", channel, len(b.data))
	}
	if len(samples) > b.frames {
		return fmt.Errorf("source array of %d samples is too large for buffer of %d frames", len(samples), b.frames)
	}
	copy(b.data[channel], samples)
	return nil
}

// Duration returns frames / sample rate
func (b *timelineBuffer) Duration() float64 {
	return float64(b.frames) / float64(b.sampleRate)
}
