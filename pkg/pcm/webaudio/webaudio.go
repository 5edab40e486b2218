//go:build js && wasm

// ABOUTME: Web Audio implementation of the PCM scheduler context
// ABOUTME: Wraps a browser AudioContext through syscall/js
package webaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"syscall/js"

	"github.com/Resonate-Protocol/wasmplay/pkg/pcm"
)

// Context adapts a browser AudioContext to pcm.Context
type Context struct {
	ctx js.Value
}

var _ pcm.Context = (*Context)(nil)

// New creates a new AudioContext
func New() (*Context, error) {
	contextType := js.Global().Get("AudioContext")
	if contextType.IsUndefined() {
		contextType = js.Global().Get("webkitAudioContext")
	}
	if contextType.IsUndefined() {
		return nil, errors.New("the Web Audio API is not supported in this browser")
	}

	var ctx js.Value
	if err := catch(func() { ctx = contextType.New() }); err != nil {
		return nil, fmt.Errorf("failed to create AudioContext: %w", err)
	}
	return &Context{ctx: ctx}, nil
}

// CurrentTime returns the AudioContext clock in seconds
func (c *Context) CurrentTime() float64 {
	return c.ctx.Get("currentTime").Float()
}

// SampleRate returns the hardware sample rate of the context
func (c *Context) SampleRate() float64 {
	return c.ctx.Get("sampleRate").Float()
}

// State returns "suspended", "running" or "closed"
func (c *Context) State() string {
	return c.ctx.Get("state").String()
}

// Resume resumes a context suspended by the browser's autoplay policy.
// The returned promise is not awaited.
func (c *Context) Resume() error {
	return catch(func() { c.ctx.Call("resume") })
}

// CreateBuffer calls AudioContext.createBuffer
func (c *Context) CreateBuffer(channels, frames, sampleRate int) (pcm.Buffer, error) {
	var buf js.Value
	if err := catch(func() { buf = c.ctx.Call("createBuffer", channels, frames, sampleRate) }); err != nil {
		return nil, err
	}
	return &Buffer{buf: buf}, nil
}

// Start plays buf through a new AudioBufferSourceNode connected to the
// destination
func (c *Context) Start(buf pcm.Buffer, when float64) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("buffer of type %T was not created by a web audio context", buf)
	}

	return catch(func() {
		source := c.ctx.Call("createBufferSource")
		source.Set("buffer", b.buf)
		source.Call("connect", c.ctx.Get("destination"))
		source.Call("start", when)
	})
}

// Buffer wraps an AudioBuffer
type Buffer struct {
	buf js.Value
}

// CopyToChannel sets the channel data from samples. An array longer than
// the buffer raises a RangeError, which is returned.
func (b *Buffer) CopyToChannel(samples []float32, channel int) error {
	arr := float32Array(samples)
	return catch(func() {
		b.buf.Call("getChannelData", channel).Call("set", arr)
	})
}

// Duration returns AudioBuffer.duration
func (b *Buffer) Duration() float64 {
	return b.buf.Get("duration").Float()
}

// float32Array copies samples into a new JS Float32Array
func float32Array(samples []float32) js.Value {
	raw := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(s))
	}

	bytes := js.Global().Get("Uint8Array").New(len(raw))
	js.CopyBytesToJS(bytes, raw)
	return js.Global().Get("Float32Array").New(bytes.Get("buffer"))
}

// catch turns a JavaScript exception raised inside fn into an error
func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			jsErr, ok := r.(js.Error)
			if !ok {
				panic(r)
			}
			err = jsErr
		}
	}()
	fn()
	return nil
}
