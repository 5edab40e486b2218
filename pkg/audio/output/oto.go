// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays a mixing Timeline through one persistent oto player with volume control
package output

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/wasmplay/pkg/pcm"
	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	otoCtx   *oto.Context
	player   *oto.Player
	timeline *Timeline
	volume   int
	muted    bool
	ready    bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{
		volume: 100,
		muted:  false,
	}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	// oto allows one context per process
	if o.otoCtx != nil {
		if o.timeline.sampleRate == sampleRate && o.timeline.channels == channels {
			log.Printf("Audio output already initialized with same format, reusing context")
			return nil
		}
		return fmt.Errorf("audio output already opened at %dHz %dch, cannot reopen at %dHz %dch",
			o.timeline.sampleRate, o.timeline.channels, sampleRate, channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.timeline = NewTimeline(sampleRate, channels)

	// Persistent player pulling rendered frames from the timeline
	o.player = o.otoCtx.NewPlayer(o.timeline)
	o.player.SetVolume(getVolumeMultiplier(o.volume, o.muted))
	o.player.Play()

	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)

	return nil
}

// CurrentTime returns the timeline clock. It leads the speaker by the
// amount oto has buffered.
func (o *Oto) CurrentTime() float64 {
	if !o.ready {
		return 0
	}
	return o.timeline.CurrentTime()
}

// CreateBuffer allocates a buffer on the timeline
func (o *Oto) CreateBuffer(channels, frames, sampleRate int) (pcm.Buffer, error) {
	if !o.ready {
		return nil, fmt.Errorf("output not initialized")
	}
	return o.timeline.CreateBuffer(channels, frames, sampleRate)
}

// Start places a buffer on the timeline
func (o *Oto) Start(buf pcm.Buffer, when float64) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}
	return o.timeline.Start(buf, when)
}

// Pending returns the number of scheduled buffers still playing or queued
func (o *Oto) Pending() int {
	if !o.ready {
		return 0
	}
	return o.timeline.Pending()
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Error closing oto player: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	o.ready = false
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volume = volume
	o.applyVolume()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.muted = muted
	o.applyVolume()
	log.Printf("Muted: %v", muted)
}

// GetVolume returns current volume
func (o *Oto) GetVolume() int {
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	return o.muted
}

func (o *Oto) applyVolume() {
	if o.player != nil {
		o.player.SetVolume(getVolumeMultiplier(o.volume, o.muted))
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
