// ABOUTME: Audio output interface definition
// ABOUTME: Native playback backends are audio contexts for the PCM scheduler
package output

import "github.com/Resonate-Protocol/wasmplay/pkg/pcm"

// Output represents an audio output device that blocks can be scheduled on
type Output interface {
	pcm.Context

	// Open initializes the output device
	Open(sampleRate, channels int) error

	// SetVolume sets the volume (0-100)
	SetVolume(volume int)

	// SetMuted sets mute state
	SetMuted(muted bool)

	// Close releases output resources
	Close() error
}

var _ Output = (*Oto)(nil)
