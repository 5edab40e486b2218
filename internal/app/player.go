// ABOUTME: Native player application orchestration
// ABOUTME: Pulls blocks from a source, applies gain and schedules them ahead of the output clock
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
	"github.com/Resonate-Protocol/wasmplay/pkg/audio/output"
	"github.com/Resonate-Protocol/wasmplay/pkg/audio/source"
	"github.com/Resonate-Protocol/wasmplay/pkg/pcm"
)

const (
	DefaultBlockSize = 4096
	DefaultLeadMs    = 200
)

// Config holds player configuration
type Config struct {
	BlockSize int     // frames per scheduled block
	LeadMs    int     // how far ahead of the clock to keep the cursor
	Gain      float64 // linear gain applied to every block; 0 means 1.0
	Volume    int     // initial output volume (0-100)
}

// Stats is a snapshot of playback progress
type Stats struct {
	pcm.Stats
	Cursor float64
	Clock  float64
	Lead   float64
	Frames int64
}

// Player drives one source through the scheduler
type Player struct {
	config Config
	source source.Source
	output output.Output

	mu        sync.Mutex
	scheduler *pcm.Scheduler
	frames    int64
	gain      float32
}

// New creates a player for src. The output is opened by Run.
func New(config Config, src source.Source, out output.Output) *Player {
	if config.BlockSize <= 0 {
		config.BlockSize = DefaultBlockSize
	}
	if config.LeadMs <= 0 {
		config.LeadMs = DefaultLeadMs
	}
	if config.Volume == 0 {
		config.Volume = 100
	}
	if config.Gain == 0 {
		config.Gain = 1.0
	}

	p := &Player{
		config: config,
		source: source.NewResampled(src, pcm.SampleRate),
		output: out,
	}
	p.SetGain(config.Gain)
	return p
}

// Run opens the output and plays the source until it ends or ctx is done.
// It returns after the last scheduled block has been rendered.
func (p *Player) Run(ctx context.Context) error {
	if err := p.output.Open(pcm.SampleRate, pcm.Channels); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	p.output.SetVolume(p.config.Volume)

	p.mu.Lock()
	p.scheduler = pcm.NewScheduler(p.output)
	p.mu.Unlock()

	format := p.source.Format()
	log.Printf("Playing %s %dHz %dch %d-bit (block %d frames, lead %dms)",
		format.Codec, format.SampleRate, format.Channels, format.BitDepth,
		p.config.BlockSize, p.config.LeadMs)

	lead := float64(p.config.LeadMs) / 1000.0
	poll := time.Duration(p.config.LeadMs) * time.Millisecond / 4

	for {
		// Stay at most lead seconds ahead of the clock
		for p.lead() > lead {
			if err := sleep(ctx, poll); err != nil {
				return err
			}
		}

		block, err := source.ReadBlock(p.source, p.config.BlockSize)
		if block.Frames() > 0 {
			audio.Gain(block, p.currentGain())
			if schedErr := p.schedule(block); schedErr != nil {
				log.Printf("Dropped block: %v", schedErr)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read source: %w", err)
		}
	}

	log.Printf("Source finished, draining %.2fs", math.Max(p.lead(), 0))
	for p.lead() > 0 {
		if err := sleep(ctx, poll); err != nil {
			return err
		}
	}

	stats := p.Stats()
	log.Printf("Playback complete: %d blocks, %d catch-ups, %.3fs skipped",
		stats.Scheduled, stats.CatchUps, stats.Skipped)
	return nil
}

func (p *Player) schedule(block audio.Block) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.scheduler.PlayNext(block.Left, block.Right); err != nil {
		return err
	}
	p.frames += int64(block.Frames())
	return nil
}

func (p *Player) lead() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scheduler.Lead()
}

// Stats returns a snapshot of the scheduler state
func (p *Player) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scheduler == nil {
		return Stats{}
	}
	clock := p.output.CurrentTime()
	return Stats{
		Stats:  p.scheduler.Stats(),
		Cursor: p.scheduler.Cursor(),
		Clock:  clock,
		Lead:   p.scheduler.Cursor() - clock,
		Frames: p.frames,
	}
}

// SetGain changes the gain applied to blocks not yet scheduled
func (p *Player) SetGain(gain float64) {
	p.mu.Lock()
	p.gain = float32(gain)
	p.mu.Unlock()
}

func (p *Player) currentGain() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gain
}

// SetVolume sets the output volume (0-100)
func (p *Player) SetVolume(volume int) {
	p.output.SetVolume(volume)
}

// SetMuted mutes or unmutes the output
func (p *Player) SetMuted(muted bool) {
	p.output.SetMuted(muted)
}

// Source returns the (resampled) source being played
func (p *Player) Source() source.Source {
	return p.source
}

// Close releases the source and the output
func (p *Player) Close() error {
	srcErr := p.source.Close()
	if err := p.output.Close(); err != nil {
		return err
	}
	return srcErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
