// ABOUTME: Tests for player application orchestration
// ABOUTME: Tests configuration defaults, pacing, gain and draining against a native timeline
package app

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
	"github.com/Resonate-Protocol/wasmplay/pkg/audio/output"
	"github.com/Resonate-Protocol/wasmplay/pkg/audio/source"
	"github.com/Resonate-Protocol/wasmplay/pkg/pcm"
)

// timelineOutput is an Output backed by a Timeline that tests render by hand
type timelineOutput struct {
	*output.Timeline
	opened bool
	volume int
	muted  bool
	closed bool
}

func newTimelineOutput() *timelineOutput {
	return &timelineOutput{Timeline: output.NewTimeline(pcm.SampleRate, pcm.Channels)}
}

func (o *timelineOutput) Open(sampleRate, channels int) error {
	o.opened = true
	return nil
}
func (o *timelineOutput) SetVolume(volume int) { o.volume = volume }
func (o *timelineOutput) SetMuted(muted bool)  { o.muted = muted }
func (o *timelineOutput) Close() error {
	o.closed = true
	return nil
}

// pump renders the timeline as fast as possible, collecting the samples
type pump struct {
	mu      sync.Mutex
	samples []float32
	stop    chan struct{}
	done    chan struct{}
}

func startPump(tl io.Reader) *pump {
	p := &pump{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(p.done)
		buf := make([]byte, 256*pcm.Channels*4)
		for {
			select {
			case <-p.stop:
				return
			default:
			}
			n, _ := tl.Read(buf)
			p.mu.Lock()
			for i := 0; i+4 <= n; i += 4 {
				p.samples = append(p.samples, math.Float32frombits(binary.LittleEndian.Uint32(buf[i:])))
			}
			p.mu.Unlock()
			time.Sleep(time.Millisecond)
		}
	}()
	return p
}

func (p *pump) Stop() []float32 {
	close(p.stop)
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.samples
}

// constantSource yields frames of a fixed value
type constantSource struct {
	value  float32
	frames int
}

func (s *constantSource) Read(left, right []float32) (int, error) {
	if s.frames == 0 {
		return 0, io.EOF
	}
	n := len(left)
	if n > s.frames {
		n = s.frames
	}
	for i := 0; i < n; i++ {
		left[i] = s.value
		right[i] = s.value
	}
	s.frames -= n
	return n, nil
}
func (s *constantSource) SampleRate() int { return pcm.SampleRate }
func (s *constantSource) Format() audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: pcm.SampleRate, Channels: 2, BitDepth: 32}
}
func (s *constantSource) Metadata() (string, string, string) { return "Constant", "", "" }
func (s *constantSource) Close() error                       { return nil }

func TestNewPlayerDefaults(t *testing.T) {
	player := New(Config{}, source.NewToneSource(440, 0), newTimelineOutput())

	if player == nil {
		t.Fatal("expected player to be created")
	}
	if player.config.BlockSize != DefaultBlockSize {
		t.Errorf("expected BlockSize %d, got %d", DefaultBlockSize, player.config.BlockSize)
	}
	if player.config.LeadMs != DefaultLeadMs {
		t.Errorf("expected LeadMs %d, got %d", DefaultLeadMs, player.config.LeadMs)
	}
	if player.config.Volume != 100 {
		t.Errorf("expected Volume 100, got %d", player.config.Volume)
	}
	if player.currentGain() != 1.0 {
		t.Errorf("expected unity gain, got %f", player.currentGain())
	}
	if stats := player.Stats(); stats.Scheduled != 0 {
		t.Errorf("expected empty stats before Run, got %+v", stats)
	}
}

func TestPlayerPacesAheadOfClock(t *testing.T) {
	out := newTimelineOutput()
	player := New(Config{BlockSize: 1024, LeadMs: 100}, source.NewToneSource(440, 0), out)

	// Nothing renders, so the clock stays at zero and Run must stop
	// scheduling once the cursor is past the lead.
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := player.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	stats := player.Stats()
	if stats.Scheduled != 5 {
		t.Errorf("expected 5 blocks scheduled, got %d", stats.Scheduled)
	}
	blockDur := 1024.0 / pcm.SampleRate
	if stats.Cursor <= 0.1 || stats.Cursor > 0.1+blockDur {
		t.Errorf("expected cursor just past the 100ms lead, got %f", stats.Cursor)
	}
	if stats.Frames != 5*1024 {
		t.Errorf("expected %d frames, got %d", 5*1024, stats.Frames)
	}
	if !out.opened {
		t.Error("expected output to be opened")
	}
	if out.volume != 100 {
		t.Errorf("expected volume 100, got %d", out.volume)
	}
}

func TestPlayerPlaysToEndAndDrains(t *testing.T) {
	out := newTimelineOutput()
	player := New(Config{BlockSize: 512, LeadMs: 40, Gain: 0.5}, &constantSource{value: 0.5, frames: 2000}, out)

	p := startPump(out.Timeline)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := player.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	samples := p.Stop()

	stats := player.Stats()
	if stats.Scheduled != 4 {
		t.Errorf("expected 4 blocks, got %d", stats.Scheduled)
	}
	if stats.Frames != 2000 {
		t.Errorf("expected 2000 frames, got %d", stats.Frames)
	}
	if stats.Lead > 0 {
		t.Errorf("expected scheduled audio to be drained, lead %f", stats.Lead)
	}
	if out.Pending() != 0 {
		t.Errorf("expected no pending buffers, got %d", out.Pending())
	}

	nonZero := 0
	for _, s := range samples {
		if s == 0 {
			continue
		}
		if s != 0.25 {
			t.Fatalf("expected gain-scaled sample 0.25, got %f", s)
		}
		nonZero++
	}
	if nonZero != 2000*pcm.Channels {
		t.Errorf("expected %d audible samples, got %d", 2000*pcm.Channels, nonZero)
	}
}

func TestPlayerResamplesSource(t *testing.T) {
	player := New(Config{}, &slowSource{constantSource{value: 0.1, frames: 100}}, newTimelineOutput())

	if player.Source().SampleRate() != pcm.SampleRate {
		t.Errorf("expected source at %d Hz, got %d", pcm.SampleRate, player.Source().SampleRate())
	}
}

type slowSource struct {
	constantSource
}

func (s *slowSource) SampleRate() int { return 22050 }

func TestPlayerVolumeAndMute(t *testing.T) {
	out := newTimelineOutput()
	player := New(Config{}, source.NewToneSource(440, 10), out)

	player.SetVolume(40)
	player.SetMuted(true)

	if out.volume != 40 {
		t.Errorf("expected volume 40, got %d", out.volume)
	}
	if !out.muted {
		t.Error("expected output to be muted")
	}

	if err := player.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !out.closed {
		t.Error("expected output to be closed")
	}
}
