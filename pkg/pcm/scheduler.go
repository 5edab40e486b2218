// ABOUTME: Gapless PCM block scheduler
// ABOUTME: Appends each stereo block right after the previous one on an audio context clock
package pcm

import (
	"fmt"
	"log"
)

const (
	// Channels is the fixed channel count of every scheduled buffer
	Channels = 2

	// SampleRate is the fixed sample rate of every scheduled buffer
	SampleRate = 44100
)

// Context is an audio graph with its own clock, such as a Web Audio
// AudioContext.
type Context interface {
	// CurrentTime returns the context clock in seconds
	CurrentTime() float64

	// CreateBuffer allocates a playable buffer
	CreateBuffer(channels, frames, sampleRate int) (Buffer, error)

	// Start connects buf to the destination and starts it at when
	// (context seconds). A time in the past starts immediately.
	Start(buf Buffer, when float64) error
}

// Buffer is a playable multi-channel audio buffer created by a Context
type Buffer interface {
	// CopyToChannel copies samples into one channel of the buffer
	CopyToChannel(samples []float32, channel int) error

	// Duration returns the buffer length in seconds
	Duration() float64
}

// Stats tracks scheduler metrics
type Stats struct {
	Scheduled int64
	CatchUps  int64   // times the cursor fell behind the clock
	Skipped   float64 // seconds of timeline lost to catch-ups
}

// Scheduler owns the playback cursor for one Context.
// It is not safe for concurrent use.
type Scheduler struct {
	ctx        Context
	channels   int
	sampleRate int
	startTime  float64

	stats Stats
}

// NewScheduler creates a scheduler for ctx with the cursor at zero
func NewScheduler(ctx Context) *Scheduler {
	return &Scheduler{
		ctx:        ctx,
		channels:   Channels,
		sampleRate: SampleRate,
	}
}

// PlayNext schedules one stereo block right after the previously scheduled
// one and returns its start time. If the context clock has already passed
// the cursor, the block starts now instead.
func (s *Scheduler) PlayNext(left, right []float32) (float64, error) {
	buf, err := s.ctx.CreateBuffer(s.channels, len(left), s.sampleRate)
	if err != nil {
		return 0, fmt.Errorf("failed to create buffer: %w", err)
	}

	if err := buf.CopyToChannel(left, 0); err != nil {
		return 0, fmt.Errorf("failed to copy left channel: %w", err)
	}
	if err := buf.CopyToChannel(right, 1); err != nil {
		return 0, fmt.Errorf("failed to copy right channel: %w", err)
	}

	if now := s.ctx.CurrentTime(); s.startTime < now {
		if s.stats.Scheduled > 0 {
			log.Printf("Playback cursor behind clock by %.3fs, catching up", now-s.startTime)
		}
		s.stats.CatchUps++
		s.stats.Skipped += now - s.startTime
		s.startTime = now
	}

	if err := s.ctx.Start(buf, s.startTime); err != nil {
		return 0, fmt.Errorf("failed to start buffer: %w", err)
	}

	start := s.startTime
	s.startTime += buf.Duration()
	s.stats.Scheduled++

	return start, nil
}

// Cursor returns the earliest time the next block may start
func (s *Scheduler) Cursor() float64 {
	return s.startTime
}

// Lead returns how far the cursor is ahead of the context clock, in
// seconds. It is zero or negative when playback has run dry.
func (s *Scheduler) Lead() float64 {
	return s.startTime - s.ctx.CurrentTime()
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() Stats {
	return s.stats
}
