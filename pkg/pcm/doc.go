// ABOUTME: PCM scheduler package for gapless block playback
// ABOUTME: Provides Scheduler and the Context/Buffer audio graph interfaces
// Package pcm schedules stereo PCM blocks back to back on an audio context.
//
// A Scheduler keeps a single cursor: the earliest time the next block may
// start. Each PlayNext call creates a 2-channel 44.1kHz buffer, starts it at
// the later of the cursor and the context clock, and advances the cursor by
// the buffer's duration. As long as blocks arrive faster than they play,
// playback is gapless; when they arrive late the cursor jumps to "now" and
// the gap is audible instead of accumulating delay.
//
// Two Context implementations exist:
//   - webaudio.Context wraps a browser AudioContext (js/wasm builds)
//   - output.Timeline mixes natively and is played through oto
//
// Example:
//
//	sched := pcm.NewScheduler(ctx)
//	for block := range blocks {
//	    if _, err := sched.PlayNext(block.Left, block.Right); err != nil {
//	        log.Printf("dropped block: %v", err)
//	    }
//	}
package pcm
