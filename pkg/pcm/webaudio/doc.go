// ABOUTME: Web Audio backend package for the PCM scheduler
// ABOUTME: Only builds its Context for GOOS=js GOARCH=wasm
// Package webaudio implements pcm.Context on top of the browser's Web Audio
// API. Buffers are AudioBuffers, and each scheduled block is played by its
// own AudioBufferSourceNode connected straight to the destination.
//
// Example (js/wasm only):
//
//	ctx, err := webaudio.New()
//	sched := pcm.NewScheduler(ctx)
//	sched.PlayNext(left, right)
package webaudio
