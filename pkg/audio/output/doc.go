// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Output interface, the mixing Timeline and the oto backend
// Package output provides native audio playback for the PCM scheduler.
//
// Timeline is a pcm.Context whose clock is driven by the reader pulling
// samples from it. Oto opens an oto context and plays a Timeline through a
// single persistent player, so scheduled blocks are heard on the default
// device.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(pcm.SampleRate, pcm.Channels)
//	sched := pcm.NewScheduler(out)
//	sched.PlayNext(left, right)
package output
