// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts stereo blocks between sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation, which is enough to bring decoded files to the
// scheduler's fixed 44.1kHz rate. Handles both upsampling and downsampling.
//
// Example:
//
//	r := resample.New(48000, pcm.SampleRate)
//	out := r.Process(block)
package resample
