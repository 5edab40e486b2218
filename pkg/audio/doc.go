// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Block types and sample conversion functions
// Package audio provides the audio types shared by the scheduler, the
// decoders and the native output.
//
// This package defines:
//   - Format: describes a decoded source (codec, sample rate, channels, bit depth)
//   - Block: one stereo block of normalized float32 samples
//
// It also provides small helpers used on the way from a decoder to the
// scheduler:
//   - integer ↔ normalized float conversions
//   - deinterleaving of interleaved sample buffers
//   - in-place gain
//
// Example:
//
//	block := audio.Deinterleave(samples, 2)
//	audio.Gain(block, 1.5)
//	start, err := scheduler.PlayNext(block.Left, block.Right)
package audio
