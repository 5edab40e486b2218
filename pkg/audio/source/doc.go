// ABOUTME: Audio source package for decoded stereo input
// ABOUTME: Provides the Source interface with WAV, MP3, FLAC, HTTP and tone implementations
// Package source decodes audio files and streams into normalized stereo
// frames ready for the PCM scheduler.
//
// Example:
//
//	src, err := source.New("song.flac")
//	src = source.NewResampled(src, pcm.SampleRate)
//	block, err := source.ReadBlock(src, 4096)
package source
