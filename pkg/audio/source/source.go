// ABOUTME: Audio source abstraction for decoding files, URLs or generating test tones
// ABOUTME: Supports WAV, MP3 and FLAC, producing normalized stereo blocks
package source

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/wasmplay/pkg/audio"
)

// Source provides decoded stereo audio
type Source interface {
	// Read decodes up to len(left) frames into left and right (which must
	// have equal length). It returns the number of frames read, and io.EOF
	// once the stream is exhausted.
	Read(left, right []float32) (int, error)
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Format describes the decoded stream
	Format() audio.Format
	// Metadata returns title, artist, album
	Metadata() (title, artist, album string)
	// Close closes the audio source
	Close() error
}

// New creates an audio source from a file path or HTTP URL.
// If pathOrURL is empty, it returns an endless test tone.
func New(pathOrURL string) (Source, error) {
	if pathOrURL == "" {
		return NewToneSource(440, 0), nil
	}

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return NewHTTPSource(http.DefaultClient, pathOrURL)
	}

	if _, err := os.Stat(pathOrURL); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", pathOrURL)
	}

	f, err := os.Open(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	title := titleFromPath(pathOrURL)

	var source Source
	switch ext := strings.ToLower(filepath.Ext(pathOrURL)); ext {
	case ".wav":
		source, err = NewWAVSource(f, title)
	case ".mp3":
		source, err = NewMP3Source(f, title)
	case ".flac":
		source, err = NewFLACSource(f, title)
	default:
		err = fmt.Errorf("unsupported audio format: %s (supported: .wav, .mp3, .flac)", ext)
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	return source, nil
}

// NewHTTPSource fetches audio over HTTP. WAV needs random access, so WAV
// files are downloaded entirely before decoding; MP3 and FLAC stream from
// the response body.
func NewHTTPSource(client *http.Client, url string) (Source, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTTP stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	title := titleFromPath(strings.Split(url, "?")[0])
	kind := strings.ToLower(filepath.Ext(strings.Split(url, "?")[0]))
	if kind == "" {
		kind = extensionForContentType(resp.Header.Get("Content-Type"))
	}

	log.Printf("Streaming %s from HTTP: %s", strings.TrimPrefix(kind, "."), url)

	var source Source
	switch kind {
	case ".wav":
		var data []byte
		data, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to download WAV: %w", err)
		}
		return NewWAVSource(nopCloser{bytes.NewReader(data)}, title)
	case ".flac":
		source, err = NewFLACSource(resp.Body, title)
	default:
		source, err = NewMP3Source(resp.Body, title)
	}
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	return source, nil
}

// ReadBlock reads up to frames frames into a new block. The block is
// shortened to what was read.
func ReadBlock(s Source, frames int) (audio.Block, error) {
	b := audio.NewBlock(frames)
	n, err := s.Read(b.Left, b.Right)
	b.Left = b.Left[:n]
	b.Right = b.Right[:n]
	return b, err
}

func titleFromPath(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func extensionForContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "wav"):
		return ".wav"
	case strings.Contains(contentType, "flac"):
		return ".flac"
	default:
		return ".mp3"
	}
}

// nopCloser adds a no-op Close to an in-memory seekable reader
type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }
