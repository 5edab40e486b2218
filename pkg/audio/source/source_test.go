// ABOUTME: Tests for audio sources
// ABOUTME: Tests WAV decoding, HTTP fetching, test tones and resampling
package source

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV writes 16-bit interleaved samples to a WAV file
func writeWAV(t *testing.T, path string, sampleRate, channels int, samples []int) {
	t.Helper()
	writeWAVDepth(t, path, sampleRate, 16, channels, samples)
}

func writeWAVDepth(t *testing.T, path string, sampleRate, bitDepth, channels int, samples []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close wav encoder: %v", err)
	}
}

func TestWAVSourceStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, 44100, 2, []int{16384, -16384, 32767, -32768, 0, 8192})

	src, err := New(path)
	if err != nil {
		t.Fatalf("failed to open wav: %v", err)
	}
	defer src.Close()

	format := src.Format()
	if format.Codec != "wav" || format.SampleRate != 44100 || format.Channels != 2 || format.BitDepth != 16 {
		t.Errorf("unexpected format: %+v", format)
	}

	title, _, _ := src.Metadata()
	if title != "stereo" {
		t.Errorf("expected title 'stereo', got %q", title)
	}

	block, err := ReadBlock(src, 16)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if block.Frames() != 3 {
		t.Fatalf("expected 3 frames, got %d", block.Frames())
	}

	wantL := []float32{0.5, 32767.0 / 32768.0, 0}
	wantR := []float32{-0.5, -1, 0.25}
	for i := range wantL {
		if block.Left[i] != wantL[i] {
			t.Errorf("left[%d]: expected %f, got %f", i, wantL[i], block.Left[i])
		}
		if block.Right[i] != wantR[i] {
			t.Errorf("right[%d]: expected %f, got %f", i, wantR[i], block.Right[i])
		}
	}

	if _, err := ReadBlock(src, 16); err != io.EOF {
		t.Errorf("expected io.EOF at end of file, got %v", err)
	}
}

func TestWAVSourceMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	writeWAV(t, path, 22050, 1, []int{16384, -8192})

	src, err := New(path)
	if err != nil {
		t.Fatalf("failed to open wav: %v", err)
	}
	defer src.Close()

	block, err := ReadBlock(src, 4)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if block.Frames() != 2 {
		t.Fatalf("expected 2 frames, got %d", block.Frames())
	}
	for i, want := range []float32{0.5, -0.25} {
		if block.Left[i] != want || block.Right[i] != want {
			t.Errorf("frame %d: expected %f on both sides, got (%f, %f)", i, want, block.Left[i], block.Right[i])
		}
	}
}

func TestInvalidWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(path); err == nil {
		t.Fatal("expected error for invalid wav")
	}
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got: %v", err)
	}
}

func TestNewUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.ogg")
	if err := os.WriteFile(path, []byte("OggS"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(path)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported format error, got: %v", err)
	}
}

func TestNewEmptyPathIsTone(t *testing.T) {
	src, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := src.(*ToneSource); !ok {
		t.Errorf("expected *ToneSource, got %T", src)
	}
}

func TestWAVSourceUnsigned8Bit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eight.wav")
	// 8-bit WAV stores unsigned samples centred on 128
	writeWAVDepth(t, path, 44100, 8, 2, []int{128, 128, 255, 0, 192, 64})

	src, err := New(path)
	if err != nil {
		t.Fatalf("failed to open wav: %v", err)
	}
	defer src.Close()

	if bits := src.Format().BitDepth; bits != 8 {
		t.Fatalf("expected 8-bit format, got %d", bits)
	}

	left := make([]float32, 8)
	right := make([]float32, 8)
	n, err := src.Read(left, right)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 frames, got %d", n)
	}

	wantLeft := []float32{0, 127.0 / 128.0, 0.5}
	wantRight := []float32{0, -1, -0.5}
	for i := 0; i < n; i++ {
		if left[i] != wantLeft[i] || right[i] != wantRight[i] {
			t.Errorf("frame %d: expected (%f, %f), got (%f, %f)",
				i, wantLeft[i], wantRight[i], left[i], right[i])
		}
	}
}

func TestHTTPSourceWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remote.wav")
	writeWAV(t, path, 44100, 2, []int{16384, -16384})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(data)
	}))
	defer server.Close()

	// No extension in the URL, so the content type decides
	src, err := NewHTTPSource(server.Client(), server.URL+"/stream")
	if err != nil {
		t.Fatalf("failed to open http source: %v", err)
	}
	defer src.Close()

	if src.Format().Codec != "wav" {
		t.Errorf("expected wav codec, got %s", src.Format().Codec)
	}

	block, err := ReadBlock(src, 8)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if block.Frames() != 1 || block.Left[0] != 0.5 || block.Right[0] != -0.5 {
		t.Errorf("unexpected block: %+v", block)
	}
}

func TestHTTPSourceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.Client(), server.URL+"/test.wav")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected error to mention 404, got: %v", err)
	}
}

func TestExtensionForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		expected    string
	}{
		{"audio/wav", ".wav"},
		{"audio/x-wav", ".wav"},
		{"audio/flac", ".flac"},
		{"audio/mpeg", ".mp3"},
		{"", ".mp3"},
	}

	for _, tt := range tests {
		if got := extensionForContentType(tt.contentType); got != tt.expected {
			t.Errorf("extensionForContentType(%q) = %q, expected %q", tt.contentType, got, tt.expected)
		}
	}
}

func TestToneSource(t *testing.T) {
	src := NewToneSource(440, 0)

	block, err := ReadBlock(src, 1000)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if block.Frames() != 1000 {
		t.Fatalf("expected 1000 frames, got %d", block.Frames())
	}

	if block.Left[0] != 0 {
		t.Errorf("expected tone to start at zero, got %f", block.Left[0])
	}
	for i := range block.Left {
		if block.Left[i] != block.Right[i] {
			t.Fatalf("frame %d: channels differ", i)
		}
		if math.Abs(float64(block.Left[i])) > 0.5 {
			t.Fatalf("frame %d: sample %f exceeds 50%% amplitude", i, block.Left[i])
		}
	}

	// Phase continues across reads
	next, _ := ReadBlock(src, 1)
	want := float32(math.Sin(2*math.Pi*440*1000.0/44100.0) * 0.5)
	if next.Left[0] != want {
		t.Errorf("expected continued phase %f, got %f", want, next.Left[0])
	}
}

func TestToneSourceLimit(t *testing.T) {
	src := NewToneSource(440, 150)

	total := 0
	for {
		block, err := ReadBlock(src, 64)
		total += block.Frames()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
	}

	if total != 150 {
		t.Errorf("expected 150 frames, got %d", total)
	}
}

func TestResampledSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.wav")
	samples := make([]int, 2*22050)
	writeWAV(t, path, 22050, 2, samples)

	inner, err := New(path)
	if err != nil {
		t.Fatalf("failed to open wav: %v", err)
	}

	src := NewResampled(inner, 44100)
	defer src.Close()

	if src.SampleRate() != 44100 {
		t.Errorf("expected 44100 Hz, got %d", src.SampleRate())
	}

	total := 0
	for {
		block, err := ReadBlock(src, 4096)
		total += block.Frames()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if block.Frames() != 4096 && total < 44000 {
			t.Fatalf("short block %d before end of stream", block.Frames())
		}
	}

	// One second at 22050 becomes exactly one second at 44100, including
	// the frame held back for interpolation
	if total != 44100 {
		t.Errorf("expected 44100 frames, got %d", total)
	}
}

func TestResampledSourcePassthrough(t *testing.T) {
	tone := NewToneSource(440, 10)
	if src := NewResampled(tone, 44100); src != Source(tone) {
		t.Error("expected matching rate to return the source unchanged")
	}
}
