// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion, deinterleaving and gain
package audio

import "testing"

func TestSampleToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		bitDepth int
		expected float32
	}{
		{"zero", 0, 16, 0},
		{"16bit half", 16384, 16, 0.5},
		{"16bit min", -32768, 16, -1},
		{"24bit half", 4194304, 24, 0.5},
		{"24bit min", -8388608, 24, -1},
		{"8bit quarter", 32, 8, 0.25},
		{"invalid depth falls back to 16", 16384, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToFloat(tt.input, tt.bitDepth)
			if result != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestDeinterleaveStereo(t *testing.T) {
	b := Deinterleave([]float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}, 2)

	if b.Frames() != 3 {
		t.Fatalf("expected 3 frames, got %d", b.Frames())
	}
	wantLeft := []float32{0.1, 0.2, 0.3}
	wantRight := []float32{-0.1, -0.2, -0.3}
	for i := range wantLeft {
		if b.Left[i] != wantLeft[i] || b.Right[i] != wantRight[i] {
			t.Errorf("frame %d: expected (%f, %f), got (%f, %f)",
				i, wantLeft[i], wantRight[i], b.Left[i], b.Right[i])
		}
	}
}

func TestDeinterleaveMono(t *testing.T) {
	b := Deinterleave([]float32{0.5, 0.25}, 1)

	if b.Frames() != 2 {
		t.Fatalf("expected 2 frames, got %d", b.Frames())
	}
	if b.Left[1] != 0.25 || b.Right[1] != 0.25 {
		t.Errorf("expected mono sample on both channels, got (%f, %f)", b.Left[1], b.Right[1])
	}
}

func TestDeinterleaveDropsExtraChannels(t *testing.T) {
	// 3 channels, 2 frames
	b := Deinterleave([]float32{1, 2, 3, 4, 5, 6}, 3)

	if b.Frames() != 2 {
		t.Fatalf("expected 2 frames, got %d", b.Frames())
	}
	if b.Left[1] != 4 || b.Right[1] != 5 {
		t.Errorf("expected (4, 5), got (%f, %f)", b.Left[1], b.Right[1])
	}
}

func TestGain(t *testing.T) {
	b := Block{
		Left:  []float32{0.5, -0.5},
		Right: []float32{0.25, -0.25},
	}

	Gain(b, 1.5)

	if b.Left[0] != 0.75 || b.Left[1] != -0.75 {
		t.Errorf("unexpected left channel after gain: %v", b.Left)
	}
	if b.Right[0] != 0.375 || b.Right[1] != -0.375 {
		t.Errorf("unexpected right channel after gain: %v", b.Right)
	}
}

func TestBlockDuration(t *testing.T) {
	b := NewBlock(44100)
	if d := b.Duration(44100); d != 1.0 {
		t.Errorf("expected 1.0s, got %f", d)
	}
	if d := NewBlock(0).Duration(44100); d != 0 {
		t.Errorf("expected 0s for empty block, got %f", d)
	}
}
