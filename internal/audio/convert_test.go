package audio

import (
	"math"
	"testing"
)

func TestResample_SameRateIdentity(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	output := Resample(input, 16000, 16000)
	if len(output) != len(input) {
		t.Fatalf("expected same length %d, got %d", len(input), len(output))
	}
	for i := range input {
		if output[i] != input[i] {
			t.Errorf("sample %d: expected %f, got %f", i, input[i], output[i])
		}
	}
}

func TestResample_OutputLength(t *testing.T) {
	tests := []struct {
		name     string
		inLen    int
		from, to int
		want     int
	}{
		{"48k to 16k block", 4096, 48000, 16000, 1365},
		{"16k to 24k", 160, 16000, 24000, 240},
		{"8k to 16k", 2, 8000, 16000, 4},
		{"20k to 10k", 5, 20000, 10000, 3},
		{"44.1k to 16k", 4410, 44100, 16000, 1600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := make([]float32, tt.inLen)
			output := Resample(input, tt.from, tt.to)
			if len(output) != tt.want {
				t.Errorf("expected length %d, got %d", tt.want, len(output))
			}
		})
	}
}

func TestResample_Upsample(t *testing.T) {
	input := []float32{0.0, 1.0}
	output := Resample(input, 8000, 16000)
	if len(output) != 4 {
		t.Fatalf("expected length 4, got %d", len(output))
	}
	if output[0] != 0.0 {
		t.Errorf("first sample should be 0, got %f", output[0])
	}
	if math.Abs(float64(output[1]-0.5)) > 0.001 {
		t.Errorf("interpolated sample should be ~0.5, got %f", output[1])
	}
}

func TestResample_LastSampleNoExtrapolation(t *testing.T) {
	input := []float32{0.0, 0.5, 1.0}
	output := Resample(input, 16000, 24000)
	last := output[len(output)-1]
	if last != 1.0 {
		t.Errorf("last sample should equal last input exactly, got %f", last)
	}
}

func TestResample_EmptyInput(t *testing.T) {
	output := Resample([]float32{}, 16000, 8000)
	if len(output) != 0 {
		t.Errorf("expected empty output, got length %d", len(output))
	}
}

func TestQuantize_RoundTrip(t *testing.T) {
	inputs := []float32{0.0, 1.0, -1.0, 0.5, -0.5, 0.123, -0.987, 0.333}
	encoded := Float32ToInt16(inputs)
	decoded := Int16ToFloat32(encoded)
	for i, x := range inputs {
		diff := math.Abs(float64(decoded[i] - x))
		if diff > 1.0/32767.0 {
			t.Errorf("sample %d: round trip error %f exceeds 1/32767", i, diff)
		}
	}
}

func TestFloat32ToInt16_Clipping(t *testing.T) {
	samples := []float32{2.0, -2.0, 1.0, -1.0}
	result := Float32ToInt16(samples)
	if result[0] != 32767 {
		t.Errorf("sample 0: should clip to 32767, got %d", result[0])
	}
	if result[1] != -32767 {
		t.Errorf("sample 1: should clip to -32767, got %d", result[1])
	}
	if result[2] != 32767 {
		t.Errorf("sample 2: expected 32767, got %d", result[2])
	}
	if result[3] != -32767 {
		t.Errorf("sample 3: expected -32767, got %d", result[3])
	}
}

func TestPCMBytes_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345, -12345}
	pcm := Int16ToPCMBytes(samples)
	if len(pcm) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(pcm))
	}
	back := PCMBytesToInt16(pcm)
	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, samples[i], back[i])
		}
	}
}

func TestPCMBytesToInt16_OddBytes(t *testing.T) {
	samples := PCMBytesToInt16([]byte{0x00, 0x00, 0xFF})
	if len(samples) != 1 {
		t.Errorf("expected 1 sample for 3 bytes, got %d", len(samples))
	}
}
