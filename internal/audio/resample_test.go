package audio

import (
	"math"
	"testing"
)

func TestResampleIdentity(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3, 0.4}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestResampleLength(t *testing.T) {
	tests := []struct {
		n        int
		from, to float64
		want     int
	}{
		{4800, 48000, 16000, 1600},
		{1024, 44100, 16000, 371},
		{441, 44100, 16000, 160},
		{100, 8000, 16000, 200},
		{0, 48000, 16000, 0},
	}
	for _, tt := range tests {
		got := len(Resample(make([]float32, tt.n), tt.from, tt.to))
		if got != tt.want {
			t.Errorf("Resample(%d, %v->%v) len = %d, want %d", tt.n, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestResampleIntegralRatio(t *testing.T) {
	in := make([]float32, 48)
	for i := range in {
		in[i] = float32(i) / 10
	}
	out := Resample(in, 48000, 16000)
	if len(out) != 16 {
		t.Fatalf("len = %d, want 16", len(out))
	}
	for i, v := range out {
		if v != in[3*i] {
			t.Errorf("out[%d] = %v, want in[%d] = %v", i, v, 3*i, in[3*i])
		}
	}
}

func TestResampleInterpolates(t *testing.T) {
	// Повышение частоты вдвое: нечётные отсчёты лежат посередине.
	out := Resample([]float32{0, 1, 0}, 8000, 16000)
	want := []float32{0, 0.5, 1, 0.5, 0, 0}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestDownmix(t *testing.T) {
	out := Downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	want := []float32{0.5, 0.5, 0}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}

	mono := []float32{0.25, 0.75}
	if got := Downmix(mono, 1); &got[0] != &mono[0] {
		t.Error("mono input should pass through")
	}
}
