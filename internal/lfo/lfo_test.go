package lfo

import (
	"math"
	"math/rand"
	"testing"
)

func TestTriangleShape(t *testing.T) {
	l := New(nil)
	l.Set(1, WaveTriangle)
	sr := 100.0
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = l.Sample(sr)
	}
	for _, tc := range []struct {
		idx  int
		want float64
	}{{0, -1}, {25, 0}, {50, 1}, {75, 0}} {
		if math.Abs(samples[tc.idx]-tc.want) > 0.05 {
			t.Fatalf("triangle[%d] = %f, want %f", tc.idx, samples[tc.idx], tc.want)
		}
	}
}

func TestSineStartsAtZeroAndPeaksAtQuarter(t *testing.T) {
	l := New(nil)
	l.Set(1, WaveSine)
	var peak float64
	for i := 0; i < 100; i++ {
		v := l.Sample(100)
		if i == 0 && v != 0 {
			t.Fatalf("sine at phase 0 = %f", v)
		}
		if i == 25 {
			peak = v
		}
	}
	if math.Abs(peak-1) > 1e-9 {
		t.Fatalf("sine at quarter = %f, want 1", peak)
	}
}

func TestSquareAndSaw(t *testing.T) {
	sq := New(nil)
	sq.Set(1, WaveSquare)
	saw := New(nil)
	saw.Set(1, WaveSaw)
	for i := 0; i < 128; i++ {
		v := sq.Sample(128)
		want := 1.0
		if i >= 64 {
			want = -1
		}
		if v != want {
			t.Fatalf("square[%d] = %f, want %f", i, v, want)
		}
		s := saw.Sample(128)
		if math.Abs(s-(2*float64(i)/128-1)) > 1e-9 {
			t.Fatalf("saw[%d] = %f", i, s)
		}
	}
}

func TestSampleHoldChangesOnlyAtCycleBoundary(t *testing.T) {
	l := New(rand.New(rand.NewSource(3)))
	l.Set(8, WaveSampleHold)
	sr := 1024.0
	prev := l.Sample(sr)
	changes := 0
	for i := 1; i < 1000; i++ {
		v := l.Sample(sr)
		if v < -1 || v > 1 {
			t.Fatalf("s&h value %f outside [-1, 1]", v)
		}
		if v != prev {
			changes++
			if i%128 != 0 {
				t.Fatalf("held value changed mid-cycle at sample %d", i)
			}
		}
		prev = v
	}
	if changes == 0 {
		t.Fatalf("held value never changed")
	}
}

func TestZeroRateHoldsPhase(t *testing.T) {
	l := New(nil)
	l.Set(0, WaveTriangle)
	for i := 0; i < 10; i++ {
		if v := l.Sample(44100); v != -1 {
			t.Fatalf("zero-rate triangle = %f", v)
		}
	}
	if l.Phase() != 0 {
		t.Fatalf("phase moved to %f", l.Phase())
	}
}

func TestUnknownWaveFallsBackToSine(t *testing.T) {
	l := New(nil)
	l.Set(1, 42)
	if l.waveform != WaveSine {
		t.Fatalf("waveform = %d", l.waveform)
	}
}
