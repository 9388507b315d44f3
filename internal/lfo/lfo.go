package lfo

import (
	"math"
	"math/rand"
)

// Waveform indices as stored in the lfoN.wave parameters.
const (
	WaveSine = iota
	WaveTriangle
	WaveSaw
	WaveSquare
	WaveSampleHold
	NumWaves
)

var WaveNames = [NumWaves]string{"sine", "triangle", "saw", "square", "s&h"}

// LFO is a bipolar low-frequency oscillator shared by every voice of an
// engine. Output is in [-1, 1]; routing intensity scales it downstream.
type LFO struct {
	rateHz   float64
	waveform int
	phase    float64 // [0, 1)
	held     float64
	rng      *rand.Rand
}

// New returns an LFO whose sample-and-hold wave draws from rng. A nil rng
// gets a fixed seed so offline renders are repeatable.
func New(rng *rand.Rand) *LFO {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &LFO{rng: rng, waveform: WaveSine}
}

// Set configures rate and waveform. Unknown waveforms fall back to sine.
func (l *LFO) Set(rateHz float64, waveform int) {
	if rateHz < 0 {
		rateHz = 0
	}
	l.rateHz = rateHz
	if waveform < 0 || waveform >= NumWaves {
		waveform = WaveSine
	}
	l.waveform = waveform
}

// Sample returns the value at the current phase and advances by one sample.
func (l *LFO) Sample(sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}
	var v float64
	switch l.waveform {
	case WaveTriangle:
		if l.phase < 0.5 {
			v = 4*l.phase - 1
		} else {
			v = 3 - 4*l.phase
		}
	case WaveSaw:
		v = 2*l.phase - 1
	case WaveSquare:
		if l.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case WaveSampleHold:
		v = l.held
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}

	prev := l.phase
	l.phase += l.rateHz / sampleRate
	l.phase -= math.Floor(l.phase)
	if l.waveform == WaveSampleHold && l.phase < prev {
		l.held = l.rng.Float64()*2 - 1
	}
	return v
}

// Phase reports the current phase in [0, 1).
func (l *LFO) Phase() float64 { return l.phase }

func (l *LFO) Reset() {
	l.phase = 0
	l.held = 0
}
