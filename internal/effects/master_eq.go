package effects

import (
	"math"
	"sync/atomic"
)

const NumBands = 5

var (
	BandNames = [NumBands]string{"low", "low_mid", "mid", "high_mid", "high"}
	// crossover frequencies between adjacent bands, in Hz
	crossovers = [NumBands - 1]float64{200, 800, 2500, 8000}
)

// MasterEQ splits the signal with cascaded one-pole crossovers and sums
// the bands back with per-band gain. Gains are float32 bits so another
// goroutine may change them while the audio thread reads.
type MasterEQ struct {
	gains  [NumBands]atomic.Uint32
	alphas [NumBands - 1]float32
	state  [][NumBands - 1]float32
}

func NewMasterEQ(sampleRate int) *MasterEQ {
	eq := &MasterEQ{}
	dt := 1 / float64(sampleRate)
	for i, f := range crossovers {
		rc := 1 / (2 * math.Pi * f)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1))
	}
	return eq
}

// SetGain sets a band's linear gain; 1 is unity. Out-of-range bands are ignored.
func (eq *MasterEQ) SetGain(band int, gain float32) {
	if band < 0 || band >= NumBands {
		return
	}
	if gain < 0 {
		gain = 0
	}
	eq.gains[band].Store(math.Float32bits(gain))
}

func (eq *MasterEQ) Gain(band int) float32 {
	if band < 0 || band >= NumBands {
		return 1
	}
	return math.Float32frombits(eq.gains[band].Load())
}

func (eq *MasterEQ) Process(out [][]float32, n int) {
	if len(eq.state) != len(out) {
		// first call or a channel count change; this allocates once
		eq.state = make([][NumBands - 1]float32, len(out))
	}
	var g [NumBands]float32
	for b := range g {
		g[b] = math.Float32frombits(eq.gains[b].Load())
	}
	for ch := range out {
		st := &eq.state[ch]
		buf := out[ch]
		for i := 0; i < n; i++ {
			rest := buf[i]
			var sum float32
			for b := 0; b < NumBands-1; b++ {
				st[b] += eq.alphas[b] * (rest - st[b])
				sum += st[b] * g[b]
				rest -= st[b]
			}
			buf[i] = sum + rest*g[NumBands-1]
		}
	}
}

func (eq *MasterEQ) Reset() {
	for ch := range eq.state {
		eq.state[ch] = [NumBands - 1]float32{}
	}
}
