package effects

import "math"

// Distortion is tanh soft clipping between a drive and an output gain,
// followed by a one-pole tone filter. A zero tone leaves it unfiltered.
type Distortion struct {
	drive float64
	level float32
	alpha float32
	lp    [2]float32
}

func NewDistortion(sampleRate int, drive, level, toneHz float64) *Distortion {
	d := &Distortion{drive: math.Max(drive, 0), level: float32(level)}
	if toneHz > 0 && toneHz < float64(sampleRate)/2 {
		rc := 1 / (2 * math.Pi * toneHz)
		dt := 1 / float64(sampleRate)
		d.alpha = float32(dt / (rc + dt))
	}
	return d
}

func (d *Distortion) Process(out [][]float32, n int) {
	for ch := 0; ch < min(len(out), 2); ch++ {
		lp := &d.lp[ch]
		for i := 0; i < n; i++ {
			y := float32(math.Tanh(float64(out[ch][i])*d.drive)) * d.level
			if d.alpha > 0 {
				*lp += d.alpha * (y - *lp)
				y = *lp
			}
			out[ch][i] = y
		}
	}
}

func (d *Distortion) Reset() { d.lp = [2]float32{} }
