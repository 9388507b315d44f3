package voice

import "math"

// svf is a trapezoidal state-variable lowpass, one per voice.
type svf struct {
	ic1, ic2 float64
}

func (f *svf) lowpass(x, cutoff, resonance, sampleRate float64) float64 {
	cutoff = clamp(cutoff, 20, sampleRate*0.45)
	g := math.Tan(math.Pi * cutoff / sampleRate)
	k := 2 - 2*clamp(resonance, 0, 0.98)
	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2
	v3 := x - f.ic2
	v1 := a1*f.ic1 + a2*v3
	v2 := f.ic2 + a2*f.ic1 + a3*v3
	f.ic1 = 2*v1 - f.ic1
	f.ic2 = 2*v2 - f.ic2
	return v2
}
