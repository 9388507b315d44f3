package effects

// Reverb is a Schroeder reverb: four parallel combs into two allpasses on
// a mono sum, mixed back into every channel.
type Reverb struct {
	combs   [4]ring
	allpass [2]ring
	wet     float32
}

type ring struct {
	buf []float32
	pos int
	fb  float32
}

func newRing(n int, fb float32) ring {
	if n < 1 {
		n = 1
	}
	return ring{buf: make([]float32, n), fb: fb}
}

func (r *ring) comb(in float32) float32 {
	out := r.buf[r.pos]
	r.buf[r.pos] = in + out*r.fb
	r.advance()
	return out
}

func (r *ring) allpassStep(in float32) float32 {
	held := r.buf[r.pos]
	r.buf[r.pos] = in + held*r.fb
	r.advance()
	return held - in
}

func (r *ring) advance() {
	if r.pos++; r.pos == len(r.buf) {
		r.pos = 0
	}
}

func (r *ring) reset() {
	clear(r.buf)
	r.pos = 0
}

// Comb lengths use non-harmonic ratios of the room base length.
var (
	combRatios    = [4]int{1000, 1117, 1271, 1437}
	allpassRatios = [2]int{347, 213}
)

func NewReverb(sampleRate int, room, feedback, wet float32) *Reverb {
	base := int(float32(sampleRate) * clamp(room, 0, 1) * 0.05)
	if base < 10 {
		base = 10
	}
	r := &Reverb{wet: clamp(wet, 0, 1)}
	fb := clamp(feedback, 0, 0.95)
	for i := range r.combs {
		r.combs[i] = newRing(base*combRatios[i]/1000, fb)
	}
	for i := range r.allpass {
		r.allpass[i] = newRing(base*allpassRatios[i]/1000, 0.5)
	}
	return r
}

func (r *Reverb) Process(out [][]float32, n int) {
	if len(out) == 0 {
		return
	}
	for i := 0; i < n; i++ {
		var mono float32
		for ch := range out {
			mono += out[ch][i]
		}
		mono /= float32(len(out))
		var tail float32
		for c := range r.combs {
			tail += r.combs[c].comb(mono)
		}
		tail *= 0.25
		for a := range r.allpass {
			tail = r.allpass[a].allpassStep(tail)
		}
		for ch := range out {
			out[ch][i] = out[ch][i]*(1-r.wet) + tail*r.wet
		}
	}
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		r.combs[i].reset()
	}
	for i := range r.allpass {
		r.allpass[i].reset()
	}
}
