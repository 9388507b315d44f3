package effects

import "math"

// Chorus is a modulated short delay. The right channel's LFO runs a
// quarter cycle ahead of the left to widen the image.
type Chorus struct {
	buf      [2][]float32
	pos      int
	base     float64 // centre delay in samples
	depth    float64 // modulation depth in samples
	step     float64 // LFO phase increment per sample, in cycles
	phase    float64
	feedback float32
	wet      float32
}

func NewChorus(sampleRate int, delayMs, depthMs, rateHz float64, feedback, wet float32) *Chorus {
	sr := float64(sampleRate)
	base := math.Max(delayMs*sr/1000, 1)
	depth := math.Min(math.Max(depthMs*sr/1000, 0), base-1)
	size := int(base+depth) + 2
	return &Chorus{
		buf:      [2][]float32{make([]float32, size), make([]float32, size)},
		base:     base,
		depth:    depth,
		step:     math.Max(rateHz, 0) / sr,
		feedback: clamp(feedback, 0, 0.9),
		wet:      clamp(wet, 0, 1),
	}
}

func (c *Chorus) Process(out [][]float32, n int) {
	chans := min(len(out), 2)
	size := len(c.buf[0])
	for i := 0; i < n; i++ {
		for ch := 0; ch < chans; ch++ {
			lfo := math.Sin(2 * math.Pi * (c.phase + 0.25*float64(ch)))
			read := float64(c.pos) - (c.base + c.depth*lfo)
			for read < 0 {
				read += float64(size)
			}
			idx := int(read)
			frac := float32(read - float64(idx))
			next := idx + 1
			if next == size {
				next = 0
			}
			buf := c.buf[ch]
			delayed := buf[idx]*(1-frac) + buf[next]*frac
			x := out[ch][i]
			buf[c.pos] = x + delayed*c.feedback
			out[ch][i] = x*(1-c.wet) + delayed*c.wet
		}
		if c.pos++; c.pos == size {
			c.pos = 0
		}
		if c.phase += c.step; c.phase >= 1 {
			c.phase--
		}
	}
}

func (c *Chorus) Reset() {
	clear(c.buf[0])
	clear(c.buf[1])
	c.pos = 0
	c.phase = 0
}
