package effects

// Delay is a stereo feedback delay. Cross routes part of each channel's
// feedback into the other one.
type Delay struct {
	buf      [2][]float32
	pos      int
	feedback float32
	cross    float32
	wet      float32
}

func NewDelay(sampleRate int, timeMs float64, feedback, cross, wet float32) *Delay {
	n := int(timeMs * float64(sampleRate) / 1000)
	if n < 1 {
		n = 1
	}
	return &Delay{
		buf:      [2][]float32{make([]float32, n), make([]float32, n)},
		feedback: clamp(feedback, 0, 0.95),
		cross:    clamp(cross, 0, 1),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) Process(out [][]float32, n int) {
	if len(out) == 0 {
		return
	}
	left, right := out[0], out[len(out)-1]
	mono := len(out) == 1
	for i := 0; i < n; i++ {
		dl, dr := d.buf[0][d.pos], d.buf[1][d.pos]
		straight, crossed := d.feedback*(1-d.cross), d.feedback*d.cross
		d.buf[0][d.pos] = left[i] + dl*straight + dr*crossed
		d.buf[1][d.pos] = right[i] + dr*straight + dl*crossed
		if d.pos++; d.pos == len(d.buf[0]) {
			d.pos = 0
		}
		left[i] = left[i]*(1-d.wet) + dl*d.wet
		if !mono {
			right[i] = right[i]*(1-d.wet) + dr*d.wet
		}
	}
}

func (d *Delay) Reset() {
	clear(d.buf[0])
	clear(d.buf[1])
	d.pos = 0
}
