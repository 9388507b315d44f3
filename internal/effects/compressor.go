package effects

import "math"

// Compressor is a feed-forward compressor with a stereo-linked peak
// detector, so both channels always get the same gain.
type Compressor struct {
	threshold float64 // linear
	slope     float64 // 1/ratio - 1
	attack    float64 // one-pole coefficients
	release   float64
	makeup    float32
	env       float64
}

func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float64) *Compressor {
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: dbToGain(thresholdDB),
		slope:     1/ratio - 1,
		attack:    onePole(attackMs, sampleRate),
		release:   onePole(releaseMs, sampleRate),
		makeup:    float32(dbToGain(makeupDB)),
	}
}

func (c *Compressor) Process(out [][]float32, n int) {
	for i := 0; i < n; i++ {
		var level float64
		for ch := range out {
			level = math.Max(level, math.Abs(float64(out[ch][i])))
		}
		if level > c.env {
			c.env += c.attack * (level - c.env)
		} else {
			c.env += c.release * (level - c.env)
		}
		g := c.makeup * float32(c.gain())
		for ch := range out {
			out[ch][i] *= g
		}
	}
}

// gain is the reduction for the current envelope; 1 below threshold.
func (c *Compressor) gain() float64 {
	if c.env <= c.threshold {
		return 1
	}
	return math.Pow(c.env/c.threshold, c.slope)
}

func (c *Compressor) Reset() { c.env = 0 }

func dbToGain(db float64) float64 { return math.Pow(10, db/20) }

func onePole(ms float64, sampleRate int) float64 {
	samples := ms * float64(sampleRate) / 1000
	if samples <= 1 {
		return 1
	}
	return 1 - math.Exp(-1/samples)
}
