package voice

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

// adsr holds the shared envelope times; every voice reads the same one.
type adsr struct {
	attack, decay, sustain, release float64 // seconds, level for sustain
}

type envelope struct {
	level   float64
	state   envState
	relStep float64
}

func (e *envelope) gate() {
	e.state = envAttack
}

// release starts the release stage from the current level so a note
// lifted mid-attack fades in the same time as one lifted from sustain.
func (e *envelope) release(p *adsr, sampleRate float64) {
	if e.state == envOff || e.state == envRelease {
		return
	}
	e.state = envRelease
	e.relStep = e.level / (p.release * sampleRate)
	if e.relStep <= 0 {
		e.relStep = 1
	}
}

func (e *envelope) advance(p *adsr, sampleRate float64) float64 {
	switch e.state {
	case envAttack:
		step := 1.0 / (p.attack * sampleRate)
		if step <= 0 {
			step = 1
		}
		e.level += step
		if e.level >= 1 {
			e.level = 1
			e.state = envDecay
		}
	case envDecay:
		step := (1 - p.sustain) / (p.decay * sampleRate)
		if step <= 0 {
			step = 1
		}
		e.level -= step
		if e.level <= p.sustain {
			e.level = p.sustain
			e.state = envSustain
		}
	case envSustain:
		e.level = p.sustain
	case envRelease:
		e.level -= e.relStep
		if e.level <= 0.0001 {
			e.level = 0
			e.state = envOff
		}
	case envOff:
		e.level = 0
	}
	return e.level
}

func (e *envelope) done() bool { return e.state == envOff }
