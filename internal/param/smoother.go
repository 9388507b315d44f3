package param

import "math"

// smoothedIDs are the parameters whose jumps are audible as zipper noise.
var smoothedIDs = [...]ID{MasterGain, Cutoff, Resonance}

// Smoother glides a few continuous parameters toward their store value one
// sample at a time. The smoothed values replace the raw ones in the
// snapshot taken at the end of each block.
type Smoother struct {
	coeff   float64
	primed  bool
	current [len(smoothedIDs)]float64
	target  [len(smoothedIDs)]float64
}

// NewSmoother returns a one-pole smoother with the given time constant.
func NewSmoother(sampleRate float64, timeSec float64) Smoother {
	coeff := 1.0
	if sampleRate > 0 && timeSec > 0 {
		coeff = 1 - math.Exp(-1/(timeSec*sampleRate))
	}
	return Smoother{coeff: coeff}
}

// Retarget reads fresh targets from the store. The first call jumps
// straight to the targets so a new instrument does not fade in.
func (s *Smoother) Retarget(store *Store) {
	for i, id := range smoothedIDs {
		s.target[i] = store.Get(id)
	}
	if !s.primed {
		s.current = s.target
		s.primed = true
	}
}

// Tick advances every smoothed value by one sample.
func (s *Smoother) Tick() {
	for i := range s.current {
		s.current[i] += (s.target[i] - s.current[i]) * s.coeff
	}
}

// Apply writes the smoothed values into snap.
func (s *Smoother) Apply(snap *Snapshot) {
	if !s.primed {
		return
	}
	for i, id := range smoothedIDs {
		snap.values[id] = s.current[i]
	}
}

// Value returns the current smoothed value of id, or false if id is not smoothed.
func (s *Smoother) Value(id ID) (float64, bool) {
	for i, sid := range smoothedIDs {
		if sid == id {
			return s.current[i], true
		}
	}
	return 0, false
}
