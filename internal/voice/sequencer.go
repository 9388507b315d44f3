package voice

import (
	"math/rand"

	"github.com/cbegin/seqsynth-go/internal/param"
	"github.com/cbegin/seqsynth-go/internal/scheduler"
	"github.com/cbegin/seqsynth-go/internal/stepseq"
)

// laneState is the value a lane currently outputs plus the glide toward
// its latest target.
type laneState struct {
	from, target, value float64
	glide, glideLen     float64
}

func (l *laneState) set(v float64, glideSamples float64) {
	l.from = l.value
	l.target = v
	l.glide = 0
	l.glideLen = glideSamples
	if glideSamples <= 1 {
		l.value = v
		l.glideLen = 0
	}
}

func (l *laneState) tick() {
	if l.glideLen <= 0 {
		return
	}
	l.glide++
	if l.glide >= l.glideLen {
		l.value = l.target
		l.glideLen = 0
		return
	}
	l.value = l.from + (l.target-l.from)*l.glide/l.glideLen
}

// seqRuntime plays a stepseq.Config. Positions live here, never in the
// configuration, so a rebuilt configuration keeps the sequence running.
type seqRuntime struct {
	running bool
	cursors [param.NumLanes]stepseq.Cursor
	remain  float64 // samples left in the current timing step
	wave    laneState
	pitch   laneState
	mod     laneState
	rng     *rand.Rand
}

func (s *seqRuntime) reset() {
	s.running = false
	s.cursors = [param.NumLanes]stepseq.Cursor{}
	s.remain = 0
	s.wave, s.pitch, s.mod = laneState{}, laneState{}, laneState{}
}

// tick advances the runtime by one sample. A disabled sequencer stops and
// releases its lane outputs.
func (s *seqRuntime) tick(c *stepseq.Config, tempo, sampleRate float64) {
	if !c.Enabled {
		if s.running {
			s.reset()
		}
		return
	}
	if !s.running {
		s.running = true
		s.wave.value = -1
		s.step(c, tempo, sampleRate)
	} else {
		s.remain--
		if s.remain <= 0 {
			s.step(c, tempo, sampleRate)
		}
	}
	s.pitch.tick()
	s.mod.tick()
}

func (s *seqRuntime) step(c *stepseq.Config, tempo, sampleRate float64) {
	ts := s.cursors[param.LaneTiming].Advance(c.Timing.Window, c.Timing.Randomize, s.rng)
	s.remain += c.StepSeconds(ts, tempo) * sampleRate
	if s.remain < 1 {
		s.remain = 1
	}
	glide := 0.0
	if c.Interpolate {
		glide = c.XfadeSeconds(ts, tempo) * sampleRate
		if glide > s.remain {
			glide = s.remain
		}
	}

	ws := s.cursors[param.LaneWave].Advance(c.Wave.Window, c.Wave.Randomize, s.rng)
	if c.Kind[ws] == stepseq.Note {
		s.wave.set(c.Wave.Values[ws], 0)
	}
	ps := s.cursors[param.LanePitch].Advance(c.Pitch.Window, c.Pitch.Randomize, s.rng)
	if s.gate(c, ps, c.Pitch.Prob[ps]) {
		s.pitch.set(c.Pitch.Values[ps], glide)
	}
	ms := s.cursors[param.LaneMod].Advance(c.Mod.Window, c.Mod.Randomize, s.rng)
	if s.gate(c, ms, c.Mod.Prob[ms]) {
		s.mod.set(c.Mod.Values[ms], glide)
	}
}

// gate reports whether a step replaces the held lane value. Rest steps
// and failed probability rolls keep the previous value.
func (s *seqRuntime) gate(c *stepseq.Config, step int, prob float64) bool {
	if c.Kind[step] == stepseq.Rest {
		return false
	}
	if prob >= 100 {
		return true
	}
	return s.rng.Float64()*100 < prob
}

// waveIndex is the wave lane's current selection, or -1 before any note step.
func (s *seqRuntime) waveIndex() int {
	if !s.running || s.wave.value < 0 {
		return -1
	}
	return int(s.wave.value + 0.5)
}

func (s *seqRuntime) meters(c *stepseq.Config, tempo float64, m *scheduler.Meters) {
	*m = scheduler.Meters{}
	if !s.running {
		return
	}
	ts := s.cursors[param.LaneTiming].Step()
	m[param.LaneTiming][ts] = c.StepSeconds(ts, tempo)
	if w := s.waveIndex(); w >= 0 {
		m[param.LaneWave][s.cursors[param.LaneWave].Step()] = float64(w)
	}
	m[param.LanePitch][s.cursors[param.LanePitch].Step()] = s.pitch.value
	m[param.LaneMod][s.cursors[param.LaneMod].Step()] = s.mod.value
}
