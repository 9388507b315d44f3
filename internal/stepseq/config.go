// Package stepseq turns the flat step-sequencer parameters into the
// runtime configuration the voice engine plays from.
package stepseq

import (
	"math"

	"github.com/cbegin/seqsynth-go/internal/param"
)

const NumSteps = param.NumSteps

type Direction int

const (
	Forward Direction = iota
	Backward
	PingPong
)

var directionNames = []string{"Forward", "Backward", "PingPong"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return "Direction(?)"
	}
	return directionNames[d]
}

// StepKind is shared by every lane at the same step index.
type StepKind int

const (
	Note StepKind = iota
	Rest
)

// LoopWindow is the inclusive, 1-based step range a lane cycles through.
// Configure guarantees 1 <= Start <= End <= NumSteps.
type LoopWindow struct {
	Start     int
	End       int
	Direction Direction
}

func (w LoopWindow) Len() int { return w.End - w.Start + 1 }

// Contains reports whether the 1-based step lies inside the window.
func (w LoopWindow) Contains(step int) bool { return step >= w.Start && step <= w.End }

// Lane is a value lane (wave, pitch or step-mod). Prob holds the chance in
// [0,100] that a step's value replaces the held one.
type Lane struct {
	Values    [NumSteps]float64
	Prob      [NumSteps]float64
	Window    LoopWindow
	Randomize bool
}

// TimingLane carries note-length indices into NoteLengths.
type TimingLane struct {
	NoteLen   [NumSteps]int
	XfadeLen  [NumSteps]int
	Window    LoopWindow
	Randomize bool
}

type Config struct {
	Enabled     bool
	Timing      TimingLane
	Wave        Lane
	Pitch       Lane
	Mod         Lane
	Kind        [NumSteps]StepKind
	Interpolate bool
	TimeStretch int
	Solo        int
}

// Configure rebuilds c from snap in place. Every field is overwritten.
func Configure(snap *param.Snapshot, c *Config) {
	c.Enabled = snap.Bool(param.SeqEnabled)
	c.Interpolate = snap.Bool(param.SeqInterpolate)
	c.TimeStretch = clampInt(snap.Int(param.SeqTimeStretch), -4, 4)
	c.Solo = clampInt(snap.Int(param.SeqSolo), 0, NumSteps)

	for st := 0; st < NumSteps; st++ {
		c.Timing.NoteLen[st] = clampInt(snap.Int(param.StepNoteLen(st)), 0, len(NoteLengths)-1)
		c.Timing.XfadeLen[st] = clampInt(snap.Int(param.StepXfadeLen(st)), 0, len(NoteLengths)-1)

		c.Wave.Values[st] = snap.Float(param.StepWave(st))
		c.Wave.Prob[st] = 100

		c.Pitch.Values[st] = snap.Float(param.StepPitch(st))
		c.Pitch.Prob[st] = clampFloat(snap.Float(param.StepPitchProb(st)), 0, 100)

		c.Mod.Values[st] = snap.Float(param.StepMod(st))
		c.Mod.Prob[st] = clampFloat(snap.Float(param.StepModProb(st)), 0, 100)

		if snap.Int(param.StepKind(st)) == int(Rest) {
			c.Kind[st] = Rest
		} else {
			c.Kind[st] = Note
		}
	}

	c.Timing.Window, c.Timing.Randomize = laneWindow(snap, param.LaneTiming)
	c.Wave.Window, c.Wave.Randomize = laneWindow(snap, param.LaneWave)
	c.Pitch.Window, c.Pitch.Randomize = laneWindow(snap, param.LanePitch)
	c.Mod.Window, c.Mod.Randomize = laneWindow(snap, param.LaneMod)
}

func laneWindow(snap *param.Snapshot, lane int) (LoopWindow, bool) {
	start := clampInt(snap.Int(param.LoopStart(lane)), 1, NumSteps)
	end := clampInt(snap.Int(param.LoopEnd(lane)), 1, NumSteps)
	if end < start {
		end = start
	}
	dir := Direction(clampInt(snap.Int(param.LoopDirection(lane)), int(Forward), int(PingPong)))
	return LoopWindow{Start: start, End: end, Direction: dir}, snap.Bool(param.LaneRandomize(lane))
}

// Window returns the loop window of a lane by its param lane index.
func (c *Config) Window(lane int) LoopWindow {
	switch lane {
	case param.LaneTiming:
		return c.Timing.Window
	case param.LaneWave:
		return c.Wave.Window
	case param.LanePitch:
		return c.Pitch.Window
	default:
		return c.Mod.Window
	}
}

// Stretch is the multiplier the time-stretch exponent applies to every
// note-length-derived duration.
func (c *Config) Stretch() float64 {
	return math.Exp2(float64(c.TimeStretch))
}

// StepSeconds is the effective duration of a timing step at tempo.
func (c *Config) StepSeconds(step int, tempo float64) float64 {
	return NoteSeconds(c.Timing.NoteLen[step], tempo) * c.Stretch()
}

// XfadeSeconds is the effective crossfade length of a timing step at tempo.
func (c *Config) XfadeSeconds(step int, tempo float64) float64 {
	return NoteSeconds(c.Timing.XfadeLen[step], tempo) * c.Stretch()
}

// SoloWave returns the wave index that overrides every voice's wave
// selection while solo is engaged.
func (c *Config) SoloWave() (int, bool) {
	if c.Solo <= 0 {
		return 0, false
	}
	return int(math.Round(c.Wave.Values[c.Solo-1])), true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
