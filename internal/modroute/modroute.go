// Package modroute rebuilds the source×destination modulation table from
// flat parameter values once per block.
package modroute

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/cbegin/seqsynth-go/internal/param"
)

type Source int

const (
	LFO1 Source = iota
	LFO2
	ModEnv
	StepMod
	Velocity
	ModWheel
)

const NumSources = param.NumModSources

type Destination int

const (
	Osc1Pitch Destination = iota
	Osc2Pitch
	Osc3Pitch
	Osc1Wave
	Osc2Wave
	Osc3Wave
	Osc1Level
	Osc2Level
	Osc3Level
	FMAmount
	Cutoff
	CutoffEnv
	Resonance
	Amp
	AmpEnv
	Pan
	LFO1Rate
	LFO2Rate
	Noise
	Detune
	NumDestinations
)

// Toggle groups: one UI enable per source for each group.
const (
	GroupOscPitch = iota
	GroupOscWave
	GroupOscLevel
	GroupFM
	GroupCutoff
	GroupCutoffEnv
	GroupResonance
	GroupAmp
	GroupAmpEnv
	GroupPan
	GroupLFORate
	GroupNoise
	GroupDetune
)

// Intensity groups: one knob per source shared by every destination that
// models the same physical target.
const (
	AmountPitch = iota
	AmountWave
	AmountLevel
	AmountFM
	AmountFilter
	AmountResonance
	AmountAmp
	AmountPan
	AmountLFORate
	AmountNoise
	AmountDetune
)

// Channel is one (source, destination) cell of the table.
type Channel struct {
	Enabled   bool
	Intensity float64
}

// Table is the dense routing table consumed by the voice engine.
type Table [NumSources][NumDestinations]Channel

// Route binds one toggle group to the destinations it gates and the
// intensity knob they read.
type Route struct {
	Toggle    int
	Intensity int
	Dests     []Destination
}

// Routes is indexed by toggle group. Every destination appears in exactly
// one route; Validate checks that.
var Routes = [param.NumToggleGroups]Route{
	GroupOscPitch:  {GroupOscPitch, AmountPitch, []Destination{Osc1Pitch, Osc2Pitch, Osc3Pitch}},
	GroupOscWave:   {GroupOscWave, AmountWave, []Destination{Osc1Wave, Osc2Wave, Osc3Wave}},
	GroupOscLevel:  {GroupOscLevel, AmountLevel, []Destination{Osc1Level, Osc2Level, Osc3Level}},
	GroupFM:        {GroupFM, AmountFM, []Destination{FMAmount}},
	GroupCutoff:    {GroupCutoff, AmountFilter, []Destination{Cutoff}},
	GroupCutoffEnv: {GroupCutoffEnv, AmountFilter, []Destination{CutoffEnv}},
	GroupResonance: {GroupResonance, AmountResonance, []Destination{Resonance}},
	GroupAmp:       {GroupAmp, AmountAmp, []Destination{Amp}},
	GroupAmpEnv:    {GroupAmpEnv, AmountAmp, []Destination{AmpEnv}},
	GroupPan:       {GroupPan, AmountPan, []Destination{Pan}},
	GroupLFORate:   {GroupLFORate, AmountLFORate, []Destination{LFO1Rate, LFO2Rate}},
	GroupNoise:     {GroupNoise, AmountNoise, []Destination{Noise}},
	GroupDetune:    {GroupDetune, AmountDetune, []Destination{Detune}},
}

// Rebuild overwrites every channel of t from snap. It has no other inputs
// and no hidden state, so two calls with the same snapshot produce the same
// table.
func Rebuild(snap *param.Snapshot, t *Table) {
	for src := 0; src < NumSources; src++ {
		amount := snap.Float(param.SourceAmount(src))
		row := &t[src]
		for g := range Routes {
			r := &Routes[g]
			ch := Channel{
				Enabled:   snap.Bool(param.RouteToggle(src, r.Toggle)),
				Intensity: amount * snap.Float(param.RouteIntensity(src, r.Intensity)),
			}
			for _, d := range r.Dests {
				row[d] = ch
			}
		}
	}
}

// Sum returns the modulation reaching d given the current value of every source.
func (t *Table) Sum(d Destination, values *[NumSources]float64) float64 {
	var sum float64
	for src := 0; src < NumSources; src++ {
		ch := &t[src][d]
		if ch.Enabled {
			sum += values[src] * ch.Intensity
		}
	}
	return sum
}

// Validate reports a route map that leaves a destination unwired or wires
// it from two toggles.
func Validate() error {
	var seen [NumDestinations]int
	for g, r := range Routes {
		if r.Toggle != g {
			return errors.Errorf("route %d declares toggle group %d", g, r.Toggle)
		}
		if r.Intensity < 0 || r.Intensity >= param.NumIntensityGroups {
			return errors.Errorf("route %d has intensity group %d out of range", g, r.Intensity)
		}
		for _, d := range r.Dests {
			seen[d]++
		}
	}
	for d, n := range seen {
		if n != 1 {
			return errors.Errorf("destination %s wired by %d toggles", Destination(d), n)
		}
	}
	return nil
}

var destinationNames = [NumDestinations]string{
	"osc1_pitch", "osc2_pitch", "osc3_pitch",
	"osc1_wave", "osc2_wave", "osc3_wave",
	"osc1_level", "osc2_level", "osc3_level",
	"fm", "cutoff", "cutoff_env", "resonance", "amp", "amp_env",
	"pan", "lfo1_rate", "lfo2_rate", "noise", "detune",
}

func (d Destination) String() string {
	if d < 0 || d >= NumDestinations {
		return fmt.Sprintf("destination(%d)", int(d))
	}
	return destinationNames[d]
}

func (s Source) String() string {
	if s < 0 || int(s) >= NumSources {
		return fmt.Sprintf("source(%d)", int(s))
	}
	return param.SourceNames[s]
}
