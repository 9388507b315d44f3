package param

import (
	"fmt"
	"strconv"
)

// ID is a stable parameter key. IDs are dense so values can live in fixed arrays.
type ID int

type Kind int

const (
	Continuous Kind = iota
	Integer
	Enum
	Toggle
	Meter
)

const (
	NumOscillators     = 3
	NumModSources      = 6
	NumToggleGroups    = 13
	NumIntensityGroups = 11
	NumSteps           = 8
	NumLanes           = 4
	NumNoteLengths     = 16
)

// Lane indices shared by the sequencer parameters and the meter readback.
const (
	LaneTiming = iota
	LaneWave
	LanePitch
	LaneMod
)

// Global parameters. Blocks of per-oscillator, per-route and per-step
// parameters follow oscBase and are addressed through the helper functions.
const (
	MasterGain ID = iota
	FMAmount
	Detune
	Noise
	Cutoff
	Resonance
	Pan
	AmpAttack
	AmpDecay
	AmpSustain
	AmpRelease
	ModAttack
	ModDecay
	ModSustain
	ModRelease
	LFO1Rate
	LFO1Wave
	LFO2Rate
	LFO2Wave
	SeqEnabled
	SeqInterpolate
	SeqTimeStretch
	SeqSolo
	oscBase
)

const (
	oscFields        = 3
	sourceAmountBase = oscBase + NumOscillators*oscFields
	routeToggleBase  = sourceAmountBase + NumModSources
	routeAmountBase  = routeToggleBase + NumModSources*NumToggleGroups
	stepBase         = routeAmountBase + NumModSources*NumIntensityGroups
	stepFields       = 8
	laneBase         = stepBase + NumSteps*stepFields
	laneFields       = 4
	meterBase        = laneBase + NumLanes*laneFields

	// Count is the total number of declared parameters.
	Count = int(meterBase) + NumLanes*NumSteps
)

func OscWave(osc int) ID   { return oscBase + ID(osc*oscFields) }
func OscCoarse(osc int) ID { return oscBase + ID(osc*oscFields+1) }
func OscLevel(osc int) ID  { return oscBase + ID(osc*oscFields+2) }

// SourceAmount is the overall intensity of a modulation source.
func SourceAmount(src int) ID { return sourceAmountBase + ID(src) }

// RouteToggle is the UI enable for one source feeding one toggle group.
func RouteToggle(src, group int) ID {
	return routeToggleBase + ID(src*NumToggleGroups+group)
}

// RouteIntensity is the knob shared by every destination of an intensity group.
func RouteIntensity(src, group int) ID {
	return routeAmountBase + ID(src*NumIntensityGroups+group)
}

func StepNoteLen(step int) ID   { return stepBase + ID(step*stepFields) }
func StepXfadeLen(step int) ID  { return stepBase + ID(step*stepFields+1) }
func StepWave(step int) ID      { return stepBase + ID(step*stepFields+2) }
func StepPitch(step int) ID     { return stepBase + ID(step*stepFields+3) }
func StepPitchProb(step int) ID { return stepBase + ID(step*stepFields+4) }
func StepMod(step int) ID       { return stepBase + ID(step*stepFields+5) }
func StepModProb(step int) ID   { return stepBase + ID(step*stepFields+6) }
func StepKind(step int) ID      { return stepBase + ID(step*stepFields+7) }

func LoopStart(lane int) ID     { return laneBase + ID(lane*laneFields) }
func LoopEnd(lane int) ID       { return laneBase + ID(lane*laneFields+1) }
func LoopDirection(lane int) ID { return laneBase + ID(lane*laneFields+2) }
func LaneRandomize(lane int) ID { return laneBase + ID(lane*laneFields+3) }

// MeterID is the display-bound readback slot for one lane step.
func MeterID(lane, step int) ID { return meterBase + ID(lane*NumSteps+step) }

// Param describes one declared parameter.
type Param struct {
	ID      ID
	Name    string
	Kind    Kind
	Min     float64
	Max     float64
	Default float64
}

var (
	SourceNames = [NumModSources]string{"lfo1", "lfo2", "modenv", "stepmod", "velocity", "modwheel"}

	ToggleGroupNames = [NumToggleGroups]string{
		"osc_pitch", "osc_wave", "osc_level", "fm", "cutoff", "cutoff_env",
		"resonance", "amp", "amp_env", "pan", "lfo_rate", "noise", "detune",
	}

	IntensityGroupNames = [NumIntensityGroups]string{
		"pitch", "wave", "level", "fm", "filter", "resonance",
		"amp", "pan", "lfo_rate", "noise", "detune",
	}

	LaneNames = [NumLanes]string{"timing", "wave", "pitch", "mod"}
)

var (
	table  [Count]Param
	byName map[string]ID
)

func init() {
	declare()
	byName = make(map[string]ID, Count)
	for i := range table {
		if table[i].Name == "" {
			panic(fmt.Sprintf("param: id %d not declared", i))
		}
		if _, dup := byName[table[i].Name]; dup {
			panic("param: duplicate name " + table[i].Name)
		}
		byName[table[i].Name] = table[i].ID
	}
}

func def(id ID, name string, kind Kind, lo, hi, dflt float64) {
	table[id] = Param{ID: id, Name: name, Kind: kind, Min: lo, Max: hi, Default: dflt}
}

func declare() {
	def(MasterGain, "master.gain", Continuous, 0, 1, 0.7)
	def(FMAmount, "fm.amount", Continuous, 0, 1, 0)
	def(Detune, "osc.detune", Continuous, 0, 1, 0)
	def(Noise, "noise.level", Continuous, 0, 1, 0)
	def(Cutoff, "filter.cutoff", Continuous, 20, 20000, 8000)
	def(Resonance, "filter.resonance", Continuous, 0, 1, 0.2)
	def(Pan, "master.pan", Continuous, -1, 1, 0)
	def(AmpAttack, "amp.attack", Continuous, 0.001, 5, 0.005)
	def(AmpDecay, "amp.decay", Continuous, 0.001, 5, 0.2)
	def(AmpSustain, "amp.sustain", Continuous, 0, 1, 0.7)
	def(AmpRelease, "amp.release", Continuous, 0.001, 5, 0.3)
	def(ModAttack, "modenv.attack", Continuous, 0.001, 5, 0.01)
	def(ModDecay, "modenv.decay", Continuous, 0.001, 5, 0.4)
	def(ModSustain, "modenv.sustain", Continuous, 0, 1, 0)
	def(ModRelease, "modenv.release", Continuous, 0.001, 5, 0.3)
	def(LFO1Rate, "lfo1.rate", Continuous, 0.01, 20, 2)
	def(LFO1Wave, "lfo1.wave", Enum, 0, 4, 1)
	def(LFO2Rate, "lfo2.rate", Continuous, 0.01, 20, 0.5)
	def(LFO2Wave, "lfo2.wave", Enum, 0, 4, 0)
	def(SeqEnabled, "seq.enabled", Toggle, 0, 1, 0)
	def(SeqInterpolate, "seq.interpolate", Toggle, 0, 1, 0)
	def(SeqTimeStretch, "seq.time_stretch", Integer, -4, 4, 0)
	def(SeqSolo, "seq.solo", Integer, 0, NumSteps, 0)

	for o := 0; o < NumOscillators; o++ {
		prefix := "osc" + strconv.Itoa(o+1)
		level := 0.0
		if o == 0 {
			level = 1
		}
		def(OscWave(o), prefix+".wave", Enum, 0, 3, 2)
		def(OscCoarse(o), prefix+".coarse", Integer, -24, 24, 0)
		def(OscLevel(o), prefix+".level", Continuous, 0, 1, level)
	}

	for s, src := range SourceNames {
		def(SourceAmount(s), "mod."+src+".amount", Continuous, 0, 1, 1)
		for g, name := range ToggleGroupNames {
			def(RouteToggle(s, g), "mod."+src+".to."+name, Toggle, 0, 1, 0)
		}
		for g, name := range IntensityGroupNames {
			def(RouteIntensity(s, g), "mod."+src+".amt."+name, Continuous, -1, 1, 0)
		}
	}

	for st := 0; st < NumSteps; st++ {
		prefix := "seq.step" + strconv.Itoa(st+1)
		def(StepNoteLen(st), prefix+".note_len", Enum, 0, NumNoteLengths-1, 4)
		def(StepXfadeLen(st), prefix+".xfade_len", Enum, 0, NumNoteLengths-1, 0)
		def(StepWave(st), prefix+".wave", Enum, 0, 3, 2)
		def(StepPitch(st), prefix+".pitch", Integer, -24, 24, 0)
		def(StepPitchProb(st), prefix+".pitch_prob", Integer, 0, 100, 100)
		def(StepMod(st), prefix+".mod", Continuous, -1, 1, 0)
		def(StepModProb(st), prefix+".mod_prob", Integer, 0, 100, 100)
		def(StepKind(st), prefix+".kind", Enum, 0, 1, 0)
	}

	for l, lane := range LaneNames {
		prefix := "seq." + lane
		def(LoopStart(l), prefix+".loop_start", Integer, 1, NumSteps, 1)
		def(LoopEnd(l), prefix+".loop_end", Integer, 1, NumSteps, NumSteps)
		def(LoopDirection(l), prefix+".loop_dir", Enum, 0, 2, 0)
		def(LaneRandomize(l), prefix+".randomize", Toggle, 0, 1, 0)
		for st := 0; st < NumSteps; st++ {
			def(MeterID(l, st), "meter."+lane+"."+strconv.Itoa(st+1), Meter, -1e6, 1e6, 0)
		}
	}
}

// Table returns the declaration of every parameter, indexed by ID.
func Table() []Param {
	return table[:]
}

// Get returns the declaration for id.
func Get(id ID) (Param, bool) {
	if id < 0 || int(id) >= Count {
		return Param{}, false
	}
	return table[id], true
}

// Lookup resolves a parameter name such as "filter.cutoff" to its ID.
func Lookup(name string) (ID, bool) {
	id, ok := byName[name]
	return id, ok
}
