// Package voice is a small polyphonic subtractive engine that plays the
// routing table and step-sequencer configuration the scheduler rebuilds.
package voice

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/cbegin/seqsynth-go/internal/lfo"
	"github.com/cbegin/seqsynth-go/internal/midiq"
	"github.com/cbegin/seqsynth-go/internal/modroute"
	"github.com/cbegin/seqsynth-go/internal/param"
	"github.com/cbegin/seqsynth-go/internal/scheduler"
	"github.com/cbegin/seqsynth-go/internal/stepseq"
)

const (
	twoPi      = math.Pi * 2
	maxPending = 256

	ccModWheel    = 1
	ccAllNotesOff = 123

	pitchRange   = 12.0 // semitones at full modulation
	filterRange  = 4.0  // octaves at full modulation
	lfoRateRange = 2.0  // octaves at full modulation
	detuneCents  = 50.0
	outputScale  = 0.3
)

type Params struct {
	Polyphony   int
	FMRatio     float64
	FMIndex     float64
	VelocityAmp float64
	Seed        int64
}

func DefaultParams() Params {
	return Params{
		Polyphony:   16,
		FMRatio:     2.0,
		FMIndex:     4.0,
		VelocityAmp: 0.8,
		Seed:        1,
	}
}

type voice struct {
	active   bool
	id       int
	channel  uint8
	key      uint8
	velocity float64
	phases   [param.NumOscillators]float64
	fmPhase  float64
	amp      envelope
	mod      envelope
	filter   svf
}

// patch is the per-block view of the flat parameters the engine reads.
type patch struct {
	gain      float64
	fm        float64
	detune    float64
	noise     float64
	cutoff    float64
	resonance float64
	pan       float64
	oscWave   [param.NumOscillators]int
	oscCoarse [param.NumOscillators]float64
	oscLevel  [param.NumOscillators]float64
	ampEnv    adsr
	modEnv    adsr
	lfoRate   [2]float64
	lfoWave   [2]int
}

type Engine struct {
	params     Params
	sampleRate float64
	voices     []voice
	nextID     int
	rng        *rand.Rand
	noiseLFSR  uint32
	lfos       [2]*lfo.LFO
	lfoValues  [2]float64
	modWheel   float64
	patch      patch
	seq        seqRuntime
	pending    [maxPending]midiq.Event
	pendingN   int
}

var _ scheduler.VoiceEngine = (*Engine)(nil)

func New(params Params) *Engine {
	if params.Polyphony <= 0 {
		params.Polyphony = 16
	}
	if params.FMRatio <= 0 {
		params.FMRatio = 2
	}
	return &Engine{params: params}
}

// Reset clears every voice and reseeds the random sources.
func (e *Engine) Reset(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return errors.Errorf("voice: invalid sample rate %v", sampleRate)
	}
	e.sampleRate = sampleRate
	e.voices = make([]voice, e.params.Polyphony)
	e.nextID = 0
	e.rng = rand.New(rand.NewSource(e.params.Seed))
	e.noiseLFSR = 0x7FFF
	for i := range e.lfos {
		e.lfos[i] = lfo.New(rand.New(rand.NewSource(e.params.Seed + int64(i) + 1)))
	}
	e.lfoValues = [2]float64{}
	e.modWheel = 0
	e.seq.reset()
	e.seq.rng = e.rng
	e.pendingN = 0
	return nil
}

// HandleEvent queues ev to take effect offset frames into the next Render.
func (e *Engine) HandleEvent(ev midiq.Event, offset int) {
	ev.Offset = offset
	if e.pendingN == maxPending {
		e.apply(ev)
		return
	}
	e.pending[e.pendingN] = ev
	e.pendingN++
}

func (e *Engine) apply(ev midiq.Event) {
	var ch, key, vel, cc, val uint8
	switch {
	case ev.Msg.GetNoteStart(&ch, &key, &vel):
		e.noteOn(ch, key, vel)
	case ev.Msg.GetNoteEnd(&ch, &key):
		e.noteOff(ch, key)
	case ev.Msg.GetControlChange(&ch, &cc, &val):
		switch cc {
		case ccModWheel:
			e.modWheel = float64(val) / 127
		case ccAllNotesOff:
			for i := range e.voices {
				e.releaseVoice(&e.voices[i])
			}
		}
	}
}

func (e *Engine) noteOn(ch, key, vel uint8) {
	slot := e.stealVoice()
	v := &e.voices[slot]
	*v = voice{
		active:   true,
		id:       e.nextID,
		channel:  ch,
		key:      key,
		velocity: float64(vel) / 127,
	}
	e.nextID++
	v.amp.gate()
	v.mod.gate()
}

func (e *Engine) noteOff(ch, key uint8) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.channel == ch && v.key == key {
			e.releaseVoice(v)
		}
	}
}

func (e *Engine) releaseVoice(v *voice) {
	if !v.active {
		return
	}
	v.amp.release(&e.patch.ampEnv, e.sampleRate)
	v.mod.release(&e.patch.modEnv, e.sampleRate)
}

func (e *Engine) stealVoice() int {
	for i := range e.voices {
		if !e.voices[i].active {
			return i
		}
	}
	quiet := 0
	minEnv := e.voices[0].amp.level
	for i := 1; i < len(e.voices); i++ {
		if e.voices[i].amp.level < minEnv {
			minEnv = e.voices[i].amp.level
			quiet = i
		}
	}
	return quiet
}

func (e *Engine) readPatch(snap *param.Snapshot) {
	p := &e.patch
	p.gain = snap.Float(param.MasterGain)
	p.fm = snap.Float(param.FMAmount)
	p.detune = snap.Float(param.Detune)
	p.noise = snap.Float(param.Noise)
	p.cutoff = snap.Float(param.Cutoff)
	p.resonance = snap.Float(param.Resonance)
	p.pan = snap.Float(param.Pan)
	for o := 0; o < param.NumOscillators; o++ {
		p.oscWave[o] = snap.Int(param.OscWave(o))
		p.oscCoarse[o] = float64(snap.Int(param.OscCoarse(o)))
		p.oscLevel[o] = snap.Float(param.OscLevel(o))
	}
	p.ampEnv = adsr{
		attack:  snap.Float(param.AmpAttack),
		decay:   snap.Float(param.AmpDecay),
		sustain: snap.Float(param.AmpSustain),
		release: snap.Float(param.AmpRelease),
	}
	p.modEnv = adsr{
		attack:  snap.Float(param.ModAttack),
		decay:   snap.Float(param.ModDecay),
		sustain: snap.Float(param.ModSustain),
		release: snap.Float(param.ModRelease),
	}
	p.lfoRate = [2]float64{snap.Float(param.LFO1Rate), snap.Float(param.LFO2Rate)}
	p.lfoWave = [2]int{snap.Int(param.LFO1Wave), snap.Int(param.LFO2Wave)}
}

// Render plays one block. Pending events are applied at their offsets,
// LFO rates follow the table using the source values at block start.
func (e *Engine) Render(ctx *scheduler.BlockContext, table *modroute.Table, seq *stepseq.Config, snap *param.Snapshot, out [][]float32) scheduler.Meters {
	e.readPatch(snap)

	var globals [modroute.NumSources]float64
	e.globalSources(&globals)
	rateDests := [2]modroute.Destination{modroute.LFO1Rate, modroute.LFO2Rate}
	for i, l := range e.lfos {
		rate := e.patch.lfoRate[i] * math.Exp2(lfoRateRange*table.Sum(rateDests[i], &globals))
		l.Set(rate, e.patch.lfoWave[i])
	}

	solo, soloOn := seq.SoloWave()
	next := 0
	for i := 0; i < ctx.Size; i++ {
		for next < e.pendingN && e.pending[next].Offset <= i {
			e.apply(e.pending[next])
			next++
		}
		e.seq.tick(seq, ctx.Tempo, e.sampleRate)
		e.lfoValues[0] = e.lfos[0].Sample(e.sampleRate)
		e.lfoValues[1] = e.lfos[1].Sample(e.sampleRate)
		e.globalSources(&globals)

		waves := e.patch.oscWave
		if w := e.seq.waveIndex(); w >= 0 {
			waves[0] = w
		}
		if soloOn {
			for o := range waves {
				waves[o] = solo
			}
		}

		l, r := e.renderFrame(table, &globals, &waves)
		writeFrame(out, i, l, r)
	}
	for ; next < e.pendingN; next++ {
		e.apply(e.pending[next])
	}
	e.pendingN = 0

	var m scheduler.Meters
	e.seq.meters(seq, ctx.Tempo, &m)
	return m
}

func (e *Engine) globalSources(src *[modroute.NumSources]float64) {
	src[modroute.LFO1] = e.lfoValues[0]
	src[modroute.LFO2] = e.lfoValues[1]
	src[modroute.StepMod] = e.seq.mod.value
	src[modroute.ModWheel] = e.modWheel
	src[modroute.ModEnv] = 0
	src[modroute.Velocity] = 0
}

func (e *Engine) renderFrame(table *modroute.Table, globals *[modroute.NumSources]float64, waves *[param.NumOscillators]int) (float64, float64) {
	p := &e.patch
	sr := e.sampleRate
	transpose := e.seq.pitch.value

	var l, r float64
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		ampEnv := v.amp.advance(&p.ampEnv, sr)
		modEnv := v.mod.advance(&p.modEnv, sr)
		if v.amp.done() {
			v.active = false
			continue
		}

		src := *globals
		src[modroute.ModEnv] = modEnv
		src[modroute.Velocity] = v.velocity
		sum := func(d modroute.Destination) float64 { return table.Sum(d, &src) }

		detune := clamp(p.detune+sum(modroute.Detune), 0, 1) * detuneCents / 100
		fm := clamp(p.fm+sum(modroute.FMAmount), 0, 1)
		base := float64(v.key) + transpose

		var sig float64
		for o := 0; o < param.NumOscillators; o++ {
			level := clamp(p.oscLevel[o]+sum(modroute.Osc1Level+modroute.Destination(o)), 0, 1)
			note := base + p.oscCoarse[o] + pitchRange*sum(modroute.Osc1Pitch+modroute.Destination(o))
			switch o {
			case 1:
				note += detune
			case 2:
				note -= detune
			}
			freq := midiToFreq(note)
			wave := wrapWave(*waves, o, sum(modroute.Osc1Wave+modroute.Destination(o)))

			phase := v.phases[o]
			if o == 0 && fm > 0 {
				phase += fm * e.params.FMIndex * math.Sin(twoPi*v.fmPhase) / twoPi
				v.fmPhase += freq * e.params.FMRatio / sr
				v.fmPhase -= math.Floor(v.fmPhase)
			}
			if level > 0 {
				sig += oscillator(phase, wave) * level
			}
			v.phases[o] += freq / sr
			v.phases[o] -= math.Floor(v.phases[o])
		}
		if noise := clamp(p.noise+sum(modroute.Noise), 0, 1); noise > 0 {
			sig += e.nextNoise() * noise
		}

		cutoff := p.cutoff * math.Exp2(filterRange*(sum(modroute.Cutoff)+ampEnv*sum(modroute.CutoffEnv)))
		res := clamp(p.resonance+sum(modroute.Resonance), 0, 1)
		sig = v.filter.lowpass(sig, cutoff, res, sr)

		gain := 1 + sum(modroute.Amp) + ampEnv*sum(modroute.AmpEnv)
		if gain < 0 {
			gain = 0
		}
		sig *= p.gain * gain * ampEnv * (1 - e.params.VelocityAmp + v.velocity*e.params.VelocityAmp)

		pan := clamp(p.pan+sum(modroute.Pan), -1, 1)
		angle := (pan + 1) * math.Pi / 4
		l += sig * math.Cos(angle)
		r += sig * math.Sin(angle)
	}
	return clamp(l*outputScale, -1, 1), clamp(r*outputScale, -1, 1)
}

func (e *Engine) nextNoise() float64 {
	e.noiseLFSR = (e.noiseLFSR >> 1) ^ (-(e.noiseLFSR & 1) & 0xB400)
	return float64(e.noiseLFSR)/float64(0x7FFF)*2.0 - 1.0
}

func writeFrame(out [][]float32, i int, l, r float64) {
	switch len(out) {
	case 0:
	case 1:
		out[0][i] = float32((l + r) * 0.5)
	default:
		out[0][i] = float32(l)
		out[1][i] = float32(r)
		for ch := 2; ch < len(out); ch++ {
			out[ch][i] = float32(r)
		}
	}
}

// ActiveVoiceCount reports voices still sounding, including releases.
func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

// ModWheel returns the last mod wheel position in [0, 1].
func (e *Engine) ModWheel() float64 { return e.modWheel }

func wrapWave(waves [param.NumOscillators]int, osc int, mod float64) int {
	w := waves[osc] + int(math.Round(mod*(numWaves-1)))
	w %= numWaves
	if w < 0 {
		w += numWaves
	}
	return w
}

const numWaves = 4

// oscillator shares the LFO wave order: sine, triangle, saw, square.
func oscillator(phase float64, wave int) float64 {
	phase -= math.Floor(phase)
	switch wave {
	case lfo.WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	case lfo.WaveSaw:
		return 2*phase - 1
	case lfo.WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(twoPi * phase)
	}
}

func midiToFreq(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
