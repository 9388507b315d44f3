// Package seqsynth is a step-sequenced polyphonic synthesizer: a block
// scheduler driving a reference voice engine from a flat parameter store,
// playable live through the audio device or rendered offline.
package seqsynth

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"

	intaudio "github.com/cbegin/seqsynth-go/internal/audio"
	"github.com/cbegin/seqsynth-go/internal/effects"
	"github.com/cbegin/seqsynth-go/internal/midiq"
	"github.com/cbegin/seqsynth-go/internal/param"
	"github.com/cbegin/seqsynth-go/internal/scheduler"
	"github.com/cbegin/seqsynth-go/internal/voice"
)

const (
	defaultBufferFrames = 512
	maxQueuedEvents     = 1024
)

type Option func(*options)

type options struct {
	blockSize    int
	bufferFrames int
	tempo        float64
	timeSig      [2]int
	logger       *slog.Logger
	sampleTap    func([]float32)
	effects      []effects.Config
	voice        voice.Params
	params       map[string]float64
	tailSec      float64
	outputBuffer time.Duration
}

func defaultOptions() options {
	return options{
		blockSize:    scheduler.DefaultBlockSize,
		bufferFrames: defaultBufferFrames,
		tempo:        120,
		timeSig:      [2]int{4, 4},
		voice:        voice.DefaultParams(),
		tailSec:      1,
	}
}

func WithBlockSize(frames int) Option {
	return func(o *options) { o.blockSize = frames }
}

// WithBufferFrames sets the host buffer size used by offline rendering.
func WithBufferFrames(frames int) Option {
	return func(o *options) { o.bufferFrames = frames }
}

func WithTempo(bpm float64) Option {
	return func(o *options) { o.tempo = bpm }
}

func WithTimeSignature(num, den int) Option {
	return func(o *options) { o.timeSig = [2]int{num, den} }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(o *options) { o.sampleTap = tap }
}

// WithEffects sets the master bus applied after the scheduler.
func WithEffects(units []effects.Config) Option {
	return func(o *options) { o.effects = units }
}

func WithVoiceParams(p voice.Params) Option {
	return func(o *options) { o.voice = p }
}

// WithParams sets parameters by name when the instrument is created.
func WithParams(values map[string]float64) Option {
	return func(o *options) { o.params = values }
}

// WithTail sets how long offline rendering continues after the last event.
func WithTail(seconds float64) Option {
	return func(o *options) { o.tailSec = seconds }
}

// WithOutputBuffer sets the audio device buffer length for live playback.
// Zero keeps the device default.
func WithOutputBuffer(d time.Duration) Option {
	return func(o *options) { o.outputBuffer = d }
}

// device is the live audio output as the instrument drives it.
type device interface {
	SetBufferSize(d time.Duration)
	Play()
	Pause()
	IsPlaying() bool
	Position() time.Duration
	Close() error
}

var openOutput = func(sampleRate int, src intaudio.Source) (device, error) {
	out, err := intaudio.NewOutput(sampleRate, src)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Instrument owns the parameter store, the voice engine and the scheduler
// that drives it. Parameters and MIDI may be sent from any goroutine;
// Process must be called from one goroutine at a time.
type Instrument struct {
	id         uuid.UUID
	sampleRate int
	logger     *slog.Logger
	store      *param.Store
	engine     *voice.Engine
	sched      *scheduler.Scheduler
	bus        *effects.Bus
	queue      *midiq.Queue
	planar     [][]float32
	sampleTap  func([]float32)
	samplePos  atomic.Int64
	tempo      atomic.Uint64 // float64 bits
	timeSig    [2]int
	outBuffer  time.Duration

	mu    sync.Mutex // guards inbox only; taken on the audio thread
	inbox []gomidi.Message

	playMu sync.Mutex
	output device
}

func NewInstrument(sampleRate int, opts ...Option) (*Instrument, error) {
	if sampleRate <= 0 {
		return nil, errors.New("seqsynth: sample rate must be positive")
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tempo <= 0 {
		return nil, errors.Errorf("seqsynth: tempo must be positive, got %v", cfg.tempo)
	}

	in := &Instrument{
		id:         uuid.New(),
		sampleRate: sampleRate,
		store:      param.NewStore(),
		engine:     voice.New(cfg.voice),
		queue:      midiq.NewQueue(maxQueuedEvents),
		sampleTap:  cfg.sampleTap,
		timeSig:    cfg.timeSig,
		outBuffer:  cfg.outputBuffer,
		inbox:      make([]gomidi.Message, 0, 64),
	}
	in.logger = cfg.logger.With("instrument", in.id.String())
	in.tempo.Store(math.Float64bits(cfg.tempo))
	names := make([]string, 0, len(cfg.params))
	for name := range cfg.params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := in.store.SetByName(name, cfg.params[name]); err != nil {
			return nil, errors.Wrap(err, "seqsynth: initial params")
		}
	}

	sched, err := scheduler.New(in.engine, in.store, scheduler.Options{
		BlockSize:  cfg.blockSize,
		SampleRate: float64(sampleRate),
		Channels:   2,
		Logger:     in.logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "seqsynth: create scheduler")
	}
	in.sched = sched

	bus, err := effects.Build(cfg.effects, sampleRate)
	if err != nil {
		return nil, errors.Wrap(err, "seqsynth: master bus")
	}
	in.bus = bus
	in.ensureFrames(cfg.bufferFrames)

	in.logger.Info("instrument ready",
		"sample_rate", sampleRate,
		"block_size", sched.BlockSize(),
		"effects", bus.Len())
	return in, nil
}

// ID identifies this instrument in logs.
func (in *Instrument) ID() uuid.UUID { return in.id }

func (in *Instrument) SampleRate() int { return in.sampleRate }

// Params is the parameter store. Writes take effect at the next block.
func (in *Instrument) Params() *param.Store { return in.store }

// Meters returns the per-lane step readback of the last rendered block.
func (in *Instrument) Meters() scheduler.Meters {
	var m scheduler.Meters
	for lane := range m {
		for step := range m[lane] {
			m[lane][step] = in.store.Get(param.MeterID(lane, step))
		}
	}
	return m
}

func (in *Instrument) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	in.tempo.Store(math.Float64bits(bpm))
}

func (in *Instrument) Tempo() float64 {
	return math.Float64frombits(in.tempo.Load())
}

// SendMIDI queues msg for the start of the next rendered buffer.
func (in *Instrument) SendMIDI(msg gomidi.Message) {
	in.mu.Lock()
	in.inbox = append(in.inbox, msg)
	in.mu.Unlock()
}

// Position is the number of frames rendered since creation.
func (in *Instrument) Position() int64 { return in.samplePos.Load() }

// Process renders len(dst)/2 interleaved stereo frames. It implements the
// audio stream source.
func (in *Instrument) Process(dst []float32) {
	in.mu.Lock()
	for _, msg := range in.inbox {
		in.queue.Push(midiq.Event{Offset: 0, Msg: msg})
	}
	clear(in.inbox)
	in.inbox = in.inbox[:0]
	in.mu.Unlock()

	in.render(dst)
}

// render runs the scheduler over one host buffer with whatever is in the
// queue, then the master bus, then interleaves into dst.
func (in *Instrument) render(dst []float32) {
	frames := len(dst) / 2
	if frames == 0 {
		return
	}
	in.ensureFrames(frames)
	pos := in.samplePos.Load()
	buf := scheduler.Buffer{Out: [][]float32{in.planar[0][:frames], in.planar[1][:frames]}, Frames: frames}
	in.sched.Process(buf, in.queue, scheduler.Transport{
		SamplePos:  pos,
		TimeSec:    float64(pos) / float64(in.sampleRate),
		Tempo:      in.Tempo(),
		TimeSigNum: in.timeSig[0],
		TimeSigDen: in.timeSig[1],
	})
	in.bus.Process(buf.Out, frames)
	left, right := buf.Out[0], buf.Out[1]
	for i := 0; i < frames; i++ {
		dst[2*i] = left[i]
		dst[2*i+1] = right[i]
	}
	in.samplePos.Add(int64(frames))
	if in.sampleTap != nil {
		in.sampleTap(dst)
	}
}

// ensureFrames grows the planar buffers; after the first buffer of a given
// size it never allocates.
func (in *Instrument) ensureFrames(frames int) {
	if len(in.planar) == 2 && len(in.planar[0]) >= frames {
		return
	}
	in.planar = [][]float32{make([]float32, frames), make([]float32, frames)}
}

// Play starts or resumes live output on the default audio device. The
// device may pull audio from Process before Play returns.
func (in *Instrument) Play() error {
	in.playMu.Lock()
	defer in.playMu.Unlock()
	if in.output == nil {
		out, err := openOutput(in.sampleRate, in)
		if err != nil {
			return errors.Wrap(err, "seqsynth: open audio output")
		}
		if in.outBuffer > 0 {
			out.SetBufferSize(in.outBuffer)
		}
		in.output = out
		in.logger.Info("playback started", "buffer", in.outBuffer)
	}
	in.output.Play()
	return nil
}

// Pause holds live output; Play resumes it.
func (in *Instrument) Pause() {
	in.playMu.Lock()
	defer in.playMu.Unlock()
	if in.output != nil {
		in.output.Pause()
	}
}

func (in *Instrument) IsPlaying() bool {
	in.playMu.Lock()
	defer in.playMu.Unlock()
	return in.output != nil && in.output.IsPlaying()
}

// Heard is how much audio the device has actually played.
func (in *Instrument) Heard() time.Duration {
	in.playMu.Lock()
	defer in.playMu.Unlock()
	if in.output == nil {
		return 0
	}
	return in.output.Position()
}

// Stop closes live output. It is safe to call when not playing.
func (in *Instrument) Stop() error {
	in.playMu.Lock()
	out := in.output
	in.output = nil
	in.playMu.Unlock()
	if out == nil {
		return nil
	}
	in.logger.Info("playback stopped", "frames", in.Position(), "heard", out.Position())
	return out.Close()
}
