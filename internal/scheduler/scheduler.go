// Package scheduler splits host buffers into fixed-size blocks, fires MIDI
// at its sample offset and drives the voice engine once per block.
package scheduler

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/cbegin/seqsynth-go/internal/midiq"
	"github.com/cbegin/seqsynth-go/internal/modroute"
	"github.com/cbegin/seqsynth-go/internal/param"
	"github.com/cbegin/seqsynth-go/internal/stepseq"
)

const (
	DefaultBlockSize = 64
	DefaultChannels  = 2
	smoothingSec     = 0.005
)

// Meters are per-lane, per-step scalar readbacks for display.
type Meters [param.NumLanes][param.NumSteps]float64

// VoiceEngine renders audio from the rebuilt configuration. It owns every
// piece of persistent synthesis state.
type VoiceEngine interface {
	// Reset prepares the engine for sampleRate. It is the only place an
	// engine may fail.
	Reset(sampleRate float64) error
	// HandleEvent receives a MIDI event due at offset frames into the next
	// rendered block.
	HandleEvent(ev midiq.Event, offset int)
	// Render writes exactly ctx.Size frames into every channel of out.
	Render(ctx *BlockContext, table *modroute.Table, seq *stepseq.Config, snap *param.Snapshot, out [][]float32) Meters
}

// Transport is the host timeline at the first frame of a buffer.
type Transport struct {
	SamplePos  int64
	TimeSec    float64
	Tempo      float64
	TimeSigNum int
	TimeSigDen int
}

// BlockContext describes the block being rendered.
type BlockContext struct {
	Size       int
	Start      int
	SamplePos  int64
	TimeSec    float64
	Tempo      float64
	TimeSigNum int
	TimeSigDen int
	SampleRate float64
}

// Buffer is a host-owned set of output channels holding Frames frames.
type Buffer struct {
	Out    [][]float32
	Frames int
}

type Options struct {
	BlockSize  int
	SampleRate float64
	Channels   int
	Logger     *slog.Logger
}

type Scheduler struct {
	engine     VoiceEngine
	store      *param.Store
	blockSize  int
	sampleRate float64
	logger     *slog.Logger

	ctx      BlockContext
	smoother param.Smoother
	snap     param.Snapshot
	table    modroute.Table
	seq      stepseq.Config
	meters   Meters
	block    [][]float32
	view     [][]float32
}

func New(engine VoiceEngine, store *param.Store, opts Options) (*Scheduler, error) {
	if engine == nil {
		return nil, errors.New("scheduler: nil voice engine")
	}
	if store == nil {
		return nil, errors.New("scheduler: nil parameter store")
	}
	if opts.SampleRate <= 0 {
		return nil, errors.Errorf("scheduler: sample rate must be positive, got %v", opts.SampleRate)
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.Channels <= 0 {
		opts.Channels = DefaultChannels
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if err := engine.Reset(opts.SampleRate); err != nil {
		return nil, errors.Wrap(err, "scheduler: voice engine reset")
	}
	s := &Scheduler{
		engine:     engine,
		store:      store,
		blockSize:  opts.BlockSize,
		sampleRate: opts.SampleRate,
		logger:     opts.Logger,
		smoother:   param.NewSmoother(opts.SampleRate, smoothingSec),
		block:      make([][]float32, opts.Channels),
		view:       make([][]float32, opts.Channels),
	}
	for ch := range s.block {
		s.block[ch] = make([]float32, opts.BlockSize)
	}
	s.ctx.SampleRate = opts.SampleRate
	s.logger.Debug("scheduler ready",
		"block_size", s.blockSize,
		"sample_rate", s.sampleRate,
		"channels", opts.Channels)
	return s, nil
}

// Process renders buf.Frames frames into buf.Out. Every event in events is
// dispatched exactly once, in offset order, and the queue is emptied.
// A non-positive frame count does nothing.
func (s *Scheduler) Process(buf Buffer, events *midiq.Queue, tr Transport) {
	n := buf.Frames
	if n <= 0 {
		return
	}
	if events != nil {
		events.Clamp(n)
	}
	s.beginBuffer(tr)

	blocks := n / s.blockSize
	rem := n % s.blockSize
	for i := 0; i < blocks; i++ {
		s.runBlock(buf, events, i*s.blockSize, s.blockSize)
		s.ctx.SamplePos += int64(s.blockSize)
		s.ctx.TimeSec += float64(s.blockSize) / s.sampleRate
	}
	if rem > 0 {
		s.runBlock(buf, events, n-rem, rem)
	}
	if events != nil {
		events.Reset()
	}
}

// beginBuffer re-derives the running timeline from the host so a seek or
// loop in the host never leaves stale counters behind.
func (s *Scheduler) beginBuffer(tr Transport) {
	s.ctx.SamplePos = tr.SamplePos
	s.ctx.TimeSec = tr.TimeSec
	s.ctx.Tempo = tr.Tempo
	if s.ctx.Tempo <= 0 {
		s.ctx.Tempo = 120
	}
	s.ctx.TimeSigNum, s.ctx.TimeSigDen = tr.TimeSigNum, tr.TimeSigDen
	if s.ctx.TimeSigNum <= 0 || s.ctx.TimeSigDen <= 0 {
		s.ctx.TimeSigNum, s.ctx.TimeSigDen = 4, 4
	}
}

func (s *Scheduler) runBlock(buf Buffer, events *midiq.Queue, start, size int) {
	s.ctx.Start = start
	s.ctx.Size = size

	s.smoother.Retarget(s.store)
	for off := start; off < start+size; off++ {
		if events != nil {
			for {
				ev, ok := events.PopAt(off)
				if !ok {
					break
				}
				s.engine.HandleEvent(ev, off-start)
			}
		}
		s.smoother.Tick()
	}

	s.store.Snapshot(&s.snap)
	s.smoother.Apply(&s.snap)
	modroute.Rebuild(&s.snap, &s.table)
	stepseq.Configure(&s.snap, &s.seq)

	for ch := range s.block {
		v := s.block[ch][:size]
		for i := range v {
			v[i] = 0
		}
		s.view[ch] = v
	}
	s.meters = s.engine.Render(&s.ctx, &s.table, &s.seq, &s.snap, s.view)

	last := len(s.view) - 1
	for ch, dst := range buf.Out {
		if start >= len(dst) {
			continue
		}
		src := s.view[min(ch, last)]
		copy(dst[start:], src)
	}
	s.readback()
}

func (s *Scheduler) readback() {
	for lane := range s.meters {
		for step, v := range s.meters[lane] {
			s.store.SetMeter(param.MeterID(lane, step), v)
		}
	}
}

// Position returns the running timeline after the last full block.
func (s *Scheduler) Position() (samplePos int64, timeSec float64) {
	return s.ctx.SamplePos, s.ctx.TimeSec
}

func (s *Scheduler) BlockSize() int { return s.blockSize }

func (s *Scheduler) SampleRate() float64 { return s.sampleRate }

// Meters returns the readback of the most recent block.
func (s *Scheduler) Meters() Meters { return s.meters }

// Table returns the routing table rebuilt for the most recent block.
func (s *Scheduler) Table() *modroute.Table { return &s.table }

// Sequencer returns the sequencer configuration rebuilt for the most recent block.
func (s *Scheduler) Sequencer() *stepseq.Config { return &s.seq }
