package seqsynth

import (
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
	wav "github.com/youpy/go-wav"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/seqsynth-go/internal/midiq"
)

// smfDefaultTempo applies until a file's first tempo event when no
// other tempo is configured.
const smfDefaultTempo = 120.0

type timedEvent struct {
	frame int64
	msg   gomidi.Message
}

type tempoSegment struct {
	tick  int64
	sec   float64
	frame int64
	bpm   float64
}

// tempoMap converts absolute ticks to seconds across tempo changes.
type tempoMap struct {
	resolution float64
	sampleRate float64
	segments   []tempoSegment
}

// newTempoMap starts at initialBPM until the file's first tempo event.
func newTempoMap(s *smf.SMF, sampleRate int, initialBPM float64) (*tempoMap, error) {
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || mt == 0 {
		return nil, errors.Errorf("seqsynth: unsupported SMF time format %v", s.TimeFormat)
	}
	m := &tempoMap{resolution: float64(mt), sampleRate: float64(sampleRate)}
	if initialBPM <= 0 {
		initialBPM = smfDefaultTempo
	}
	m.segments = append(m.segments, tempoSegment{bpm: initialBPM})
	for _, tc := range s.TempoChanges() {
		if tc.BPM <= 0 {
			continue
		}
		last := &m.segments[len(m.segments)-1]
		if tc.AbsTicks <= last.tick {
			last.bpm = tc.BPM
			continue
		}
		sec := m.seconds(tc.AbsTicks)
		m.segments = append(m.segments, tempoSegment{
			tick:  tc.AbsTicks,
			sec:   sec,
			frame: int64(math.Round(sec * m.sampleRate)),
			bpm:   tc.BPM,
		})
	}
	return m, nil
}

func (m *tempoMap) segmentAtTick(tick int64) tempoSegment {
	i := sort.Search(len(m.segments), func(i int) bool { return m.segments[i].tick > tick })
	return m.segments[max(i-1, 0)]
}

func (m *tempoMap) seconds(tick int64) float64 {
	seg := m.segmentAtTick(tick)
	return seg.sec + float64(tick-seg.tick)/m.resolution*60/seg.bpm
}

func (m *tempoMap) frame(tick int64) int64 {
	return int64(math.Round(m.seconds(tick) * m.sampleRate))
}

// tempoAtFrame is the tempo in effect at a rendered frame.
func (m *tempoMap) tempoAtFrame(frame int64) float64 {
	i := sort.Search(len(m.segments), func(i int) bool { return m.segments[i].frame > frame })
	return m.segments[max(i-1, 0)].bpm
}

// smfEvents flattens every track into frame-ordered playable events.
func smfEvents(s *smf.SMF, tm *tempoMap) []timedEvent {
	var events []timedEvent
	for _, track := range s.Tracks {
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			msg := gomidi.Message(ev.Message)
			if !playable(msg) {
				continue
			}
			events = append(events, timedEvent{frame: tm.frame(tick), msg: msg})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].frame < events[j].frame })
	return events
}

// RenderSMF plays a Standard MIDI File through a fresh instrument and
// returns interleaved stereo samples. The file is fed in host-sized
// buffers (WithBufferFrames) and rendering continues for the tail after
// the last event. WithTempo sets the tempo until the file's first tempo
// event.
func RenderSMF(s *smf.SMF, sampleRate int, opts ...Option) ([]float32, error) {
	if s == nil {
		return nil, errors.New("seqsynth: nil SMF")
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bufferFrames <= 0 {
		return nil, errors.Errorf("seqsynth: buffer frames must be positive, got %d", cfg.bufferFrames)
	}
	tm, err := newTempoMap(s, sampleRate, cfg.tempo)
	if err != nil {
		return nil, err
	}
	in, err := NewInstrument(sampleRate, opts...)
	if err != nil {
		return nil, err
	}

	events := smfEvents(s, tm)
	var last int64
	if len(events) > 0 {
		last = events[len(events)-1].frame + 1
	}
	total := last + int64(math.Max(cfg.tailSec, 0)*float64(sampleRate))
	out := make([]float32, total*2)

	next := 0
	for pos := int64(0); pos < total; {
		n := min(int64(cfg.bufferFrames), total-pos)
		for next < len(events) && events[next].frame < pos+n {
			in.queue.Push(midiq.Event{Offset: int(events[next].frame - pos), Msg: events[next].msg})
			next++
		}
		in.SetTempo(tm.tempoAtFrame(pos))
		in.render(out[2*pos : 2*(pos+n)])
		pos += n
	}
	in.logger.Info("rendered SMF",
		"tracks", len(s.Tracks),
		"events", len(events),
		"frames", total,
		"seconds", float64(total)/float64(sampleRate))
	return out, nil
}

// RenderSMFFile reads path and renders it with RenderSMF.
func RenderSMFFile(path string, sampleRate int, opts ...Option) ([]float32, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "seqsynth: read %s", path)
	}
	return RenderSMF(s, sampleRate, opts...)
}

// WriteWAV encodes interleaved stereo float samples as 16-bit PCM.
func WriteWAV(w io.Writer, samples []float32, sampleRate int) error {
	frames := len(samples) / 2
	ww := wav.NewWriter(w, uint32(frames), 2, uint32(sampleRate), 16)
	out := make([]wav.Sample, frames)
	for i := range out {
		out[i].Values[0] = pcm16(samples[2*i])
		out[i].Values[1] = pcm16(samples[2*i+1])
	}
	return errors.Wrap(ww.WriteSamples(out), "seqsynth: write wav")
}

func pcm16(v float32) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(math.Round(float64(v) * math.MaxInt16))
}
