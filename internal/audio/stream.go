// Package audio feeds an interleaved float32 stereo source to the
// platform audio device through ebiten.
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/pkg/errors"
)

const (
	channels       = 2
	bytesPerSample = 4
	bytesPerFrame  = channels * bytesPerSample
)

// Source fills dst with interleaved stereo frames.
type Source interface {
	Process(dst []float32)
}

// Stream adapts a Source to the little-endian float32 byte stream
// ebiten's F32 players read.
type Stream struct {
	mu     sync.Mutex
	source Source
	buf    []float32
	frames int64
}

func NewStream(source Source) *Stream {
	return &Stream{source: source}
}

func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	need := frames * channels
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	s.buf = s.buf[:need]
	s.source.Process(s.buf)
	for i, v := range s.buf {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}
	s.frames += int64(frames)
	return frames * bytesPerFrame, nil
}

// Frames is the number of frames handed to the device so far.
func (s *Stream) Frames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Stream) Close() error { return nil }

// Output plays one Stream on the shared audio context.
type Output struct {
	player *ebitaudio.Player
	stream *Stream
}

var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextRate int
)

// sharedContext returns the process-wide ebiten audio context. ebiten
// allows only one, so a second sample rate is an error.
func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, errors.Errorf("audio: context already running at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

func NewOutput(sampleRate int, source Source) (*Output, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	stream := NewStream(source)
	pl, err := ctx.NewPlayerF32(stream)
	if err != nil {
		return nil, errors.Wrap(err, "audio: create player")
	}
	return &Output{player: pl, stream: stream}, nil
}

// SetBufferSize sets the device buffer length, which bounds live latency.
func (o *Output) SetBufferSize(d time.Duration) { o.player.SetBufferSize(d) }

func (o *Output) Play()           { o.player.Play() }
func (o *Output) Pause()          { o.player.Pause() }
func (o *Output) IsPlaying() bool { return o.player.IsPlaying() }

// Position returns what the listener is hearing now.
func (o *Output) Position() time.Duration { return o.player.Position() }

func (o *Output) Close() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return errors.Wrap(err, "audio: close player")
	}
	return o.stream.Close()
}

var _ io.ReadCloser = (*Stream)(nil)
