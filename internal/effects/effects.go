// Package effects is the master bus that runs after the scheduler has
// written a host buffer.
package effects

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Effect processes the first n frames of planar channels in place.
type Effect interface {
	Process(out [][]float32, n int)
	Reset()
}

// Bus runs effects in insertion order.
type Bus struct {
	effects []Effect
}

func NewBus(effects ...Effect) *Bus {
	return &Bus{effects: effects}
}

func (b *Bus) Add(e Effect) { b.effects = append(b.effects, e) }

func (b *Bus) Len() int { return len(b.effects) }

func (b *Bus) Process(out [][]float32, n int) {
	if b == nil {
		return
	}
	for _, e := range b.effects {
		e.Process(out, n)
	}
}

func (b *Bus) Reset() {
	for _, e := range b.effects {
		e.Reset()
	}
}

// Config names an effect and its settings, as read from configuration.
type Config struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params"`
}

func (c Config) get(name string, def float64) float64 {
	if v, ok := c.Params[name]; ok {
		return v
	}
	return def
}

func (c Config) check(known ...string) error {
	var unknown []string
	for k := range c.Params {
		found := false
		for _, n := range known {
			if k == n {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return errors.Errorf("effects: %s: unknown params %s", c.Type, strings.Join(unknown, ", "))
	}
	return nil
}

// Build creates a bus from units. Unknown types and settings are errors.
func Build(units []Config, sampleRate int) (*Bus, error) {
	if sampleRate <= 0 {
		return nil, errors.Errorf("effects: invalid sample rate %d", sampleRate)
	}
	bus := NewBus()
	for i, s := range units {
		var (
			e   Effect
			err error
		)
		switch strings.ToLower(s.Type) {
		case "delay":
			if err = s.check("time_ms", "feedback", "cross", "wet"); err == nil {
				e = NewDelay(sampleRate, s.get("time_ms", 250), float32(s.get("feedback", 0.4)),
					float32(s.get("cross", 0.2)), float32(s.get("wet", 0.3)))
			}
		case "reverb":
			if err = s.check("room", "feedback", "wet"); err == nil {
				e = NewReverb(sampleRate, float32(s.get("room", 0.5)),
					float32(s.get("feedback", 0.7)), float32(s.get("wet", 0.25)))
			}
		case "chorus":
			if err = s.check("delay_ms", "depth_ms", "rate_hz", "feedback", "wet"); err == nil {
				e = NewChorus(sampleRate, s.get("delay_ms", 15), s.get("depth_ms", 3), s.get("rate_hz", 1.5),
					float32(s.get("feedback", 0.3)), float32(s.get("wet", 0.4)))
			}
		case "distortion", "dist":
			if err = s.check("drive", "level", "tone_hz"); err == nil {
				e = NewDistortion(sampleRate, s.get("drive", 4), s.get("level", 0.5), s.get("tone_hz", 8000))
			}
		case "compressor", "comp":
			if err = s.check("threshold_db", "ratio", "attack_ms", "release_ms", "makeup_db"); err == nil {
				e = NewCompressor(sampleRate, s.get("threshold_db", -20), s.get("ratio", 4),
					s.get("attack_ms", 5), s.get("release_ms", 100), s.get("makeup_db", 0))
			}
		case "eq":
			if err = s.check("low", "low_mid", "mid", "high_mid", "high"); err == nil {
				eq := NewMasterEQ(sampleRate)
				for band, name := range BandNames {
					eq.SetGain(band, float32(s.get(name, 1)))
				}
				e = eq
			}
		default:
			err = errors.Errorf("effects: unknown effect type %q", s.Type)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "effect %d", i)
		}
		bus.Add(e)
	}
	return bus, nil
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
