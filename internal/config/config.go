// Package config loads the YAML instrument file shared by the binaries.
package config

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cbegin/seqsynth-go/internal/effects"
	"github.com/cbegin/seqsynth-go/internal/param"
)

// Config is one instrument setup. Zero fields fall back to Default.
type Config struct {
	SampleRate    int                `yaml:"sample_rate"`
	BlockSize     int                `yaml:"block_size"`
	BufferFrames  int                `yaml:"buffer_frames"`
	Tempo         float64            `yaml:"tempo"`
	TimeSignature [2]int             `yaml:"time_signature,flow"`
	MIDIIn        string             `yaml:"midi_in,omitempty"`
	Params        map[string]float64 `yaml:"params,omitempty"`
	Effects       []effects.Config   `yaml:"effects,omitempty"`
}

func Default() Config {
	return Config{
		SampleRate:    48000,
		BlockSize:     64,
		BufferFrames:  512,
		Tempo:         120,
		TimeSignature: [2]int{4, 4},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return errors.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	case c.BlockSize <= 0:
		return errors.Errorf("block_size must be positive, got %d", c.BlockSize)
	case c.BufferFrames <= 0:
		return errors.Errorf("buffer_frames must be positive, got %d", c.BufferFrames)
	case c.Tempo <= 0:
		return errors.Errorf("tempo must be positive, got %v", c.Tempo)
	case c.TimeSignature[0] <= 0 || c.TimeSignature[1] <= 0:
		return errors.Errorf("time_signature must be two positive numbers, got %v", c.TimeSignature)
	}
	return nil
}

// Apply writes every params entry into store in name order so a failure
// always reports the same parameter.
func (c Config) Apply(store *param.Store) error {
	names := make([]string, 0, len(c.Params))
	for name := range c.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := store.SetByName(name, c.Params[name]); err != nil {
			return errors.Wrap(err, "config: params")
		}
	}
	return nil
}

// Save writes c as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "config: encode")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "config: write %s", path)
}
