package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbegin/seqsynth-go/internal/param"
)

const sample = `
sample_rate: 44100
block_size: 32
tempo: 96
time_signature: [3, 4]
midi_in: "Launchkey"
params:
  filter.cutoff: 1200
  seq.enabled: 1
  mod.lfo1.to.osc_pitch: 1
effects:
  - type: delay
    params:
      time_ms: 180
`

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.SampleRate != 44100 || cfg.BlockSize != 32 || cfg.Tempo != 96 {
		t.Fatalf("parsed = %+v", cfg)
	}
	if cfg.BufferFrames != Default().BufferFrames {
		t.Fatalf("missing key did not keep default: %d", cfg.BufferFrames)
	}
	if cfg.TimeSignature != [2]int{3, 4} || cfg.MIDIIn != "Launchkey" {
		t.Fatalf("time signature / midi = %v / %q", cfg.TimeSignature, cfg.MIDIIn)
	}
	if len(cfg.Effects) != 1 || cfg.Effects[0].Params["time_ms"] != 180 {
		t.Fatalf("effects = %+v", cfg.Effects)
	}
}

func TestParseEmptyIsDefault(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.SampleRate != Default().SampleRate || cfg.Tempo != Default().Tempo {
		t.Fatalf("empty config = %+v", cfg)
	}
}

func TestParseRejects(t *testing.T) {
	for _, tc := range []struct {
		name, doc, want string
	}{
		{"unknown key", "sample_rat: 1", "field sample_rat not found"},
		{"zero rate", "sample_rate: 0", "sample_rate must be positive"},
		{"bad meter", "time_signature: [0, 4]", "time_signature"},
		{"negative tempo", "tempo: -1", "tempo must be positive"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestApplyWritesStore(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	store := param.NewStore()
	if err := cfg.Apply(store); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if store.Get(param.Cutoff) != 1200 || store.Get(param.SeqEnabled) != 1 {
		t.Fatalf("store cutoff=%v seq=%v", store.Get(param.Cutoff), store.Get(param.SeqEnabled))
	}

	cfg.Params = map[string]float64{"filter.cutof": 1}
	if err := cfg.Apply(store); err == nil {
		t.Fatalf("expected unknown parameter error")
	}
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inst.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out := filepath.Join(dir, "out.yaml")
	if err := cfg.Save(out); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := Load(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Tempo != cfg.Tempo || again.Params["filter.cutoff"] != 1200 {
		t.Fatalf("reloaded = %+v", again)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
