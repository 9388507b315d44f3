package modroute

import (
	"strings"
	"testing"

	"github.com/cbegin/seqsynth-go/internal/param"
)

func TestRouteMapCoversEveryDestinationOnce(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("route map: %v", err)
	}
}

func TestValidateRejectsBrokenRouteMaps(t *testing.T) {
	saved := Routes
	defer func() { Routes = saved }()

	Routes[1].Dests = append([]Destination{Routes[0].Dests[0]}, saved[1].Dests...)
	if err := Validate(); err == nil || !strings.Contains(err.Error(), "wired by 2 toggles") {
		t.Fatalf("duplicate destination: err = %v", err)
	}

	Routes = saved
	Routes[0].Intensity = param.NumIntensityGroups
	if err := Validate(); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("bad intensity group: err = %v", err)
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	snap := param.DefaultSnapshot()
	snap.Set(param.RouteToggle(int(LFO1), GroupOscPitch), 1)
	snap.Set(param.RouteIntensity(int(LFO1), AmountPitch), 0.5)
	snap.Set(param.RouteToggle(int(ModEnv), GroupCutoffEnv), 1)
	snap.Set(param.RouteIntensity(int(ModEnv), AmountFilter), -0.25)

	var a, b Table
	Rebuild(&snap, &a)
	Rebuild(&snap, &a)
	Rebuild(&snap, &b)
	if a != b {
		t.Fatalf("rebuild with unchanged snapshot produced different tables")
	}
}

func TestRebuildOverwritesStaleChannels(t *testing.T) {
	var tbl Table
	for s := range tbl {
		for d := range tbl[s] {
			tbl[s][d] = Channel{Enabled: true, Intensity: 99}
		}
	}
	snap := param.DefaultSnapshot()
	Rebuild(&snap, &tbl)
	for s := range tbl {
		for d := range tbl[s] {
			if tbl[s][d].Enabled || tbl[s][d].Intensity != 0 {
				t.Fatalf("channel %s->%s left stale: %+v", Source(s), Destination(d), tbl[s][d])
			}
		}
	}
}

func TestToggleFansOutAcrossOscillatorPitches(t *testing.T) {
	snap := param.DefaultSnapshot()
	snap.Set(param.RouteToggle(int(LFO2), GroupOscPitch), 1)
	snap.Set(param.RouteIntensity(int(LFO2), AmountPitch), 0.8)

	var tbl Table
	Rebuild(&snap, &tbl)
	for _, d := range []Destination{Osc1Pitch, Osc2Pitch, Osc3Pitch} {
		ch := tbl[LFO2][d]
		if !ch.Enabled || ch.Intensity != 0.8 {
			t.Fatalf("%s: got %+v, want enabled with 0.8", d, ch)
		}
	}
	for d := Destination(0); d < NumDestinations; d++ {
		if d == Osc1Pitch || d == Osc2Pitch || d == Osc3Pitch {
			continue
		}
		if tbl[LFO2][d].Enabled {
			t.Fatalf("%s should stay disabled for lfo2", d)
		}
	}
	for s := 0; s < NumSources; s++ {
		if Source(s) != LFO2 && tbl[s][Osc1Pitch].Enabled {
			t.Fatalf("source %s should not be enabled", Source(s))
		}
	}
}

func TestSharedIntensityWithIndependentEnables(t *testing.T) {
	snap := param.DefaultSnapshot()
	snap.Set(param.SourceAmount(int(Velocity)), 0.5)
	snap.Set(param.RouteIntensity(int(Velocity), AmountFilter), 0.6)
	snap.Set(param.RouteToggle(int(Velocity), GroupCutoffEnv), 1)

	var tbl Table
	Rebuild(&snap, &tbl)
	bipolar := tbl[Velocity][Cutoff]
	env := tbl[Velocity][CutoffEnv]
	if bipolar.Intensity != env.Intensity || env.Intensity != 0.3 {
		t.Fatalf("intensities should share one knob: cutoff=%v cutoff_env=%v", bipolar.Intensity, env.Intensity)
	}
	if bipolar.Enabled || !env.Enabled {
		t.Fatalf("enables should be independent: cutoff=%v cutoff_env=%v", bipolar.Enabled, env.Enabled)
	}
}

func TestSumOnlyCountsEnabledChannels(t *testing.T) {
	snap := param.DefaultSnapshot()
	snap.Set(param.RouteToggle(int(LFO1), GroupPan), 1)
	snap.Set(param.RouteIntensity(int(LFO1), AmountPan), 0.5)
	snap.Set(param.RouteIntensity(int(LFO2), AmountPan), 1)

	var tbl Table
	Rebuild(&snap, &tbl)
	values := [NumSources]float64{1, 1, 1, 1, 1, 1}
	if got := tbl.Sum(Pan, &values); got != 0.5 {
		t.Fatalf("pan sum = %v, want 0.5", got)
	}
}
