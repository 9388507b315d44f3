package param

import (
	"math"
	"testing"
)

func TestDeclarationsAreDenseAndNamed(t *testing.T) {
	tbl := Table()
	if len(tbl) != Count {
		t.Fatalf("table length = %d, want %d", len(tbl), Count)
	}
	for i, p := range tbl {
		if int(p.ID) != i {
			t.Fatalf("param %q at index %d has id %d", p.Name, i, p.ID)
		}
		if p.Min > p.Max {
			t.Fatalf("param %q min %v > max %v", p.Name, p.Min, p.Max)
		}
		if p.Default < p.Min || p.Default > p.Max {
			t.Fatalf("param %q default %v outside [%v, %v]", p.Name, p.Default, p.Min, p.Max)
		}
	}
}

func TestLookupByName(t *testing.T) {
	for _, tc := range []struct {
		name string
		want ID
	}{
		{"filter.cutoff", Cutoff},
		{"osc2.coarse", OscCoarse(1)},
		{"mod.lfo2.to.osc_pitch", RouteToggle(1, 0)},
		{"mod.velocity.amt.filter", RouteIntensity(4, 4)},
		{"seq.step3.pitch_prob", StepPitchProb(2)},
		{"seq.wave.loop_dir", LoopDirection(LaneWave)},
		{"meter.mod.8", MeterID(LaneMod, 7)},
	} {
		got, ok := Lookup(tc.name)
		if !ok || got != tc.want {
			t.Fatalf("Lookup(%q) = %d,%v want %d", tc.name, got, ok, tc.want)
		}
	}
	if _, ok := Lookup("no.such.param"); ok {
		t.Fatalf("expected unknown name to fail")
	}
}

func TestStoreSetClampsAndRounds(t *testing.T) {
	s := NewStore()
	if got := s.Get(Cutoff); got != 8000 {
		t.Fatalf("default cutoff = %v, want 8000", got)
	}
	if got := s.Set(Cutoff, 1e9); got != 20000 {
		t.Fatalf("cutoff clamp = %v, want 20000", got)
	}
	if got := s.Set(StepPitch(0), 3.6); got != 4 {
		t.Fatalf("integer rounding = %v, want 4", got)
	}
	if got := s.Set(LoopStart(LaneTiming), -3); got != 1 {
		t.Fatalf("loop start clamp = %v, want 1", got)
	}
	if got := s.Set(SeqEnabled, 0.7); got != 1 {
		t.Fatalf("toggle rounding = %v, want 1", got)
	}
	if got := s.Set(Resonance, math.NaN()); got != 0.2 {
		t.Fatalf("NaN should fall back to default, got %v", got)
	}
}

func TestSetByNameRejectsMetersAndUnknown(t *testing.T) {
	s := NewStore()
	if err := s.SetByName("master.gain", 0.25); err != nil {
		t.Fatalf("set master.gain: %v", err)
	}
	if got := s.Get(MasterGain); got != 0.25 {
		t.Fatalf("master gain = %v", got)
	}
	if err := s.SetByName("meter.timing.1", 1); err == nil {
		t.Fatalf("expected meter write to fail")
	}
	if err := s.SetByName("bogus", 1); err == nil {
		t.Fatalf("expected unknown name to fail")
	}
}

func TestSnapshotCopiesStore(t *testing.T) {
	s := NewStore()
	s.Set(FMAmount, 0.5)
	s.SetMeter(MeterID(LanePitch, 3), 7)
	var snap Snapshot
	s.Snapshot(&snap)
	if snap.Float(FMAmount) != 0.5 {
		t.Fatalf("snapshot fm = %v", snap.Float(FMAmount))
	}
	if snap.Int(MeterID(LanePitch, 3)) != 7 {
		t.Fatalf("snapshot meter = %v", snap.Float(MeterID(LanePitch, 3)))
	}
	s.Set(FMAmount, 0.9)
	if snap.Float(FMAmount) != 0.5 {
		t.Fatalf("snapshot must not follow later writes")
	}
}

func TestSmootherGlidesTowardTarget(t *testing.T) {
	store := NewStore()
	sm := NewSmoother(48000, 0.01)
	sm.Retarget(store)
	if v, _ := sm.Value(MasterGain); v != 0.7 {
		t.Fatalf("first retarget should jump, got %v", v)
	}
	store.Set(MasterGain, 0)
	sm.Retarget(store)
	prev := 0.7
	for i := 0; i < 64; i++ {
		sm.Tick()
		v, _ := sm.Value(MasterGain)
		if v >= prev || v < 0 {
			t.Fatalf("sample %d: %v should fall monotonically from %v", i, v, prev)
		}
		prev = v
	}
	for i := 0; i < 48000; i++ {
		sm.Tick()
	}
	snap := DefaultSnapshot()
	sm.Apply(&snap)
	if math.Abs(snap.Float(MasterGain)) > 1e-6 {
		t.Fatalf("smoothed gain should settle near 0, got %v", snap.Float(MasterGain))
	}
	if _, ok := sm.Value(FMAmount); ok {
		t.Fatalf("fm amount is not smoothed")
	}
}
