package param

import (
	"math"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Store holds the current value of every parameter. Writers (UI, automation,
// config) and the audio thread share it without locks; each value is an
// atomically swapped float64.
type Store struct {
	values [Count]uint64
}

func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset restores every parameter to its declared default.
func (s *Store) Reset() {
	for i := range table {
		atomic.StoreUint64(&s.values[i], math.Float64bits(table[i].Default))
	}
}

func (s *Store) Get(id ID) float64 {
	return math.Float64frombits(atomic.LoadUint64(&s.values[id]))
}

// Set stores v after clamping it to the declared range and rounding
// integral kinds. It returns the value actually stored.
func (s *Store) Set(id ID, v float64) float64 {
	v = table[id].Normalize(v)
	atomic.StoreUint64(&s.values[id], math.Float64bits(v))
	return v
}

// SetMeter writes a readback value without range handling.
func (s *Store) SetMeter(id ID, v float64) {
	atomic.StoreUint64(&s.values[id], math.Float64bits(v))
}

// SetByName resolves name and stores v.
func (s *Store) SetByName(name string, v float64) error {
	id, ok := Lookup(name)
	if !ok {
		return errors.Errorf("unknown parameter %q", name)
	}
	if table[id].Kind == Meter {
		return errors.Errorf("parameter %q is read-only", name)
	}
	s.Set(id, v)
	return nil
}

// Snapshot copies every current value into dst.
func (s *Store) Snapshot(dst *Snapshot) {
	for i := range s.values {
		dst.values[i] = math.Float64frombits(atomic.LoadUint64(&s.values[i]))
	}
}

// Normalize clamps v into [Min, Max] and rounds Integer, Enum and Toggle kinds.
func (p Param) Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return p.Default
	}
	if p.Kind == Meter {
		return v
	}
	if p.Kind != Continuous {
		v = math.Round(v)
	}
	if v < p.Min {
		v = p.Min
	}
	if v > p.Max {
		v = p.Max
	}
	return v
}

// Snapshot is the set of parameter values read at the start of a block's
// rebuild. It is a plain array so it can be copied and kept on the stack.
type Snapshot struct {
	values [Count]float64
}

// DefaultSnapshot returns a snapshot holding every declared default.
func DefaultSnapshot() Snapshot {
	var s Snapshot
	for i := range table {
		s.values[i] = table[i].Default
	}
	return s
}

func (s *Snapshot) Float(id ID) float64 { return s.values[id] }

func (s *Snapshot) Int(id ID) int { return int(math.Round(s.values[id])) }

func (s *Snapshot) Bool(id ID) bool { return s.values[id] >= 0.5 }

// Set overwrites one value in the snapshot. The store is untouched.
func (s *Snapshot) Set(id ID, v float64) { s.values[id] = v }
