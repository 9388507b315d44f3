package midiq

import (
	"testing"
)

func TestPushKeepsOffsetOrderAndArrivalOrder(t *testing.T) {
	q := NewQueue(8)
	q.Push(NoteOn(30, 0, 60, 100))
	q.Push(NoteOn(10, 0, 61, 100))
	q.Push(NoteOn(30, 0, 62, 100))
	q.Push(NoteOn(0, 0, 63, 100))
	q.Push(NoteOn(10, 0, 64, 100))

	wantKeys := []uint8{63, 61, 64, 60, 62}
	wantOffsets := []int{0, 10, 10, 30, 30}
	for i := range wantKeys {
		ev, ok := q.PopAt(1 << 20)
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		var ch, key, vel uint8
		if !ev.Msg.GetNoteOn(&ch, &key, &vel) {
			t.Fatalf("pop %d: not a note on: %v", i, ev.Msg)
		}
		if key != wantKeys[i] || ev.Offset != wantOffsets[i] {
			t.Fatalf("pop %d = key %d @%d, want key %d @%d", i, key, ev.Offset, wantKeys[i], wantOffsets[i])
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, %d left", q.Len())
	}
}

func TestPopAtOnlyReturnsDueEvents(t *testing.T) {
	q := NewQueue(4)
	q.Push(CC(5, 0, 1, 64))
	if _, ok := q.PopAt(4); ok {
		t.Fatalf("event at 5 popped at 4")
	}
	if _, ok := q.PopAt(5); !ok {
		t.Fatalf("event at 5 not popped at 5")
	}
	if _, ok := q.PopAt(5); ok {
		t.Fatalf("event popped twice")
	}
}

func TestClampPullsStrayOffsetsIntoBuffer(t *testing.T) {
	q := NewQueue(4)
	q.Push(NoteOff(-3, 0, 60))
	q.Push(NoteOn(12, 0, 60, 90))
	q.Push(NoteOn(500, 0, 62, 90))
	q.Clamp(100)
	want := []int{0, 12, 99}
	for i, w := range want {
		ev, ok := q.PopAt(99)
		if !ok || ev.Offset != w {
			t.Fatalf("event %d offset = %d,%v want %d", i, ev.Offset, ok, w)
		}
	}
}

func TestResetKeepsCapacity(t *testing.T) {
	q := NewQueue(16)
	for i := 0; i < 10; i++ {
		q.Push(NoteOn(i, 0, 60, 100))
	}
	q.PopAt(3)
	q.Reset()
	if q.Len() != 0 {
		t.Fatalf("len after reset = %d", q.Len())
	}
	if cap(q.events) != 16 {
		t.Fatalf("capacity changed to %d", cap(q.events))
	}
	a, b := NoteOn(1, 0, 60, 100), NoteOn(0, 0, 61, 100)
	allocs := testing.AllocsPerRun(100, func() {
		q.Push(a)
		q.Push(b)
		q.Reset()
	})
	if allocs != 0 {
		t.Fatalf("push/reset allocated %v times", allocs)
	}
}
