// Package midiq holds MIDI events addressed by sample offset within a host
// buffer and hands them out in offset order.
package midiq

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Event is one MIDI message scheduled at a sample offset within the
// current host buffer.
type Event struct {
	Offset int
	Msg    gomidi.Message
}

func NoteOn(offset int, channel, key, velocity uint8) Event {
	return Event{Offset: offset, Msg: gomidi.NoteOn(channel, key, velocity)}
}

func NoteOff(offset int, channel, key uint8) Event {
	return Event{Offset: offset, Msg: gomidi.NoteOff(channel, key)}
}

func CC(offset int, channel, controller, value uint8) Event {
	return Event{Offset: offset, Msg: gomidi.ControlChange(channel, controller, value)}
}

// Queue keeps events sorted by offset; events sharing an offset keep their
// arrival order. It is not safe for concurrent use.
type Queue struct {
	events []Event
	next   int
}

// NewQueue preallocates room for capacity events so pushes during audio
// processing do not allocate.
func NewQueue(capacity int) *Queue {
	return &Queue{events: make([]Event, 0, capacity)}
}

// Push inserts ev after every queued event with an offset <= ev.Offset.
func (q *Queue) Push(ev Event) {
	q.events = append(q.events, ev)
	i := len(q.events) - 1
	for i > q.next && q.events[i-1].Offset > ev.Offset {
		q.events[i] = q.events[i-1]
		i--
	}
	q.events[i] = ev
}

// Clamp pulls offsets outside [0, frames) to the nearest edge. Clamping is
// monotonic so the queue stays sorted.
func (q *Queue) Clamp(frames int) {
	if frames <= 0 {
		return
	}
	for i := q.next; i < len(q.events); i++ {
		if q.events[i].Offset < 0 {
			q.events[i].Offset = 0
		} else if q.events[i].Offset >= frames {
			q.events[i].Offset = frames - 1
		}
	}
}

// PopAt returns the next pending event if it is due at or before offset.
func (q *Queue) PopAt(offset int) (Event, bool) {
	if q.next >= len(q.events) || q.events[q.next].Offset > offset {
		return Event{}, false
	}
	ev := q.events[q.next]
	q.next++
	return ev, true
}

// Len is the number of events not yet popped.
func (q *Queue) Len() int { return len(q.events) - q.next }

// Reset drops every event and keeps the backing storage.
func (q *Queue) Reset() {
	for i := range q.events {
		q.events[i] = Event{}
	}
	q.events = q.events[:0]
	q.next = 0
}
