package stepseq

import "math/rand"

// Cursor walks a lane's loop window. The voice engine owns one per lane;
// the configuration itself never holds a position.
type Cursor struct {
	pos int // 1-based
	dir int
}

// Reset places the cursor on the first step the window plays.
func (c *Cursor) Reset(w LoopWindow) {
	c.dir = 1
	c.pos = w.Start
	if w.Direction == Backward {
		c.pos = w.End
	}
}

// Step returns the current 0-based step index.
func (c *Cursor) Step() int {
	if c.pos < 1 {
		return 0
	}
	return c.pos - 1
}

// Advance moves to the next step of w and returns its 0-based index. A
// window edited under a running cursor is re-entered from its first step.
// With randomize set, any step of the window may follow.
func (c *Cursor) Advance(w LoopWindow, randomize bool, rng *rand.Rand) int {
	if c.dir == 0 {
		c.dir = 1
	}
	switch {
	case randomize && rng != nil:
		c.pos = w.Start + rng.Intn(w.Len())
	case !w.Contains(c.pos):
		c.Reset(w)
	case w.Direction == Backward:
		c.pos--
		if c.pos < w.Start {
			c.pos = w.End
		}
	case w.Direction == PingPong:
		if w.Len() == 1 {
			break
		}
		next := c.pos + c.dir
		if next > w.End {
			c.dir = -1
			next = c.pos - 1
		} else if next < w.Start {
			c.dir = 1
			next = c.pos + 1
		}
		c.pos = next
	default:
		c.pos++
		if c.pos > w.End {
			c.pos = w.Start
		}
	}
	return c.pos - 1
}
