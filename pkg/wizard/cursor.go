package wizard

import "fmt"

// StepStatus is the progress state of one step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepActive
	StepDone
)

func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepActive:
		return "active"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// Cursor is the index of the active step within a flow.
type Cursor struct {
	pos int
	n   int
}

// NewCursor returns a cursor at the first of n steps.
func NewCursor(n int) *Cursor {
	return &Cursor{n: n}
}

// Position returns the active index.
func (c *Cursor) Position() int {
	return c.pos
}

// Len returns the number of steps.
func (c *Cursor) Len() int {
	return c.n
}

func (c *Cursor) IsFirst() bool {
	return c.pos == 0
}

func (c *Cursor) IsLast() bool {
	return c.pos == c.n-1
}

// Advance moves forward by one. It reports false on the last step.
func (c *Cursor) Advance() bool {
	if c.IsLast() {
		return false
	}
	c.pos++
	return true
}

// Set moves directly to index i.
func (c *Cursor) Set(i int) error {
	if i < 0 || i >= c.n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrStepOutOfRange, i, c.n)
	}
	c.pos = i
	return nil
}

// Progress returns one status per step: done before the cursor, active at
// it and pending after it.
func (c *Cursor) Progress() []StepStatus {
	out := make([]StepStatus, c.n)
	for i := range out {
		switch {
		case i < c.pos:
			out[i] = StepDone
		case i == c.pos:
			out[i] = StepActive
		default:
			out[i] = StepPending
		}
	}
	return out
}
