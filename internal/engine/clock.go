package engine

import "sync/atomic"

// Sequencer hands out request sequence numbers. Each call to Next must
// return a value greater than every value returned before it.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is the default Sequencer: a logical counter shared by dispatch
// tickets and journal completions. Staleness compares these numbers per
// resource key and never looks at wall time.
type Clock struct {
	n atomic.Int64
}

// NewClock returns a Clock whose first Next is 1.
func NewClock() *Clock {
	return NewClockAt(0)
}

// NewClockAt returns a Clock whose first Next is last+1. The CLI seeds it
// with the journal's highest seq.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.n.Store(last)
	return c
}

// Next advances the clock.
func (c *Clock) Next() int64 {
	return c.n.Add(1)
}

// Current reports the last value handed out.
func (c *Clock) Current() int64 {
	return c.n.Load()
}
