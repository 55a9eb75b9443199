package testutil

import "sync"

// DeterministicClock is an engine.Sequencer for tests. It remembers every
// value it hands out so a test can check how many tickets an operation drew.
type DeterministicClock struct {
	mu     sync.Mutex
	last   int64
	issued []int64
}

// NewDeterministicClock returns a clock whose first Next is 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	c.issued = append(c.issued, c.last)
	return c.last
}

func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Issued returns a copy of every value handed out, in order.
func (c *DeterministicClock) Issued() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.issued...)
}

// Reset rewinds the clock so a scenario can be replayed with the same seqs.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = 0
	c.issued = nil
}
