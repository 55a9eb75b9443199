package engine

import (
	"github.com/roach88/feedsync/internal/domain"
)

// Snapshot returns the most recently published state.
//
// The returned snapshot is shared and must not be modified; use Clone for a
// private copy. It is never nil.
func (e *Engine) Snapshot() *domain.Snapshot {
	return e.current.Load()
}

// Subscribe returns a channel that receives a signal after each published
// change, and a function that cancels the subscription.
//
// Signals coalesce: a slow reader sees at least one signal after the last
// change, not one per change. Read Snapshot() after each signal.
func (e *Engine) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subsMu.Unlock()

	cancel := func() {
		e.subsMu.Lock()
		delete(e.subs, id)
		e.subsMu.Unlock()
	}
	return ch, cancel
}

// publish bumps the version and swaps in an immutable copy of the loop
// state. Called only from Run.
func (e *Engine) publish() {
	e.state.Version++
	e.current.Store(e.state.Clone())

	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
