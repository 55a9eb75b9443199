package engine

import (
	"context"
	"sync"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeDispatch marks a resource pending and issues a request ticket.
	EventTypeDispatch EventType = iota + 1
	// EventTypeCompletion applies (or discards) the result of a request.
	EventTypeCompletion
	// EventTypeCommand is a local mutation with no remote call (restore, logout, clear).
	EventTypeCommand
)

// String returns the event type name used in logs.
func (t EventType) String() string {
	switch t {
	case EventTypeDispatch:
		return "dispatch"
	case EventTypeCompletion:
		return "completion"
	case EventTypeCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Event is a unit of work for the Run loop.
//
// apply runs on the loop goroutine and reports whether it changed engine
// state; done is closed once apply has returned.
type Event struct {
	Type EventType
	Op   string
	Key  string

	apply func(ctx context.Context) bool
	done  chan struct{}
}

// eventQueue is the loop's inbox: an unbounded FIFO that any goroutine may
// push to. signal holds at most one pending wake-up and is closed by Close,
// so the loop can select on it together with ctx.Done.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends e. It reports false once the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}

	q.events = append(q.events, e)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the oldest event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	q.events[0] = Event{} // release the apply closure
	q.events = q.events[1:]
	return e, true
}

// Wait returns the wake-up channel. A receive means events may be queued;
// a closed channel means Close was called.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close rejects further events. Already queued events stay poppable.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
