package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/feedsync/internal/api"
	"github.com/roach88/feedsync/internal/domain"
	"github.com/roach88/feedsync/internal/store"
)

// Gateway is the remote API the engine synchronizes with.
// Implemented by *api.Client.
type Gateway interface {
	Login(ctx context.Context, email, password string) (domain.SessionInfo, error)
	FetchPosts(ctx context.Context, token string) ([]domain.Post, error)
	SendPost(ctx context.Context, token, text string) (domain.Post, error)
	SendReply(ctx context.Context, token, postID, text string) (domain.Reply, error)
	FetchReplies(ctx context.Context, token, postID string) ([]domain.Reply, error)
	ToggleReaction(ctx context.Context, token, postID string, rt domain.ReactionType) (domain.Post, error)
}

// TokenStore persists the session token. Implemented by *store.Store.
// The engine is its only writer.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Journal records every dispatched request and its completion.
// Implemented by *store.Store. Journal failures are logged and ignored.
type Journal interface {
	WriteDispatch(ctx context.Context, d store.Dispatch) error
	WriteCompletion(ctx context.Context, c store.Completion) error
}

// Engine is the single-writer state synchronization loop.
//
// Session, feed, reply and status state is owned by the Run goroutine.
// Operations may be called from any goroutine: they enqueue a dispatch
// event, perform the remote call on the caller's goroutine, then enqueue a
// completion event. Readers use Snapshot and Subscribe.
//
// Thread-safety model:
//   - operations, Snapshot(), Subscribe(), Stop(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// Operations block until Run has processed their events, so Run must be
// started before any operation is called.
type Engine struct {
	gateway Gateway
	tokens  TokenStore
	journal Journal
	seq     Sequencer
	ids     RequestIDGenerator
	queue   *eventQueue

	// Loop-owned. Never touched outside Run.
	state   *domain.Snapshot
	tracker *tracker
	epoch   int64

	current atomic.Pointer[domain.Snapshot]

	subsMu  sync.Mutex
	subs    map[int]chan struct{}
	nextSub int

	stopped  chan struct{}
	stopOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records dispatches and completions to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithSequencer replaces the default Clock.
func WithSequencer(s Sequencer) Option {
	return func(e *Engine) {
		e.seq = s
	}
}

// WithRequestIDs replaces the default UUIDv7 request id generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// New creates an Engine. Call RestoreSession after Run has started to pick
// up a persisted token.
func New(gateway Gateway, tokens TokenStore, opts ...Option) *Engine {
	e := &Engine{
		gateway: gateway,
		tokens:  tokens,
		seq:     NewClock(),
		ids:     UUIDv7Generator{},
		queue:   newEventQueue(),
		state:   domain.EmptySnapshot(),
		tracker: newTracker(),
		subs:    make(map[int]chan struct{}),
		stopped: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.current.Store(e.state.Clone())
	return e
}

// Run starts the single-writer event loop.
// Blocks until context is cancelled or Stop() is called.
//
// Events still queued when the loop ends are dropped; their callers
// receive a Stopped error.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")
	defer e.markStopped()

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			e.processEvent(ctx, event)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case _, open := <-e.queue.Wait():
			// The signal channel is closed by Stop; drain what is left first.
			if !open && e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine.
// Events already queued are processed before Run returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Done returns a channel that is closed when Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.stopped
}

// QueueLen returns the number of events waiting for the loop.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

func (e *Engine) markStopped() {
	e.stopOnce.Do(func() {
		e.queue.Close()
		close(e.stopped)
	})
}

// processEvent applies one event and publishes a new snapshot if it changed
// anything. Called only from Run.
func (e *Engine) processEvent(ctx context.Context, ev Event) {
	slog.Debug("processing event", "type", ev.Type.String(), "op", ev.Op, "key", ev.Key)

	if ev.apply(ctx) {
		e.publish()
	}
	close(ev.done)
}

// exec runs fn on the loop and waits for it. Returns false if the engine
// stopped before fn ran.
func (e *Engine) exec(typ EventType, op, key string, fn func(ctx context.Context) bool) bool {
	ev := Event{Type: typ, Op: op, Key: key, apply: fn, done: make(chan struct{})}
	if !e.queue.Enqueue(ev) {
		return false
	}

	select {
	case <-ev.done:
		return true
	case <-e.stopped:
		select {
		case <-ev.done:
			return true
		default:
			return false
		}
	}
}

// issue stamps a new request ticket for key. Called only from Run.
func (e *Engine) issue(ctx context.Context, op, key, token string) ticket {
	t := ticket{
		RequestID: e.ids.Generate(),
		Seq:       e.seq.Next(),
		Op:        op,
		Key:       key,
		Epoch:     e.epoch,
		Token:     token,
	}
	e.tracker.issue(key, t.Seq)

	if e.journal != nil {
		err := e.journal.WriteDispatch(ctx, store.Dispatch{
			RequestID:    t.RequestID,
			Seq:          t.Seq,
			Op:           op,
			Key:          key,
			SessionEpoch: t.Epoch,
		})
		if err != nil {
			slog.Warn("journal dispatch failed", "request_id", t.RequestID, "error", err)
		}
	}

	slog.Debug("request dispatched",
		"op", op,
		"key", key,
		"seq", t.Seq,
		"request_id", t.RequestID,
	)
	return t
}

// admit decides whether the completion of t may change state: the session
// it was issued under must still be current and no newer completion for the
// same key may have been applied. Called only from Run.
func (e *Engine) admit(ctx context.Context, t ticket, opErr *OpError) bool {
	reason := ""
	switch {
	case !e.sessionCurrent(t):
		reason = "session ended"
	case !e.tracker.accept(t.Key, t.Seq):
		reason = "stale"
	}
	applied := reason == ""

	if e.journal != nil {
		c := store.Completion{
			RequestID: t.RequestID,
			Seq:       e.seq.Next(),
			Outcome:   store.OutcomeSuccess,
			Applied:   applied,
		}
		if opErr != nil {
			c.Outcome = store.OutcomeFailure
			c.Message = opErr.Message
		}
		if err := e.journal.WriteCompletion(ctx, c); err != nil {
			slog.Warn("journal completion failed", "request_id", t.RequestID, "error", err)
		}
	}

	if !applied {
		slog.Info("completion discarded",
			"op", t.Op,
			"key", t.Key,
			"seq", t.Seq,
			"request_id", t.RequestID,
			"reason", reason,
		)
	}
	return applied
}

func (e *Engine) sessionCurrent(t ticket) bool {
	if t.Epoch != e.epoch {
		return false
	}
	if t.Token == "" {
		return true
	}
	return e.state.Session.Valid() && e.state.Session.Token == t.Token
}

// abandonInFlight makes every outstanding request except those for keep
// stale and clears the loading flags they would otherwise have cleared.
func (e *Engine) abandonInFlight(keep string) {
	e.tracker.invalidateAll(keep)

	e.state.FeedStatus.Loading = false
	e.state.ComposeStatus.Loading = false
	for id, entry := range e.state.Replies {
		entry.Loading = false
		e.state.Replies[id] = entry
	}
	for id, st := range e.state.ReplySubmits {
		st.Loading = false
		e.state.ReplySubmits[id] = st
	}
	for id, st := range e.state.ReactionStatus {
		st.Loading = false
		e.state.ReactionStatus[id] = st
	}
}

// request describes one authenticated remote operation.
type request[T any] struct {
	op       string
	key      string
	fallback string
	call     func(ctx context.Context, token string) (T, error)
	// apply mutates loop state with a successful result.
	apply func(v T)
	// status records the resource's AsyncStatus.
	status func(st domain.AsyncStatus)
}

// run drives the dispatch, remote call and completion of an authenticated
// operation.
func run[T any](ctx context.Context, e *Engine, r request[T]) Result[T] {
	var (
		t     ticket
		opErr *OpError
	)

	ok := e.exec(EventTypeDispatch, r.op, r.key, func(ctx context.Context) bool {
		if !e.state.Session.Valid() {
			opErr = authRequired(r.op)
			return false
		}
		t = e.issue(ctx, r.op, r.key, e.state.Session.Token)
		r.status(domain.AsyncStatus{Loading: true})
		return true
	})
	if !ok {
		return failed[T](stoppedError(r.op))
	}
	if opErr != nil {
		slog.Debug("operation refused", "op", r.op, "key", r.key, "kind", string(opErr.Kind))
		return failed[T](opErr)
	}

	v, err := r.call(api.WithRequestID(ctx, t.RequestID), t.Token)
	if err != nil {
		opErr = remoteFailure(r.op, r.fallback, err)
		slog.Debug("request failed", "op", r.op, "key", r.key, "request_id", t.RequestID, "error", err)
	}

	var applied bool
	ok = e.exec(EventTypeCompletion, r.op, r.key, func(ctx context.Context) bool {
		applied = e.admit(ctx, t, opErr)
		if !applied {
			return false
		}
		if opErr == nil {
			r.apply(v)
		}
		r.status(e.tracker.settle(r.key, t.Seq, opErr))
		return true
	})
	if !ok {
		return failed[T](stoppedError(r.op))
	}

	if opErr != nil {
		var zero T
		return Result[T]{Value: zero, Err: opErr, Applied: applied}
	}
	return Result[T]{Value: v, Applied: applied}
}
