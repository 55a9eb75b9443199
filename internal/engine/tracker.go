package engine

import (
	"github.com/roach88/feedsync/internal/domain"
)

// Tracker keys. Keyed resources append "/<postID>".
const (
	keySession     = "session"
	keyFeed        = "feed"
	keyCompose     = "compose"
	keyReplies     = "replies/"
	keyReplySubmit = "reply-submit/"
	keyReaction    = "reaction/"
)

func repliesKey(postID string) string     { return keyReplies + postID }
func replySubmitKey(postID string) string { return keyReplySubmit + postID }
func reactionKey(postID string) string    { return keyReaction + postID }

// ticket identifies one dispatched request.
type ticket struct {
	RequestID string
	Seq       int64
	Op        string
	Key       string
	Epoch     int64
	// Token the request was issued with; empty for login.
	Token string
}

// keyState is the newest issued and newest applied seq for one resource.
type keyState struct {
	issued  int64
	applied int64
}

// tracker orders completions per resource key.
//
// A completion is accepted only if its seq is newer than the last accepted
// one for the same key; older completions are stale. The loading flag may
// only be cleared by the completion of the newest issued ticket.
//
// Not safe for concurrent use; owned by the Run loop.
type tracker struct {
	keys map[string]*keyState
}

func newTracker() *tracker {
	return &tracker{keys: make(map[string]*keyState)}
}

func (t *tracker) state(key string) *keyState {
	ks, ok := t.keys[key]
	if !ok {
		ks = &keyState{}
		t.keys[key] = ks
	}
	return ks
}

// issue records seq as the newest request for key.
func (t *tracker) issue(key string, seq int64) {
	ks := t.state(key)
	if seq > ks.issued {
		ks.issued = seq
	}
}

// accept reports whether a completion for (key, seq) should be applied and,
// if so, records it as the newest applied.
func (t *tracker) accept(key string, seq int64) bool {
	ks := t.state(key)
	if seq <= ks.applied {
		return false
	}
	ks.applied = seq
	return true
}

// pending reports whether a request newer than seq is still outstanding.
func (t *tracker) pending(key string, seq int64) bool {
	return t.state(key).issued > seq
}

// invalidate makes every outstanding request for key stale.
func (t *tracker) invalidate(key string) {
	ks := t.state(key)
	ks.applied = ks.issued
}

// invalidateAll makes every outstanding request stale, except those for
// keep (pass "" to keep nothing).
func (t *tracker) invalidateAll(keep string) {
	for key, ks := range t.keys {
		if key == keep {
			continue
		}
		ks.applied = ks.issued
	}
}

// settle returns the status recorded after an accepted completion. opErr is
// nil on success.
func (t *tracker) settle(key string, seq int64, opErr *OpError) domain.AsyncStatus {
	st := domain.AsyncStatus{Loading: t.pending(key, seq)}
	if opErr != nil {
		st.Error = opErr.Message
	}
	return st
}
