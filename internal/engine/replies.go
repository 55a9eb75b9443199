package engine

import (
	"context"
	"strings"

	"github.com/roach88/feedsync/internal/domain"
)

// FetchReplies loads the replies of one post, replacing whatever was cached
// for it. A successful fetch of zero replies leaves an entry with an empty,
// non-nil slice so it can be told apart from a post never fetched.
func (e *Engine) FetchReplies(ctx context.Context, postID string) Result[[]domain.Reply] {
	const op = "fetch_replies"

	if strings.TrimSpace(postID) == "" {
		return failed[[]domain.Reply](validationError(op, "post id is required"))
	}

	return run(ctx, e, request[[]domain.Reply]{
		op:       op,
		key:      repliesKey(postID),
		fallback: msgFetchReplies,
		call: func(ctx context.Context, token string) ([]domain.Reply, error) {
			return e.gateway.FetchReplies(ctx, token, postID)
		},
		apply: func(replies []domain.Reply) {
			entry := e.state.Replies[postID]
			entry.Replies = cloneReplies(replies)
			e.state.Replies[postID] = entry
		},
		status: func(st domain.AsyncStatus) {
			entry := e.state.Replies[postID]
			entry.Loading = st.Loading
			entry.Error = st.Error
			e.state.Replies[postID] = entry
		},
	})
}

// SubmitReply posts a reply. The reply cache is left alone; callers that
// want the new reply shown refetch (see SubmitReplyAndRefresh).
func (e *Engine) SubmitReply(ctx context.Context, postID, text string) Result[domain.Reply] {
	const op = "submit_reply"

	if strings.TrimSpace(postID) == "" {
		return failed[domain.Reply](validationError(op, "post id is required"))
	}
	if strings.TrimSpace(text) == "" {
		return failed[domain.Reply](validationError(op, "reply text is required"))
	}

	return run(ctx, e, request[domain.Reply]{
		op:       op,
		key:      replySubmitKey(postID),
		fallback: msgSendReply,
		call: func(ctx context.Context, token string) (domain.Reply, error) {
			return e.gateway.SendReply(ctx, token, postID, text)
		},
		apply: func(domain.Reply) {},
		status: func(st domain.AsyncStatus) {
			e.state.ReplySubmits[postID] = st
		},
	})
}

// SubmitReplyAndRefresh submits a reply and refetches the post's replies if
// they are currently cached. The refresh result is zero when no refetch ran.
func (e *Engine) SubmitReplyAndRefresh(ctx context.Context, postID, text string) (Result[domain.Reply], Result[[]domain.Reply]) {
	submitted := e.SubmitReply(ctx, postID, text)
	if !submitted.OK() {
		return submitted, Result[[]domain.Reply]{}
	}
	if _, cached := e.Snapshot().ReplyEntry(postID); !cached {
		return submitted, Result[[]domain.Reply]{}
	}
	return submitted, e.FetchReplies(ctx, postID)
}

// ClearReplyCache forgets the cached replies of one post. Fetches still in
// flight for it are discarded when they complete.
func (e *Engine) ClearReplyCache(postID string) error {
	const op = "clear_replies"

	ok := e.exec(EventTypeCommand, op, repliesKey(postID), func(context.Context) bool {
		e.tracker.invalidate(repliesKey(postID))
		if _, exists := e.state.Replies[postID]; !exists {
			return false
		}
		delete(e.state.Replies, postID)
		return true
	})
	if !ok {
		return stoppedError(op)
	}
	return nil
}

func cloneReplies(in []domain.Reply) []domain.Reply {
	out := make([]domain.Reply, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
