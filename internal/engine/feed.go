package engine

import (
	"context"
	"strings"

	"github.com/roach88/feedsync/internal/domain"
)

// FetchFeed replaces the feed with the server's posts, in server order.
// Without a session it fails with AuthRequired and makes no request.
//
// Fetches and CreatePost are tracked under separate keys. A fetch that was
// dispatched before a post was confirmed may complete after it; its list is
// still applied as-is, so the confirmed post shows up on the next fetch.
func (e *Engine) FetchFeed(ctx context.Context) Result[[]domain.Post] {
	return run(ctx, e, request[[]domain.Post]{
		op:       "fetch_feed",
		key:      keyFeed,
		fallback: msgFetchPosts,
		call: func(ctx context.Context, token string) ([]domain.Post, error) {
			return e.gateway.FetchPosts(ctx, token)
		},
		apply: func(posts []domain.Post) {
			e.state.Feed = clonePosts(posts)
		},
		status: func(st domain.AsyncStatus) {
			e.state.FeedStatus = st
		},
	})
}

// CreatePost publishes a post. The server's copy is inserted at the head of
// the feed once confirmed; nothing is inserted before that.
func (e *Engine) CreatePost(ctx context.Context, text string) Result[domain.Post] {
	const op = "create_post"

	if strings.TrimSpace(text) == "" {
		return failed[domain.Post](validationError(op, "post text is required"))
	}

	return run(ctx, e, request[domain.Post]{
		op:       op,
		key:      keyCompose,
		fallback: msgSendPost,
		call: func(ctx context.Context, token string) (domain.Post, error) {
			return e.gateway.SendPost(ctx, token, text)
		},
		apply: func(p domain.Post) {
			feed := make([]domain.Post, 0, len(e.state.Feed)+1)
			feed = append(feed, p.Clone())
			e.state.Feed = append(feed, e.state.Feed...)
		},
		status: func(st domain.AsyncStatus) {
			e.state.ComposeStatus = st
		},
	})
}

// CreatePostAndRefresh creates a post and, if that succeeded, refetches the
// feed. The refresh result is zero when the create failed.
func (e *Engine) CreatePostAndRefresh(ctx context.Context, text string) (Result[domain.Post], Result[[]domain.Post]) {
	created := e.CreatePost(ctx, text)
	if !created.OK() {
		return created, Result[[]domain.Post]{}
	}
	return created, e.FetchFeed(ctx)
}

func clonePosts(in []domain.Post) []domain.Post {
	out := make([]domain.Post, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
