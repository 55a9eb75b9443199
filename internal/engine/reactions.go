package engine

import (
	"context"
	"strings"

	"github.com/roach88/feedsync/internal/domain"
)

// ToggleReaction asks the server to toggle the viewer's reaction of type rt
// on a post. Reactions are never changed locally: on success the feed copy
// of the post takes the server-confirmed reaction list.
func (e *Engine) ToggleReaction(ctx context.Context, postID string, rt domain.ReactionType) Result[domain.Post] {
	const op = "toggle_reaction"

	if strings.TrimSpace(postID) == "" {
		return failed[domain.Post](validationError(op, "post id is required"))
	}
	if _, err := domain.ParseReactionType(string(rt)); err != nil {
		return failed[domain.Post](validationError(op, err.Error()))
	}

	return run(ctx, e, request[domain.Post]{
		op:       op,
		key:      reactionKey(postID),
		fallback: msgUpdateReaction,
		call: func(ctx context.Context, token string) (domain.Post, error) {
			return e.gateway.ToggleReaction(ctx, token, postID, rt)
		},
		apply: func(confirmed domain.Post) {
			for i := range e.state.Feed {
				if e.state.Feed[i].ID != postID {
					continue
				}
				reactions := make([]domain.Reaction, len(confirmed.Reactions))
				copy(reactions, confirmed.Reactions)
				e.state.Feed[i].Reactions = reactions
				if !confirmed.UpdatedAt.IsZero() {
					e.state.Feed[i].UpdatedAt = confirmed.UpdatedAt
				}
			}
		},
		status: func(st domain.AsyncStatus) {
			e.state.ReactionStatus[postID] = st
		},
	})
}
