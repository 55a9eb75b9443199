package cli

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/feedsync/internal/testutil"
)

func TestReplies(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.api.Handle(http.MethodGet, pathReplies+"p1", http.StatusOK, testutil.WireReplies(
		testutil.WireReply("r1", "p1", "u2", "Grace", "nice"),
	))

	out, _, err := env.run(t, "replies", "p1")
	require.NoError(t, err)
	assert.Equal(t, "[r1] Grace (u2) 2024-05-01T10:00:00Z\n  nice\n", out)
}

func TestReplies_None(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.api.Handle(http.MethodGet, pathReplies+"p1", http.StatusOK, testutil.WireReplies())

	out, _, err := env.run(t, "replies", "p1")
	require.NoError(t, err)
	assert.Equal(t, "No replies\n", out)
}

func TestReply(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.api.Handle(http.MethodPost, pathReply, http.StatusOK, testutil.WireReply("r1", "p1", "u1", "Ada", "well said"))

	out, _, err := env.run(t, "reply", "p1", "well", "said")
	require.NoError(t, err)
	assert.Equal(t, "Replied\n[r1] Ada (u1) 2024-05-01T10:00:00Z\n  well said\n", out)

	reqs := env.requestsTo(http.MethodPost, pathReply)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"text":"well said","postId":"p1"}`, string(reqs[0].Body))
	assert.Empty(t, env.requestsTo(http.MethodGet, pathReplies+"p1"), "no refetch without --show")
}

func TestReply_Show(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.api.Enqueue(http.MethodGet, pathReplies+"p1",
		testutil.Response{Body: testutil.WireReplies()},
		testutil.Response{Body: testutil.WireReplies(testutil.WireReply("r1", "p1", "u1", "Ada", "first!"))},
	)
	env.api.Handle(http.MethodPost, pathReply, http.StatusOK, testutil.WireReply("r1", "p1", "u1", "Ada", "first!"))

	out, _, err := env.run(t, "reply", "--show", "p1", "first!")
	require.NoError(t, err)
	assert.Equal(t, "[r1] Ada (u1) 2024-05-01T10:00:00Z\n  first!\n", out)
	assert.Len(t, env.requestsTo(http.MethodGet, pathReplies+"p1"), 2)
}

func TestReply_BlankText(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)

	out, _, err := env.run(t, "reply", "p1", " ")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "Error [ValidationError]: reply text is required\n", out)
}
