package engine

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/feedsync/internal/domain"
	"github.com/roach88/feedsync/internal/testutil"
)

func TestFetchFeed_NoTokenMakesNoRequest(t *testing.T) {
	f := newFixture(t)

	res := f.eng.FetchFeed(context.Background())
	require.NotNil(t, res.Err)
	assert.True(t, IsAuthRequired(res.Err))
	assert.False(t, res.Applied)

	assert.Equal(t, 0, f.api.RequestCount())
	snap := f.eng.Snapshot()
	assert.Empty(t, snap.Feed)
	assert.Equal(t, domain.AsyncStatus{}, snap.FeedStatus)
}

func TestFetchFeed_ServerOrder(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.api.Handle(http.MethodGet, pathPosts, http.StatusOK, []any{
		testutil.WirePost("p2", "u2", "Grace", "second"),
		testutil.WirePost("p1", "u3", "Linus", "first"),
		testutil.WirePost("p3", "u2", "Grace", "third"),
	})

	res := f.eng.FetchFeed(context.Background())
	require.True(t, res.OK())
	assert.True(t, res.Applied)

	snap := f.eng.Snapshot()
	require.Len(t, snap.Feed, 3)
	assert.Equal(t, "p2", snap.Feed[0].ID)
	assert.Equal(t, "p1", snap.Feed[1].ID)
	assert.Equal(t, "p3", snap.Feed[2].ID)
	assert.Equal(t, "Linus", snap.Feed[1].Author.Name)
	assert.Equal(t, domain.AsyncStatus{}, snap.FeedStatus)
}

func TestFetchFeed_FailureKeepsCache(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.api.Enqueue(http.MethodGet, pathPosts,
		testutil.Response{Status: http.StatusOK, Body: []any{testutil.WirePost("p1", "u2", "Grace", "hi")}},
		testutil.Response{Status: http.StatusInternalServerError},
	)

	require.True(t, f.eng.FetchFeed(context.Background()).OK())

	res := f.eng.FetchFeed(context.Background())
	require.NotNil(t, res.Err)
	assert.Equal(t, KindRemote, res.Err.Kind)
	assert.Equal(t, "Failed to fetch posts", res.Err.Message)

	snap := f.eng.Snapshot()
	require.Len(t, snap.Feed, 1, "failure leaves the cache unchanged")
	assert.False(t, snap.FeedStatus.Loading)
	assert.Equal(t, "Failed to fetch posts", snap.FeedStatus.Error)
}

func TestFetchFeed_LoadingWhileInFlight(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	gate := make(chan struct{})
	f.api.Enqueue(http.MethodGet, pathPosts, testutil.Response{Status: http.StatusOK, Body: []any{}, Wait: gate})

	done := make(chan Result[[]domain.Post], 1)
	go func() { done <- f.eng.FetchFeed(context.Background()) }()
	f.waitForRequests(t, 2)

	assert.True(t, f.eng.Snapshot().FeedStatus.Loading)
	close(gate)

	require.True(t, (<-done).OK())
	assert.False(t, f.eng.Snapshot().FeedStatus.Loading)
}

func TestFetchFeed_DiscardedAfterLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	gate := make(chan struct{})
	f.api.Enqueue(http.MethodGet, pathPosts, testutil.Response{
		Status: http.StatusOK,
		Body:   []any{testutil.WirePost("p1", "u2", "Grace", "late")},
		Wait:   gate,
	})

	done := make(chan Result[[]domain.Post], 1)
	go func() { done <- f.eng.FetchFeed(ctx) }()
	f.waitForRequests(t, 2)

	require.True(t, f.eng.Logout(ctx).OK())
	close(gate)

	res := <-done
	assert.True(t, res.OK())
	assert.False(t, res.Applied)

	snap := f.eng.Snapshot()
	assert.Empty(t, snap.Feed, "post-logout completion must not populate the cache")
	assert.False(t, snap.FeedStatus.Loading)
}

func TestCreatePost_PrependsConfirmedPost(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	f.api.Handle(http.MethodGet, pathPosts, http.StatusOK, []any{
		testutil.WirePost("p1", "u2", "Grace", "older"),
	})
	require.True(t, f.eng.FetchFeed(ctx).OK())

	f.api.Handle(http.MethodPost, pathSend, http.StatusOK, testutil.WirePost("p9", "u1", "Ada", "fresh"))

	res := f.eng.CreatePost(ctx, "fresh")
	require.True(t, res.OK())
	assert.Equal(t, "p9", res.Value.ID)

	snap := f.eng.Snapshot()
	require.Len(t, snap.Feed, 2)
	assert.Equal(t, "p9", snap.Feed[0].ID, "head is the most recently confirmed post")
	assert.Equal(t, "p1", snap.Feed[1].ID)
	assert.Equal(t, domain.AsyncStatus{}, snap.ComposeStatus)
}

func TestFetchFeed_LateFetchReplacesConfirmedPost(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	gate := make(chan struct{})
	f.api.Enqueue(http.MethodGet, pathPosts, testutil.Response{
		Status: http.StatusOK,
		Body:   []any{testutil.WirePost("p1", "u2", "Grace", "older")},
		Wait:   gate,
	})
	done := make(chan Result[[]domain.Post], 1)
	go func() { done <- f.eng.FetchFeed(ctx) }()
	f.waitForRequests(t, 2)

	f.api.Handle(http.MethodPost, pathSend, http.StatusOK, testutil.WirePost("p9", "u1", "Ada", "fresh"))
	require.True(t, f.eng.CreatePost(ctx, "fresh").OK())
	require.Equal(t, "p9", f.eng.Snapshot().Feed[0].ID)

	close(gate)
	res := <-done
	require.True(t, res.OK())
	assert.True(t, res.Applied, "the fetch is the newest on its key")

	snap := f.eng.Snapshot()
	require.Len(t, snap.Feed, 1)
	assert.Equal(t, "p1", snap.Feed[0].ID, "fetched list is applied as-is")
}

func TestCreatePost_Validation(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		res := f.eng.CreatePost(context.Background(), text)
		require.NotNil(t, res.Err)
		assert.True(t, IsValidation(res.Err))
	}
	assert.Equal(t, 1, f.api.RequestCount(), "only the login request")
}

func TestCreatePost_RequiresSession(t *testing.T) {
	f := newFixture(t)

	res := f.eng.CreatePost(context.Background(), "hello")
	require.NotNil(t, res.Err)
	assert.True(t, IsAuthRequired(res.Err))
	assert.Equal(t, 0, f.api.RequestCount())
}

func TestCreatePost_Failure(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.api.Handle(http.MethodPost, pathSend, http.StatusBadRequest, testutil.WireError("Text too long"))

	res := f.eng.CreatePost(context.Background(), "hello")
	require.NotNil(t, res.Err)
	assert.Equal(t, "Text too long", res.Err.Message)

	snap := f.eng.Snapshot()
	assert.Empty(t, snap.Feed, "nothing inserted before confirmation")
	assert.Equal(t, domain.AsyncStatus{Error: "Text too long"}, snap.ComposeStatus)
}

func TestCreatePostAndRefresh(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.api.Handle(http.MethodPost, pathSend, http.StatusOK, testutil.WirePost("p9", "u1", "Ada", "fresh"))
	f.api.Handle(http.MethodGet, pathPosts, http.StatusOK, []any{
		testutil.WirePost("p9", "u1", "Ada", "fresh"),
		testutil.WirePost("p1", "u2", "Grace", "older"),
	})

	created, refreshed := f.eng.CreatePostAndRefresh(context.Background(), "fresh")
	require.True(t, created.OK())
	require.True(t, refreshed.OK())

	snap := f.eng.Snapshot()
	require.Len(t, snap.Feed, 2, "refetch replaces the feed")
	assert.Equal(t, "p9", snap.Feed[0].ID)
}

func TestCreatePostAndRefresh_SkipsRefreshOnFailure(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.api.Handle(http.MethodPost, pathSend, http.StatusInternalServerError, nil)

	created, refreshed := f.eng.CreatePostAndRefresh(context.Background(), "fresh")
	require.NotNil(t, created.Err)
	assert.Equal(t, "Failed to send post", created.Err.Message)
	assert.Nil(t, refreshed.Err)
	assert.False(t, refreshed.Applied)
	assert.Equal(t, 2, f.api.RequestCount(), "login and send only")
}
