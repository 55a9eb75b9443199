package engine

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/feedsync/internal/api"
	"github.com/roach88/feedsync/internal/domain"
	"github.com/roach88/feedsync/internal/testutil"
)

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.api.Handle(http.MethodPost, pathLogin, http.StatusOK, testutil.WireLogin("tok-1", "u1", "admin"))

	res := f.eng.Login(ctx, "ada@example.com", "secret")
	require.True(t, res.OK())
	assert.True(t, res.Applied)
	assert.Equal(t, "tok-1", res.Value.Token)
	assert.Equal(t, "u1", res.Value.UserID)

	s := f.eng.Snapshot().Session
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "admin", s.Role)
	assert.True(t, s.ProfileStatus)
	assert.True(t, s.IsComplete)
	assert.Equal(t, domain.StatusSuccess, s.Status)
	assert.Empty(t, s.Error)

	token, err := f.store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token, "token persisted")
}

func TestLogin_ServerMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.api.Handle(http.MethodPost, pathLogin, http.StatusUnauthorized, testutil.WireError("Invalid credentials"))

	res := f.eng.Login(ctx, "ada@example.com", "wrong")
	require.NotNil(t, res.Err)
	assert.Equal(t, KindRemote, res.Err.Kind)
	assert.Equal(t, "Invalid credentials", res.Err.Message)

	s := f.eng.Snapshot().Session
	assert.False(t, s.IsAuthenticated)
	assert.Empty(t, s.Token)
	assert.Equal(t, domain.StatusError, s.Status)
	assert.Equal(t, "Invalid credentials", s.Error)

	token, err := f.store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "nothing persisted on failure")
}

func TestLogin_NetworkFailureUsesFallback(t *testing.T) {
	f := newFixture(t)
	f.api.Close()

	res := f.eng.Login(context.Background(), "ada@example.com", "secret")
	require.NotNil(t, res.Err)
	assert.Equal(t, KindNetwork, res.Err.Kind)
	assert.Equal(t, "Login failed", res.Err.Message)
	assert.Equal(t, "Login failed", f.eng.Snapshot().Session.Error)
}

func TestLogin_FailureKeepsPriorSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.api.Handle(http.MethodPost, pathLogin, http.StatusUnauthorized, testutil.WireError("Invalid credentials"))
	res := f.eng.Login(context.Background(), "ada@example.com", "wrong")
	require.NotNil(t, res.Err)

	s := f.eng.Snapshot().Session
	assert.True(t, s.IsAuthenticated, "prior session untouched")
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, domain.StatusError, s.Status)
	assert.Equal(t, "Invalid credentials", s.Error)
}

func TestLogin_RetryAfterError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.api.Enqueue(http.MethodPost, pathLogin,
		testutil.Response{Status: http.StatusUnauthorized, Body: testutil.WireError("Invalid credentials")},
		testutil.Response{Status: http.StatusOK, Body: testutil.WireLogin("tok-2", "u1", "member")},
	)

	require.NotNil(t, f.eng.Login(ctx, "ada@example.com", "wrong").Err)
	assert.Equal(t, domain.StatusError, f.eng.Snapshot().Session.Status)

	require.True(t, f.eng.Login(ctx, "ada@example.com", "secret").OK())
	s := f.eng.Snapshot().Session
	assert.Equal(t, domain.StatusSuccess, s.Status)
	assert.Empty(t, s.Error, "error cleared on retry")
}

func TestLogin_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret"},
		{"blank email", "   ", "secret"},
		{"empty password", "ada@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.eng.Login(context.Background(), tt.email, tt.password)
			require.NotNil(t, res.Err)
			assert.True(t, IsValidation(res.Err))
		})
	}

	assert.Equal(t, 0, f.api.RequestCount(), "validation failures make no request")
	assert.Equal(t, domain.StatusIdle, f.eng.Snapshot().Session.Status)
}

func TestRestoreSession_AbsentToken(t *testing.T) {
	f := newFixture(t)

	res := f.eng.RestoreSession(context.Background())
	require.True(t, res.OK())
	assert.False(t, res.Applied)

	s := f.eng.Snapshot().Session
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, domain.StatusIdle, s.Status)
	assert.Equal(t, int64(0), f.eng.Snapshot().Version)
}

func TestRestoreSession_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveToken(ctx, "persisted"))

	first := f.eng.RestoreSession(ctx)
	require.True(t, first.OK())
	assert.True(t, first.Applied)
	after := f.eng.Snapshot()

	second := f.eng.RestoreSession(ctx)
	require.True(t, second.OK())
	assert.False(t, second.Applied)

	assert.Equal(t, after, f.eng.Snapshot(), "second restore publishes nothing")
	s := f.eng.Snapshot().Session
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "persisted", s.Token)
	assert.Equal(t, domain.StatusSuccess, s.Status)
	assert.Equal(t, 0, f.api.RequestCount(), "restore never contacts the server")
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.login(t)

	res := f.eng.Logout(ctx)
	require.True(t, res.OK())

	assert.Equal(t, domain.InitialSession(), f.eng.Snapshot().Session)

	token, err := f.store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	// Restoring after logout finds nothing.
	assert.False(t, f.eng.RestoreSession(ctx).Applied)
}

func TestLogout_DiscardsLoginInFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gate := make(chan struct{})
	f.api.Enqueue(http.MethodPost, pathLogin, testutil.Response{
		Status: http.StatusOK, Body: testutil.WireLogin("tok-late", "u1", "member"), Wait: gate,
	})

	done := make(chan Result[domain.SessionInfo], 1)
	go func() { done <- f.eng.Login(ctx, "ada@example.com", "secret") }()
	f.waitForRequests(t, 1)

	require.True(t, f.eng.Logout(ctx).OK())
	close(gate)

	res := <-done
	assert.True(t, res.OK(), "the server accepted the login")
	assert.False(t, res.Applied, "but the session ended before it completed")
	assert.False(t, f.eng.Snapshot().Session.IsAuthenticated)

	token, err := f.store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

// failingTokens is a TokenStore whose writes fail.
type failingTokens struct {
	TokenStore
	err error
}

func (f failingTokens) SaveToken(context.Context, string) error { return f.err }

func TestLogin_TokenSaveFailureIsReported(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle(http.MethodPost, pathLogin, http.StatusOK, testutil.WireLogin("tok-1", "u1", "member"))
	s := setupTestStore(t)
	eng := New(api.NewClient(fake.URL), failingTokens{TokenStore: s, err: errors.New("disk full")})
	startEngine(t, eng)
	ctx := context.Background()

	res := eng.Login(ctx, "ada@example.com", "secret")
	require.NotNil(t, res.Err)
	assert.Equal(t, KindStorage, res.Err.Kind)
	assert.ErrorContains(t, res.Err, "disk full")
	assert.False(t, res.OK())
	assert.True(t, res.Applied)
	assert.Equal(t, "tok-1", res.Value.Token)

	assert.True(t, eng.Snapshot().Session.IsAuthenticated, "session is live for this process")
	token, err := s.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLogin_NewTokenAbandonsInFlight(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	ctx := context.Background()

	gate := make(chan struct{})
	f.api.Enqueue(http.MethodGet, pathPosts, testutil.Response{
		Status: http.StatusOK,
		Body:   []any{testutil.WirePost("p1", "u2", "Grace", "for tok-1")},
		Wait:   gate,
	})
	done := make(chan Result[[]domain.Post], 1)
	go func() { done <- f.eng.FetchFeed(ctx) }()
	f.waitForRequests(t, 2)
	require.True(t, f.eng.Snapshot().FeedStatus.Loading)

	f.api.Enqueue(http.MethodPost, pathLogin, testutil.Response{
		Status: http.StatusOK, Body: testutil.WireLogin("tok-2", "u3", "member"),
	})
	require.True(t, f.eng.Login(ctx, "lin@example.com", "secret").OK())
	assert.False(t, f.eng.Snapshot().FeedStatus.Loading, "loading cleared when the token changes")

	close(gate)
	res := <-done
	assert.True(t, res.OK())
	assert.False(t, res.Applied)

	snap := f.eng.Snapshot()
	assert.Empty(t, snap.Feed, "response for the old token is dropped")
	assert.False(t, snap.FeedStatus.Loading)
	assert.Equal(t, "tok-2", snap.Session.Token)
}

func TestRestoreSession_NewTokenAbandonsInFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SaveToken(ctx, "tok-A"))
	require.True(t, f.eng.RestoreSession(ctx).Applied)

	gate := make(chan struct{})
	f.api.Enqueue(http.MethodGet, pathPosts, testutil.Response{
		Status: http.StatusOK,
		Body:   []any{testutil.WirePost("p1", "u2", "Grace", "for tok-A")},
		Wait:   gate,
	})
	done := make(chan Result[[]domain.Post], 1)
	go func() { done <- f.eng.FetchFeed(ctx) }()
	f.waitForRequests(t, 1)
	require.True(t, f.eng.Snapshot().FeedStatus.Loading)

	require.NoError(t, f.store.SaveToken(ctx, "tok-B"))
	require.True(t, f.eng.RestoreSession(ctx).Applied)
	assert.False(t, f.eng.Snapshot().FeedStatus.Loading)

	close(gate)
	res := <-done
	assert.False(t, res.Applied)

	snap := f.eng.Snapshot()
	assert.Empty(t, snap.Feed)
	assert.False(t, snap.FeedStatus.Loading)
	assert.Equal(t, "tok-B", snap.Session.Token)
}
