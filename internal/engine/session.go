package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/roach88/feedsync/internal/api"
	"github.com/roach88/feedsync/internal/domain"
)

// RestoreSession adopts the persisted token, if any, without contacting the
// server. An expired token is only discovered when an authenticated call
// fails. Calling it again with the same stored token changes nothing.
func (e *Engine) RestoreSession(ctx context.Context) Result[domain.Session] {
	const op = "restore_session"

	var (
		session domain.Session
		opErr   *OpError
		applied bool
	)
	ok := e.exec(EventTypeCommand, op, keySession, func(ctx context.Context) bool {
		token, err := e.tokens.LoadToken(ctx)
		if err != nil {
			opErr = storageError(op, err)
			session = e.state.Session
			return false
		}

		cur := e.state.Session
		if token == "" || (cur.Valid() && cur.Token == token && cur.Status == domain.StatusSuccess) {
			session = cur
			return false
		}

		if cur.Token != "" && cur.Token != token {
			// Requests issued with the previous token no longer apply.
			e.abandonInFlight(keySession)
		}
		e.state.Session = domain.Session{
			IsAuthenticated: true,
			Token:           token,
			Status:          domain.StatusSuccess,
		}
		session = e.state.Session
		applied = true
		slog.Info("session restored")
		return true
	})
	if !ok {
		return failed[domain.Session](stoppedError(op))
	}
	return Result[domain.Session]{Value: session, Err: opErr, Applied: applied}
}

// Login authenticates with the server. On success the token is persisted
// and the session becomes authenticated; a token store failure is returned
// as a StorageError. On failure the session records the error and any prior
// token and identity are kept.
func (e *Engine) Login(ctx context.Context, email, password string) Result[domain.SessionInfo] {
	const op = "login"

	if strings.TrimSpace(email) == "" || password == "" {
		return failed[domain.SessionInfo](validationError(op, "email and password are required"))
	}

	var t ticket
	ok := e.exec(EventTypeDispatch, op, keySession, func(ctx context.Context) bool {
		t = e.issue(ctx, op, keySession, "")
		e.state.Session.Status = domain.StatusLoading
		e.state.Session.Error = ""
		return true
	})
	if !ok {
		return failed[domain.SessionInfo](stoppedError(op))
	}

	info, err := e.gateway.Login(api.WithRequestID(ctx, t.RequestID), email, password)
	var opErr *OpError
	if err != nil {
		opErr = remoteFailure(op, msgLoginFailed, err)
	}

	var (
		applied bool
		saveErr *OpError
	)
	ok = e.exec(EventTypeCompletion, op, keySession, func(ctx context.Context) bool {
		applied = e.admit(ctx, t, opErr)
		if !applied {
			return false
		}

		status := domain.StatusSuccess
		if opErr != nil {
			status = domain.StatusError
		}
		if e.tracker.pending(keySession, t.Seq) {
			status = domain.StatusLoading
		}

		if opErr != nil {
			e.state.Session.Status = status
			e.state.Session.Error = opErr.Message
			slog.Info("login failed", "error", opErr.Message)
			return true
		}

		if e.state.Session.Token != info.Token {
			// Requests issued with the previous token no longer apply.
			e.abandonInFlight(keySession)
		}
		if err := e.tokens.SaveToken(ctx, info.Token); err != nil {
			saveErr = storageError(op, err)
			slog.Error("failed to persist token", "error", err)
		}
		e.state.Session = domain.Session{
			IsAuthenticated: true,
			Token:           info.Token,
			UserID:          info.UserID,
			Role:            info.Role,
			ProfileStatus:   info.ProfileStatus,
			IsComplete:      info.IsComplete,
			Status:          status,
		}
		slog.Info("login succeeded", "user_id", info.UserID, "role", info.Role)
		return true
	})
	if !ok {
		return failed[domain.SessionInfo](stoppedError(op))
	}

	if opErr != nil {
		return Result[domain.SessionInfo]{Err: opErr, Applied: applied}
	}
	// The session is live for this process even when the token could not be
	// saved; the caller learns that it will not survive a restart.
	return Result[domain.SessionInfo]{Value: info, Err: saveErr, Applied: applied}
}

// Logout clears the persisted token and resets the session. Requests still
// in flight are not cancelled; their completions are discarded when they
// arrive. The session is reset even if the token could not be cleared.
func (e *Engine) Logout(ctx context.Context) Result[struct{}] {
	const op = "logout"

	var opErr *OpError
	ok := e.exec(EventTypeCommand, op, keySession, func(ctx context.Context) bool {
		if err := e.tokens.ClearToken(ctx); err != nil {
			opErr = storageError(op, err)
			slog.Error("failed to clear token", "error", err)
		}

		e.epoch++
		e.abandonInFlight("")
		e.state.Session = domain.InitialSession()
		slog.Info("logged out", "epoch", e.epoch)
		return true
	})
	if !ok {
		return failed[struct{}](stoppedError(op))
	}
	return Result[struct{}]{Err: opErr, Applied: true}
}
