package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TokenKey is the fixed storage key of the persisted session token.
const TokenKey = "authToken"

// Get returns the value stored under key and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// LoadToken returns the persisted session token, or "" if none is stored.
func (s *Store) LoadToken(ctx context.Context) (string, error) {
	token, _, err := s.Get(ctx, TokenKey)
	return token, err
}

// SaveToken persists the session token.
func (s *Store) SaveToken(ctx context.Context, token string) error {
	return s.Set(ctx, TokenKey, token)
}

// ClearToken removes the persisted session token.
func (s *Store) ClearToken(ctx context.Context) error {
	return s.Delete(ctx, TokenKey)
}
