package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Outcome values recorded for completions.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Dispatch records that the engine issued a request.
type Dispatch struct {
	RequestID    string `json:"request_id"`
	Seq          int64  `json:"seq"`
	Op           string `json:"op"`
	Key          string `json:"key"`
	SessionEpoch int64  `json:"session_epoch"`
}

// Completion records how a dispatched request ended and whether its result
// was applied to engine state.
type Completion struct {
	RequestID string `json:"request_id"`
	Seq       int64  `json:"seq"`
	Outcome   string `json:"outcome"`
	Applied   bool   `json:"applied"`
	Message   string `json:"message,omitempty"`
}

// JournalEntry pairs a dispatch with its completion. Completion is nil while
// the request is still in flight (or was never completed).
type JournalEntry struct {
	Dispatch
	Completion *Completion `json:"completion,omitempty"`
}

// WriteDispatch appends a dispatch row. Duplicate request ids are ignored.
func (s *Store) WriteDispatch(ctx context.Context, d Dispatch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dispatches (id, seq, op, resource_key, session_epoch)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, d.RequestID, d.Seq, d.Op, d.Key, d.SessionEpoch)
	if err != nil {
		return fmt.Errorf("write dispatch: %w", err)
	}
	return nil
}

// WriteCompletion appends a completion row. Each dispatch has at most one
// completion; a second write for the same request is silently ignored.
//
// Note: The dispatch referenced by RequestID must exist (foreign key constraint).
func (s *Store) WriteCompletion(ctx context.Context, c Completion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO completions (request_id, seq, outcome, applied, message)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, c.RequestID, c.Seq, c.Outcome, c.Applied, c.Message)
	if err != nil {
		return fmt.Errorf("write completion: %w", err)
	}
	return nil
}

// ReadJournal returns journal entries in dispatch order.
// If key is non-empty only that resource is returned. A limit <= 0 means no limit;
// otherwise the newest limit entries are returned, still oldest first.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadJournal(ctx context.Context, key string, limit int) ([]JournalEntry, error) {
	query := `
		SELECT d.id, d.seq, d.op, d.resource_key, d.session_epoch,
			c.seq, c.outcome, c.applied, c.message
		FROM dispatches d
		LEFT JOIN completions c ON c.request_id = d.id
		WHERE (? = '' OR d.resource_key = ?)
		ORDER BY d.seq DESC, d.id COLLATE BINARY DESC
	`
	args := []any{key, key}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []JournalEntry{}
	for rows.Next() {
		var (
			e       JournalEntry
			cSeq    sql.NullInt64
			outcome sql.NullString
			applied sql.NullBool
			message sql.NullString
		)
		if err := rows.Scan(&e.RequestID, &e.Seq, &e.Op, &e.Key, &e.SessionEpoch,
			&cSeq, &outcome, &applied, &message); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		if outcome.Valid {
			e.Completion = &Completion{
				RequestID: e.RequestID,
				Seq:       cSeq.Int64,
				Outcome:   outcome.String,
				Applied:   applied.Bool,
				Message:   message.String,
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}

	// Query runs newest first so LIMIT keeps the tail; flip back to seq order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// LastSeq returns the highest sequence number recorded by any dispatch or
// completion, or 0 for an empty journal. A new engine continues numbering
// from here so entries from separate runs stay in order.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM (
			SELECT seq FROM dispatches
			UNION ALL
			SELECT seq FROM completions
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}
