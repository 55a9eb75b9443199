// Package store provides SQLite-backed durable storage for feedsync.
//
// The store holds two things:
//   - kv: small durable values; the only one the engine writes is the
//     session token under TokenKey
//   - journal: an append-only log of request dispatches and completions,
//     used by `feedsync trace` to explain what the engine did
//
// # Ordering
//
// Journal rows are ordered by the engine's logical sequence number, never by
// wall-clock time:
//
//	ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Idempotency
//
// Dispatch rows are keyed by request id and completion rows are UNIQUE on
// request_id; repeated writes are silently ignored (ON CONFLICT DO NOTHING).
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: completions must reference a dispatch
package store
