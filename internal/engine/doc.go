// Package engine implements the feedsync state synchronization engine.
//
// The engine owns the authenticated session, the feed cache, the per-post
// reply caches and the status of every asynchronous request, and keeps them
// consistent with the remote API while a view layer observes them.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// All state lives on the Run goroutine. Operations never touch it directly:
//  1. A dispatch event validates the session, draws a seq from the Clock,
//     records the request as the newest for its resource key and marks the
//     resource loading.
//  2. The remote call runs on the caller's goroutine. This is the only point
//     where an operation waits on the network; the loop keeps serving other
//     events meanwhile.
//  3. A completion event decides whether the result still applies, applies
//     it, and settles the resource's status.
//
// After every change the loop publishes an immutable domain.Snapshot.
//
// ORDERING:
//
// Completions for the same resource key are ordered by seq: a completion
// older than the last applied one for its key is stale and discarded, and
// only the newest issued request clears the loading flag. Different keys
// are independent.
//
// Logout does not cancel requests in flight. Each completion checks that
// the session it was issued under is still current before applying.
//
// No locks guard domain state and no wall-clock time decides ordering.
package engine
