// Package domain provides the data model shared by every feedsync package.
//
// This package contains value types and pure derivations only. All other
// internal packages import domain; domain imports nothing internal.
//
// Key design constraints:
//   - Session.IsAuthenticated is true exactly when Session.Token is non-empty
//   - Post text is never rewritten locally; only reactions are replaced, and
//     only with server-confirmed lists
//   - Reply cache keys distinguish "never fetched" (absent) from "fetched,
//     zero replies" (present, empty slice)
//   - Reaction aggregates are derived on read, never stored
package domain
