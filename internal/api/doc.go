// Package api is the client for the community REST backend.
//
// Every method maps one endpoint to domain types:
//
//	POST /api/auth/login                        Login
//	GET  /api/community/post                    FetchPosts
//	POST /api/community/sendpost                SendPost
//	POST /api/community/replypost               SendReply
//	GET  /api/community/replies/{postId}        FetchReplies
//	POST /api/community/post/{postId}/react     ToggleReaction
//
// Authenticated calls send the raw token in the Authorization header (no
// scheme prefix), matching the backend. Non-2xx responses are returned as
// *StatusError carrying the body's "message" field when present; transport
// failures are returned wrapped and never as *StatusError.
package api
