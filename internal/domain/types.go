package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of the session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Session is the authenticated identity and token state of the current user.
//
// INVARIANT: IsAuthenticated == (Token != "").
type Session struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	Token           string `json:"token,omitempty"`
	UserID          string `json:"user_id,omitempty"`
	Role            string `json:"role,omitempty"`
	ProfileStatus   bool   `json:"profile_status"`
	IsComplete      bool   `json:"is_complete"`
	Status          Status `json:"status"`
	Error           string `json:"error,omitempty"`
}

// InitialSession returns the unauthenticated session shape used at startup
// and after logout.
func InitialSession() Session {
	return Session{Status: StatusIdle}
}

// Valid reports whether the session carries a token usable for
// authenticated requests.
func (s Session) Valid() bool {
	return s.IsAuthenticated && s.Token != ""
}

// SessionInfo is the payload of a successful login.
type SessionInfo struct {
	Token         string `json:"token"`
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	ProfileStatus bool   `json:"profile_status"`
	IsComplete    bool   `json:"is_complete"`
}

// ReactionType is one of the six supported emoji reactions.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionLaugh ReactionType = "laugh"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// AllReactionTypes lists reaction types in display order.
var AllReactionTypes = []ReactionType{
	ReactionLike,
	ReactionLove,
	ReactionLaugh,
	ReactionWow,
	ReactionSad,
	ReactionAngry,
}

// ParseReactionType validates a reaction type name.
func ParseReactionType(s string) (ReactionType, error) {
	for _, rt := range AllReactionTypes {
		if string(rt) == s {
			return rt, nil
		}
	}
	return "", fmt.Errorf("unknown reaction type %q (valid: like, love, laugh, wow, sad, angry)", s)
}

// Emoji returns the glyph shown for the reaction type.
func (r ReactionType) Emoji() string {
	switch r {
	case ReactionLike:
		return "👍"
	case ReactionLove:
		return "❤️"
	case ReactionLaugh:
		return "😂"
	case ReactionWow:
		return "😮"
	case ReactionSad:
		return "😢"
	case ReactionAngry:
		return "😡"
	default:
		return "?"
	}
}

// Reaction records one user's reaction to a post.
// The server keeps at most one reaction per (user, post).
type Reaction struct {
	UserID string       `json:"user_id"`
	Type   ReactionType `json:"type"`
}

// Author identifies who wrote a post or reply.
type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Post is a top-level feed entry.
type Post struct {
	ID        string     `json:"id"`
	Author    Author     `json:"author"`
	Text      string     `json:"text"`
	Reactions []Reaction `json:"reactions"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	out := p
	if p.Reactions != nil {
		out.Reactions = make([]Reaction, len(p.Reactions))
		copy(out.Reactions, p.Reactions)
	}
	return out
}

// Reply is a post attached to exactly one parent post.
type Reply struct {
	Post
	PostID string `json:"post_id"`
}

// Clone returns a deep copy of the reply.
func (r Reply) Clone() Reply {
	return Reply{Post: r.Post.Clone(), PostID: r.PostID}
}

// AsyncStatus is the loading/error pair tracked per logical resource.
type AsyncStatus struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// ReplyEntry is the cached reply collection for one post.
type ReplyEntry struct {
	Replies []Reply `json:"replies"`
	Loading bool    `json:"loading"`
	Error   string  `json:"error,omitempty"`
}

// Clone returns a deep copy of the entry. A non-nil empty Replies slice
// stays non-nil so "fetched, zero replies" survives the copy.
func (e ReplyEntry) Clone() ReplyEntry {
	out := e
	if e.Replies != nil {
		out.Replies = make([]Reply, len(e.Replies))
		for i, r := range e.Replies {
			out.Replies[i] = r.Clone()
		}
	}
	return out
}
