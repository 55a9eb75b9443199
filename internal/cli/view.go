package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/feedsync/internal/domain"
)

// PostView is a post as printed by the CLI, with reactions summarized from
// the viewer's point of view.
type PostView struct {
	ID        string                   `json:"id"`
	AuthorID  string                   `json:"author_id"`
	Author    string                   `json:"author"`
	Text      string                   `json:"text"`
	CreatedAt string                   `json:"created_at,omitempty"`
	PostID    string                   `json:"post_id,omitempty"`
	Reactions []domain.ReactionSummary `json:"reactions"`
}

// SessionView is the session without its token.
type SessionView struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Role          string `json:"role,omitempty"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

func newPostView(p domain.Post, viewerID string) PostView {
	v := PostView{
		ID:        p.ID,
		AuthorID:  p.Author.ID,
		Author:    p.Author.Name,
		Text:      p.Text,
		Reactions: domain.Summarize(p, viewerID),
	}
	if !p.CreatedAt.IsZero() {
		v.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func newReplyView(r domain.Reply, viewerID string) PostView {
	v := newPostView(r.Post, viewerID)
	v.PostID = r.PostID
	return v
}

func postViews(posts []domain.Post, viewerID string) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, newPostView(p, viewerID))
	}
	return out
}

func replyViews(replies []domain.Reply, viewerID string) []PostView {
	out := make([]PostView, 0, len(replies))
	for _, r := range replies {
		out = append(out, newReplyView(r, viewerID))
	}
	return out
}

func newSessionView(s domain.Session) SessionView {
	return SessionView{
		Authenticated: s.IsAuthenticated,
		UserID:        s.UserID,
		Role:          s.Role,
		Status:        string(s.Status),
		Error:         s.Error,
	}
}

// writePost prints one post in text form:
//
//	[p1] Grace (u2) 2024-05-01T10:00:00Z
//	  hello
//	  👍 2*  ❤️ 1
//
// A trailing * marks the viewer's own reaction.
func writePost(w io.Writer, v PostView, indent string) {
	header := fmt.Sprintf("%s[%s] %s (%s)", indent, v.ID, v.Author, v.AuthorID)
	if v.CreatedAt != "" {
		header += " " + v.CreatedAt
	}
	fmt.Fprintln(w, header)
	for _, line := range strings.Split(v.Text, "\n") {
		fmt.Fprintf(w, "%s  %s\n", indent, line)
	}
	if summary := formatReactions(v.Reactions); summary != "" {
		fmt.Fprintf(w, "%s  %s\n", indent, summary)
	}
}

// formatReactions renders non-zero reaction counts.
func formatReactions(rs []domain.ReactionSummary) string {
	var parts []string
	for _, r := range rs {
		if r.Count == 0 {
			continue
		}
		part := fmt.Sprintf("%s %d", r.Type.Emoji(), r.Count)
		if r.Reacted {
			part += "*"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}

func writePosts(w io.Writer, views []PostView, empty string) {
	if len(views) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writePost(w, v, "")
	}
}

func writeSession(w io.Writer, v SessionView) {
	if !v.Authenticated {
		fmt.Fprintf(w, "Not logged in (%s)\n", v.Status)
	} else {
		who := v.UserID
		if who == "" {
			who = "restored session"
		}
		fmt.Fprintf(w, "Logged in as %s", who)
		if v.Role != "" {
			fmt.Fprintf(w, " [%s]", v.Role)
		}
		fmt.Fprintln(w)
	}
	if v.Error != "" {
		fmt.Fprintf(w, "Last error: %s\n", v.Error)
	}
}
