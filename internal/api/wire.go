package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/roach88/feedsync/internal/domain"
)

// wireUser accepts both a populated user object and a bare user id string.
type wireUser struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Pic  string `json:"pic"`
}

func (u *wireUser) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &u.ID)
	}
	type plain wireUser
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = wireUser(p)
	return nil
}

// wireTime tolerates missing, null and empty timestamps.
type wireTime struct {
	time.Time
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" || s == `""` {
		return nil
	}
	return t.Time.UnmarshalJSON(data)
}

type wireReaction struct {
	UserID       wireUser `json:"userId"`
	ReactionType string   `json:"reactionType"`
}

type wirePost struct {
	ID        string         `json:"_id"`
	User      wireUser       `json:"userId"`
	Text      string         `json:"text"`
	Reactions []wireReaction `json:"reactions"`
	CreatedAt wireTime       `json:"createdAt"`
	UpdatedAt wireTime       `json:"updatedAt"`
	PostID    string         `json:"postId,omitempty"`
}

func (w wirePost) toPost() domain.Post {
	reactions := make([]domain.Reaction, 0, len(w.Reactions))
	for _, r := range w.Reactions {
		reactions = append(reactions, domain.Reaction{
			UserID: r.UserID.ID,
			Type:   domain.ReactionType(r.ReactionType),
		})
	}
	return domain.Post{
		ID: w.ID,
		Author: domain.Author{
			ID:        w.User.ID,
			Name:      w.User.Name,
			AvatarURL: w.User.Pic,
		},
		Text:      w.Text,
		Reactions: reactions,
		CreatedAt: w.CreatedAt.Time,
		UpdatedAt: w.UpdatedAt.Time,
	}
}

func (w wirePost) toReply(parentID string) domain.Reply {
	postID := w.PostID
	if postID == "" {
		postID = parentID
	}
	return domain.Reply{Post: w.toPost(), PostID: postID}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AuthToken     string   `json:"authToken"`
	User          wireUser `json:"user"`
	Role          string   `json:"role"`
	ProfileStatus bool     `json:"profileStatus"`
	IsComplete    bool     `json:"isComplete"`
}

type sendPostRequest struct {
	Text string `json:"text"`
}

type sendReplyRequest struct {
	Text   string `json:"text"`
	PostID string `json:"postId"`
}

type reactRequest struct {
	ReactionType string `json:"reactionType"`
}

type repliesResponse struct {
	Data []wirePost `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}
