package domain

// Snapshot is an immutable, point-in-time view of engine state.
//
// Snapshots are built by the engine loop and never mutated after publication.
// Readers may hold on to one for as long as they like.
type Snapshot struct {
	// Version increases by one for every published state change.
	Version int64 `json:"version"`

	Session Session `json:"session"`

	Feed          []Post      `json:"feed"`
	FeedStatus    AsyncStatus `json:"feed_status"`
	ComposeStatus AsyncStatus `json:"compose_status"`

	// Replies holds one entry per post whose replies were ever requested.
	// Absent key = never fetched.
	Replies map[string]ReplyEntry `json:"replies"`

	// ReplySubmits tracks reply submission per parent post.
	ReplySubmits map[string]AsyncStatus `json:"reply_submits"`

	// ReactionStatus tracks reaction toggles per post.
	ReactionStatus map[string]AsyncStatus `json:"reaction_status"`
}

// ReplyEntry returns the cached replies for postID and whether the key exists.
func (s *Snapshot) ReplyEntry(postID string) (ReplyEntry, bool) {
	e, ok := s.Replies[postID]
	return e, ok
}

// Post returns the cached feed post with the given ID.
func (s *Snapshot) Post(postID string) (Post, bool) {
	for _, p := range s.Feed {
		if p.ID == postID {
			return p, true
		}
	}
	return Post{}, false
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Version:        s.Version,
		Session:        s.Session,
		FeedStatus:     s.FeedStatus,
		ComposeStatus:  s.ComposeStatus,
		Replies:        make(map[string]ReplyEntry, len(s.Replies)),
		ReplySubmits:   make(map[string]AsyncStatus, len(s.ReplySubmits)),
		ReactionStatus: make(map[string]AsyncStatus, len(s.ReactionStatus)),
	}
	if s.Feed != nil {
		out.Feed = make([]Post, len(s.Feed))
		for i, p := range s.Feed {
			out.Feed[i] = p.Clone()
		}
	}
	for k, v := range s.Replies {
		out.Replies[k] = v.Clone()
	}
	for k, v := range s.ReplySubmits {
		out.ReplySubmits[k] = v
	}
	for k, v := range s.ReactionStatus {
		out.ReactionStatus[k] = v
	}
	return out
}

// EmptySnapshot returns the state of a freshly constructed engine.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Session:        InitialSession(),
		Replies:        map[string]ReplyEntry{},
		ReplySubmits:   map[string]AsyncStatus{},
		ReactionStatus: map[string]AsyncStatus{},
	}
}
