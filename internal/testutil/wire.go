package testutil

// Wire-format builders for scripting FakeAPI responses. Shapes follow the
// backend: posts carry "_id", a populated "userId" and "reactions".

// WireReaction builds a reaction object.
func WireReaction(userID, reactionType string) map[string]any {
	return map[string]any{"userId": userID, "reactionType": reactionType}
}

// WirePost builds a post object.
func WirePost(id, authorID, authorName, text string, reactions ...map[string]any) map[string]any {
	if reactions == nil {
		reactions = []map[string]any{}
	}
	return map[string]any{
		"_id":       id,
		"userId":    map[string]any{"_id": authorID, "name": authorName, "pic": ""},
		"text":      text,
		"reactions": reactions,
		"createdAt": "2024-05-01T10:00:00Z",
		"updatedAt": "2024-05-01T10:00:00Z",
	}
}

// WireReply builds a reply object.
func WireReply(id, postID, authorID, authorName, text string) map[string]any {
	r := WirePost(id, authorID, authorName, text)
	r["postId"] = postID
	return r
}

// WireReplies wraps replies in the {"data": [...]} envelope.
func WireReplies(replies ...map[string]any) map[string]any {
	if replies == nil {
		replies = []map[string]any{}
	}
	return map[string]any{"data": replies}
}

// WireLogin builds a login response.
func WireLogin(token, userID, role string) map[string]any {
	return map[string]any{
		"authToken":     token,
		"user":          userID,
		"role":          role,
		"profileStatus": true,
		"isComplete":    true,
	}
}

// WireError builds an error body.
func WireError(message string) map[string]any {
	return map[string]any{"message": message}
}
