package domain

// CountOf returns the number of reactions of the given type on the post.
func CountOf(p Post, rt ReactionType) int {
	n := 0
	for _, r := range p.Reactions {
		if r.Type == rt {
			n++
		}
	}
	return n
}

// ViewerReacted reports whether viewerID has a reaction of type rt on the post.
// An empty viewerID never matches.
func ViewerReacted(p Post, viewerID string, rt ReactionType) bool {
	if viewerID == "" {
		return false
	}
	for _, r := range p.Reactions {
		if r.UserID == viewerID && r.Type == rt {
			return true
		}
	}
	return false
}

// ReactionSummary is the derived aggregate for one reaction type.
type ReactionSummary struct {
	Type    ReactionType `json:"type"`
	Count   int          `json:"count"`
	Reacted bool         `json:"reacted"`
}

// Summarize returns one summary row per reaction type, in AllReactionTypes order.
func Summarize(p Post, viewerID string) []ReactionSummary {
	out := make([]ReactionSummary, 0, len(AllReactionTypes))
	for _, rt := range AllReactionTypes {
		out = append(out, ReactionSummary{
			Type:    rt,
			Count:   CountOf(p, rt),
			Reacted: ViewerReacted(p, viewerID, rt),
		})
	}
	return out
}
