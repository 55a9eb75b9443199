package domain

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 style canonical JSON.
//
// It is used wherever byte-stable output matters: golden snapshots, the
// request journal and `--format json` output of snapshots.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Floats are rejected
//
// Supported values: nil, string, bool, int, int64, []any, map[string]any.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		writeCanonicalString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString escapes only the quote, the backslash and control
// characters, after NFC normalization.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// sortedKeys orders keys by UTF-16 code units.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareUTF16(keys[i], keys[j]) < 0
	})
	return keys
}

func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return len(ua) - len(ub)
}

// CanonicalMap converts the snapshot into the generic form accepted by
// MarshalCanonical. The session token is never included.
func (s *Snapshot) CanonicalMap() map[string]any {
	feed := make([]any, len(s.Feed))
	for i, p := range s.Feed {
		feed[i] = postMap(p)
	}

	replies := make(map[string]any, len(s.Replies))
	for id, e := range s.Replies {
		list := make([]any, len(e.Replies))
		for i, r := range e.Replies {
			m := postMap(r.Post)
			m["post_id"] = r.PostID
			list[i] = m
		}
		replies[id] = map[string]any{
			"replies": list,
			"loading": e.Loading,
			"error":   e.Error,
		}
	}

	return map[string]any{
		"version": s.Version,
		"session": map[string]any{
			"is_authenticated": s.Session.IsAuthenticated,
			"user_id":          s.Session.UserID,
			"role":             s.Session.Role,
			"status":           string(s.Session.Status),
			"error":            s.Session.Error,
		},
		"feed":            feed,
		"feed_status":     statusMap(s.FeedStatus),
		"compose_status":  statusMap(s.ComposeStatus),
		"replies":         replies,
		"reply_submits":   statusMaps(s.ReplySubmits),
		"reaction_status": statusMaps(s.ReactionStatus),
	}
}

func postMap(p Post) map[string]any {
	reactions := make([]any, len(p.Reactions))
	for i, r := range p.Reactions {
		reactions[i] = map[string]any{"user_id": r.UserID, "type": string(r.Type)}
	}
	m := map[string]any{
		"id":        p.ID,
		"author_id": p.Author.ID,
		"author":    p.Author.Name,
		"text":      p.Text,
		"reactions": reactions,
	}
	if !p.CreatedAt.IsZero() {
		m["created_at"] = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return m
}

func statusMap(st AsyncStatus) map[string]any {
	return map[string]any{"loading": st.Loading, "error": st.Error}
}

func statusMaps(in map[string]AsyncStatus) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = statusMap(v)
	}
	return out
}
