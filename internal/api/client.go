package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/feedsync/internal/domain"
)

// DefaultTimeout bounds each request when the caller's context has no deadline.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Client talks to the community backend.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.SessionInfo, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	if resp.AuthToken == "" {
		return domain.SessionInfo{}, ErrMissingToken
	}
	return domain.SessionInfo{
		Token:         resp.AuthToken,
		UserID:        resp.User.ID,
		Role:          resp.Role,
		ProfileStatus: resp.ProfileStatus,
		IsComplete:    resp.IsComplete,
	}, nil
}

// FetchPosts returns the feed in server order.
func (c *Client) FetchPosts(ctx context.Context, token string) ([]domain.Post, error) {
	var wire []wirePost
	if err := c.do(ctx, http.MethodGet, "/api/community/post", token, nil, &wire); err != nil {
		return nil, err
	}
	posts := make([]domain.Post, 0, len(wire))
	for _, w := range wire {
		posts = append(posts, w.toPost())
	}
	return posts, nil
}

// SendPost publishes a new post and returns the server's copy.
func (c *Client) SendPost(ctx context.Context, token, text string) (domain.Post, error) {
	var wire wirePost
	if err := c.do(ctx, http.MethodPost, "/api/community/sendpost", token, sendPostRequest{Text: norm.NFC.String(text)}, &wire); err != nil {
		return domain.Post{}, err
	}
	return wire.toPost(), nil
}

// SendReply attaches a reply to postID.
func (c *Client) SendReply(ctx context.Context, token, postID, text string) (domain.Reply, error) {
	var wire wirePost
	req := sendReplyRequest{Text: norm.NFC.String(text), PostID: postID}
	if err := c.do(ctx, http.MethodPost, "/api/community/replypost", token, req, &wire); err != nil {
		return domain.Reply{}, err
	}
	return wire.toReply(postID), nil
}

// FetchReplies returns every reply of postID. A post without replies yields
// an empty, non-nil slice.
func (c *Client) FetchReplies(ctx context.Context, token, postID string) ([]domain.Reply, error) {
	var resp repliesResponse
	path := "/api/community/replies/" + url.PathEscape(postID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	replies := make([]domain.Reply, 0, len(resp.Data))
	for _, w := range resp.Data {
		replies = append(replies, w.toReply(postID))
	}
	return replies, nil
}

// ToggleReaction asks the server to add or remove the caller's reaction and
// returns the post as the server now sees it.
func (c *Client) ToggleReaction(ctx context.Context, token, postID string, rt domain.ReactionType) (domain.Post, error) {
	var wire wirePost
	path := "/api/community/post/" + url.PathEscape(postID) + "/react"
	if err := c.do(ctx, http.MethodPost, path, token, reactRequest{ReactionType: string(rt)}, &wire); err != nil {
		return domain.Post{}, err
	}
	return wire.toPost(), nil
}

// do performs one JSON round trip. out may be nil.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: build request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	reqID := RequestID(ctx)
	if reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Endpoint: path}
		var eb errorBody
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); readErr == nil {
			if json.Unmarshal(data, &eb) == nil {
				se.Message = eb.Message
			}
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrDecode, err)
	}
	return nil
}
