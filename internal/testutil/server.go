package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Response is one scripted answer of the fake API.
type Response struct {
	Status int
	// Body is JSON-encoded unless it is a string, which is sent verbatim.
	Body any
	// Wait, if non-nil, holds the response until it is closed.
	Wait <-chan struct{}
}

// RecordedRequest is a request received by the fake API.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          []byte
}

// FakeAPI is an httptest server standing in for the feed backend.
//
// Each route ("METHOD /path") answers from a FIFO of scripted responses;
// when the FIFO is empty the route's fixed response is used, and unknown
// routes answer 404 {"message":"not found"}.
type FakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	queued   map[string][]Response
	fixed    map[string]Response
	requests []RecordedRequest
}

// NewFakeAPI starts a fake API that is closed when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	f := StartFakeAPI()
	t.Cleanup(f.Server.Close)
	return f
}

// StartFakeAPI starts a fake API outside a test. The caller must Close it.
func StartFakeAPI() *FakeAPI {
	f := &FakeAPI{
		queued: make(map[string][]Response),
		fixed:  make(map[string]Response),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func route(method, path string) string {
	return method + " " + path
}

// Handle sets the fixed response of a route.
func (f *FakeAPI) Handle(method, path string, status int, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixed[route(method, path)] = Response{Status: status, Body: body}
}

// Enqueue appends one-shot responses to a route. They are used in order
// before the fixed response.
func (f *FakeAPI) Enqueue(method, path string, responses ...Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := route(method, path)
	f.queued[key] = append(f.queued[key], responses...)
}

// Requests returns a copy of every request received so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// RequestCount returns how many requests have been received.
func (f *FakeAPI) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := route(r.Method, r.URL.Path)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		Body:          body,
	})
	resp, ok := f.next(key)
	f.mu.Unlock()

	if !ok {
		resp = Response{Status: http.StatusNotFound, Body: map[string]string{"message": "not found"}}
	}

	if resp.Wait != nil {
		select {
		case <-resp.Wait:
		case <-r.Context().Done():
			return
		}
	}

	write(w, resp)
}

// next pops the route's next queued response. Caller holds f.mu.
func (f *FakeAPI) next(key string) (Response, bool) {
	if q := f.queued[key]; len(q) > 0 {
		f.queued[key] = q[1:]
		return q[0], true
	}
	resp, ok := f.fixed[key]
	return resp, ok
}

func write(w http.ResponseWriter, resp Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	var payload []byte
	switch b := resp.Body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
