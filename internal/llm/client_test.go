package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func answer(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
}

func newTestClient(endpoint string) *Client {
	return New(Config{
		Endpoint:   endpoint,
		APIKey:     "test-key",
		RetryDelay: time.Millisecond,
	}, nil)
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"https://api.example.com/v1/chat/completions", "https://api.example.com/v1/chat/completions"},
		{"https://api.example.com/v1", "https://api.example.com/v1/chat/completions"},
		{"https://api.example.com/v2/", "https://api.example.com/v2/chat/completions"},
		{"https://api.example.com", "https://api.example.com/v1/chat/completions"},
		{"/api/llm", "/api/llm/v1/chat/completions"},
		{"/api/llm/v1", "/api/llm/v1/chat/completions"},
	}
	for _, tt := range tests {
		if got := ResolveEndpoint(tt.base); got != tt.want {
			t.Errorf("ResolveEndpoint(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestChat_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, answer("hello"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "hello" {
		t.Errorf("content = %q, want %q", got, "hello")
	}
}

func TestChat_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			fmt.Fprint(w, answer("eventually"))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "eventually" {
		t.Errorf("content = %q", got)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("backend called %d times, want 3", n)
	}
}

func TestChat_PermanentFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"bad request"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	var be *BackendError
	if !errors.As(err, &be) || be.Status != http.StatusBadRequest {
		t.Errorf("error = %v, want BackendError 400", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
}

func TestChat_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	// First attempt plus two retries.
	if n := calls.Load(); n != 3 {
		t.Errorf("backend called %d times, want 3", n)
	}
}

func TestChat_MissingCredential(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, RetryDelay: time.Millisecond}, nil)
	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("backend called %d times, want 0", n)
	}
}

func TestChat_RelativeEndpointOmitsCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
		if r.URL.Path != "/api/llm/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, answer("proxied"))
	}))
	defer srv.Close()

	c := New(Config{
		Endpoint:   "/api/llm",
		Origin:     srv.URL,
		RetryDelay: time.Millisecond,
	}, nil)
	got, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "proxied" {
		t.Errorf("content = %q", got)
	}
}

func TestChat_EmptyResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("error = %v, want ErrEmptyResponse", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
}

func TestChat_TruncatesLongMessages(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		gotLen = len(req.Messages[0].Content)
		fmt.Fprint(w, answer("ok"))
	}))
	defer srv.Close()

	c := New(Config{
		Endpoint:      srv.URL,
		APIKey:        "test-key",
		MaxMessageLen: 100,
		RetryDelay:    time.Millisecond,
	}, nil)

	long := strings.Repeat("x", 500)
	if _, err := c.Chat(context.Background(), []Message{{Role: RoleUser, Content: long}}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if gotLen != 100 {
		t.Errorf("transmitted message length = %d, want 100", gotLen)
	}
	if len(long) != 500 {
		t.Error("caller's message was mutated")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrMissingCredential, "no API key"},
		{ErrEmptyResponse, "empty answer"},
		{&BackendError{Status: 429}, "busy"},
		{&BackendError{Status: 418}, "status 418"},
		{errors.New("dial tcp: refused"), "could not reach"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("UserMessage(%v) = %q, want substring %q", tt.err, got, tt.want)
		}
	}
}
