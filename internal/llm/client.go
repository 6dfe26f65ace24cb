// Package llm turns a structured chat request into a single answer string,
// shielding callers from transient backend failures.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const completionPath = "/chat/completions"

// versionSuffix matches a trailing API-version segment like "/v1".
var versionSuffix = regexp.MustCompile(`/v\d+$`)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Config holds client configuration.
type Config struct {
	// Endpoint is the configured base URL. Relative paths are treated as a
	// trusted local proxy and called without a credential header.
	Endpoint string

	// Origin is prepended to relative endpoints to form a dialable URL
	// (e.g. "http://127.0.0.1:8080").
	Origin string

	APIKey      string
	Model       string
	Temperature float64

	// Timeout bounds each attempt. Defaults to 60s; a timeout is classified
	// as transient and retried.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// RetryDelay is the backoff base; it doubles per attempt.
	RetryDelay time.Duration

	// MaxMessageLen truncates any single message body before transmission.
	MaxMessageLen int

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client sends chat completion requests with retry and failure
// classification.
type Client struct {
	endpoint      string
	absolute      bool
	apiKey        string
	model         string
	temperature   float64
	maxRetries    int
	retryDelay    time.Duration
	maxMessageLen int
	httpClient    *http.Client
	logger        *slog.Logger
}

// New creates a Client. Zero-value config fields get defaults.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxMessageLen == 0 {
		cfg.MaxMessageLen = 6000
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	endpoint := ResolveEndpoint(cfg.Endpoint)
	absolute := isAbsolute(endpoint)
	if !absolute && cfg.Origin != "" {
		endpoint = strings.TrimRight(cfg.Origin, "/") + endpoint
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint:      endpoint,
		absolute:      absolute,
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		temperature:   cfg.Temperature,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
		maxMessageLen: cfg.MaxMessageLen,
		httpClient:    httpClient,
		logger:        logger,
	}
}

// ResolveEndpoint derives the concrete completion endpoint from a configured
// base URL: a URL already naming the completion path is used as-is, one
// ending in an API-version segment gets the completion path appended, and
// anything else gets the whole versioned path appended.
func ResolveEndpoint(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasSuffix(base, completionPath):
		return base
	case versionSuffix.MatchString(base):
		return base + completionPath
	default:
		return base + "/v1" + completionPath
	}
}

// isAbsolute reports whether the endpoint names a scheme and host. Relative
// endpoints are assumed to be a trusted local proxy.
func isAbsolute(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends the message list and returns the answer content.
// Transient failures (HTTP 429, 5xx, transport errors) are retried with
// exponential backoff up to the configured cap; everything else propagates
// immediately.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.absolute && c.apiKey == "" {
		return "", ErrMissingCredential
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    c.truncate(messages),
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	var content string
	err = retry.Do(
		func() error {
			var attemptErr error
			content, attemptErr = c.attempt(ctx, payload)
			return attemptErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("llm request retry", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}

// truncate caps each message body at the configured maximum. Silent and
// lossy: availability is preferred over completeness here.
func (c *Client) truncate(messages []Message) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	for i := range out {
		if len(out[i].Content) > c.maxMessageLen {
			out[i].Content = out[i].Content[:c.maxMessageLen]
		}
	}
	return out
}

// attempt performs a single HTTP exchange.
func (c *Client) attempt(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.absolute && c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &BackendError{Status: resp.StatusCode, Body: snippet(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm: malformed response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

// snippet bounds an error body for logs and error messages.
func snippet(body []byte) string {
	const max = 500
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max]
	}
	return s
}
