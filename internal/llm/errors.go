package llm

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrMissingCredential is returned before any network attempt when an
// absolute endpoint is configured without an API key.
var ErrMissingCredential = errors.New("llm: endpoint requires an API key")

// ErrEmptyResponse is returned when the backend answers 200 with no usable
// message content. Not retried.
var ErrEmptyResponse = errors.New("llm: empty response content")

// BackendError is a non-2xx response from the backend.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("llm: backend error (status %d): %s", e.Status, e.Body)
}

// Transient reports whether this failure is worth retrying.
// Rate limiting and server-side errors are transient; other 4xx are not.
func (e *BackendError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}

// isTransient classifies an attempt error for the retry policy. Transport
// failures (including timeouts) count as transient; protocol-level failures
// other than retryable statuses do not.
func isTransient(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Transient()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// UserMessage converts a request failure into text suitable for inline
// display at the point of interaction.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "Translation unavailable: no API key configured."
	case errors.Is(err, ErrEmptyResponse):
		return "Translation failed: the service returned an empty answer."
	}
	var be *BackendError
	if errors.As(err, &be) {
		if be.Transient() {
			return "Translation failed: the service is busy. Try again."
		}
		return fmt.Sprintf("Translation failed (status %d).", be.Status)
	}
	return "Translation failed: could not reach the service."
}
