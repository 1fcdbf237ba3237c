package transcribe

import (
	"errors"
	"fmt"
)

var (
	// ErrAPIKeyMissing is returned before any request when no key is set.
	ErrAPIKeyMissing = errors.New("API_KEY_MISSING")
	// ErrUnauthorized means the key was rejected. Callers should ask for a
	// new key rather than treat this as fatal.
	ErrUnauthorized = errors.New("AI service rejected the API key")
	// ErrEmptyResponse means the model returned no text.
	ErrEmptyResponse = errors.New("the AI response was empty")
	// ErrMalformedResponse means a structured response did not match its schema.
	ErrMalformedResponse = errors.New("malformed AI response")
	// ErrUnavailable covers rate limiting, server errors and timeouts.
	ErrUnavailable = errors.New("AI service unavailable")
)

// AIServiceError wraps any other failure from the remote call.
type AIServiceError struct {
	Op  string // "transcribe", "summarize"
	Err error
}

func (e *AIServiceError) Error() string {
	return fmt.Sprintf("AI service error [%s]: %v", e.Op, e.Err)
}

func (e *AIServiceError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err means the credential must be re-entered.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAPIKeyMissing) || errors.Is(err, ErrUnauthorized)
}
