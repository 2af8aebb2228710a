package ai

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingAPIKey is returned by the OpenRouter client before any request
// is made when no key is configured.
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY is missing")

// The typed errors below embed the decoded *APIError and unwrap to it, so
// callers can match either the category or the raw response.

// AuthError is a 401 or 403 from the provider.
type AuthError struct{ *APIError }

func (e *AuthError) Error() string { return describe("authentication failed", e.APIError) }
func (e *AuthError) Unwrap() error { return e.APIError }

// RateLimitError is a 429. RetryAfter is zero when the provider gave no hint.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return describe(fmt.Sprintf("rate limited, retry in %s", e.RetryAfter), e.APIError)
	}
	return describe("rate limited", e.APIError)
}

func (e *RateLimitError) Unwrap() error { return e.APIError }

// ModelNotFoundError means the model is unknown upstream or, for Ollama,
// not pulled yet.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string { return describe("model not found", e.APIError) }
func (e *ModelNotFoundError) Unwrap() error { return e.APIError }

// BadRequestError is a 400: the prompt or parameters were rejected.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return describe("bad request", e.APIError) }
func (e *BadRequestError) Unwrap() error { return e.APIError }

// QuotaExceededError reports billing or credit exhaustion.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string { return describe("quota exceeded", e.APIError) }
func (e *QuotaExceededError) Unwrap() error { return e.APIError }

// ServerError is a 5xx from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return describe("provider error", e.APIError) }
func (e *ServerError) Unwrap() error { return e.APIError }

// UnreachableError means no HTTP response came back at all, typically a
// local Ollama that is not running.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("endpoint unreachable: %v", e.Err)
	}
	return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// Retryable reports whether the same request may succeed later.
func Retryable(err error) bool {
	var (
		rate *RateLimitError
		srv  *ServerError
		unr  *UnreachableError
	)
	return errors.As(err, &rate) || errors.As(err, &srv) || errors.As(err, &unr)
}

func describe(kind string, e *APIError) string {
	if e == nil {
		return kind
	}
	return kind + ": " + e.Error()
}
