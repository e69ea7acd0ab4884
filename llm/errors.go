package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrorKind is the closed classification of failure causes used uniformly
// across backends. Every failure an adapter surfaces carries exactly one
// kind, assigned at the point the failure is detected.
type ErrorKind string

const (
	ErrKindAuth           ErrorKind = "authentication"
	ErrKindRateLimited    ErrorKind = "rate_limited"
	ErrKindInvalidRequest ErrorKind = "invalid_request"
	ErrKindServer         ErrorKind = "server_error"
	ErrKindNetwork        ErrorKind = "network_error"
	ErrKindTimeout        ErrorKind = "timeout"
	ErrKindUnknown        ErrorKind = "unknown"
)

// Retryable reports whether an error of this kind can succeed on retry
// without caller action. Authentication and invalid-request failures never
// can; retrying them is wasted work.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrKindRateLimited, ErrKindServer, ErrKindNetwork, ErrKindTimeout:
		return true
	default:
		return false
	}
}

// ProviderError is the provider-agnostic error container. Adapters classify
// at the source; the core never re-classifies, and errors reach the caller
// with the original kind and message intact.
type ProviderError struct {
	Provider string
	Kind     ErrorKind

	// Status is the backend HTTP status, or 0 for non-HTTP failures.
	Status int

	// Code is the provider-specific error code, when the backend sent one.
	Code    string
	Message string

	// RetryAfter is the backend-requested wait before the next attempt,
	// parsed from rate-limit headers when present.
	RetryAfter time.Duration

	// Raw is the raw error payload (e.g. the HTTP response body).
	Raw []byte

	Cause error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Provider != "" {
		return fmt.Sprintf("llm %s: %s", e.Provider, msg)
	}
	return fmt.Sprintf("llm: %s", msg)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// IsRetryable derives retryability purely from the kind.
func (e *ProviderError) IsRetryable() bool { return e.Kind.Retryable() }

func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ClassifyStatus maps an HTTP status to an ErrorKind. Rules apply in
// priority order: auth, rate limit, other 4xx, 5xx.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrKindAuth
	case status == http.StatusTooManyRequests:
		return ErrKindRateLimited
	case status >= 400 && status < 500:
		return ErrKindInvalidRequest
	case status >= 500 && status < 600:
		return ErrKindServer
	default:
		return ErrKindUnknown
	}
}

// Classify maps a transport-level failure to an ErrorKind: elapsed
// deadlines become timeouts, connection-level failures become network
// errors. Caller cancellation is deliberately not retryable.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrKindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrKindUnknown
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return ErrKindTimeout
		}
		return ErrKindNetwork
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return ErrKindNetwork
	}
	return ErrKindUnknown
}

// ConfigError reports an invalid provider configuration, detected before
// any network call.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s config: %s: %s", e.Provider, e.Field, e.Message)
	}
	return fmt.Sprintf("%s config: %s", e.Provider, e.Message)
}
