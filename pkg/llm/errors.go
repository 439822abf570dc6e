package llm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
)

// ErrorType categorizes provider failures for retry and HTTP mapping.
type ErrorType string

const (
	// ErrorTypeAuth means the provider rejected our credentials.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeRateLimit means the provider throttled the request.
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeUnavailable means the provider is unreachable or failing.
	ErrorTypeUnavailable ErrorType = "unavailable"
	// ErrorTypeParse means the reply did not match the requested shape.
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeUnknown is an unclassified failure.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a structured provider error carrying classification, retry hints,
// and request context for logging.
type Error struct {
	Type      ErrorType
	Message   string
	Retryable bool
	Cause     error

	// StatusCode is the HTTP status from the provider, if known.
	StatusCode int

	// Provider and Model identify the backend that failed.
	Provider string
	Model    string

	// RetryDelay is the provider-requested wait before the next attempt.
	// Zero means the provider did not specify one.
	RetryDelay time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Provider != "" {
		b.WriteString(" (provider: ")
		b.WriteString(e.Provider)
		if e.Model != "" {
			b.WriteString(", model: ")
			b.WriteString(e.Model)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is maps error categories onto the engine's fault taxonomy so callers can
// test with errors.Is against the apperrors sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case apperrors.ErrRateLimited:
		return e.Type == ErrorTypeRateLimit
	case apperrors.ErrParse:
		return e.Type == ErrorTypeParse
	case apperrors.ErrUpstreamUnavailable:
		return e.Type == ErrorTypeAuth || e.Type == ErrorTypeUnavailable || e.Type == ErrorTypeUnknown
	}
	return false
}

// IsRetryable reports whether retrying the request may succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// RetryAfter returns the provider-requested wait before the next attempt,
// zero when unspecified. The retry layer prefers this over computed backoff.
func (e *Error) RetryAfter() time.Duration {
	return e.RetryDelay
}

// NewError creates a structured provider error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// retryDelayPattern matches provider throttle messages of the form
// "Please try again in 6s" or "try again in 250ms".
var retryDelayPattern = regexp.MustCompile(`(?i)try again in ([0-9.]+)\s*(ms|s|m)`)

// parseRetryDelay extracts a provider-requested wait from a throttle message.
func parseRetryDelay(message string) time.Duration {
	matches := retryDelayPattern.FindStringSubmatch(message)
	if len(matches) < 3 {
		return 0
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil || value <= 0 {
		return 0
	}

	switch strings.ToLower(matches[2]) {
	case "ms":
		return time.Duration(value * float64(time.Millisecond))
	case "s":
		return time.Duration(value * float64(time.Second))
	case "m":
		return time.Duration(value * float64(time.Minute))
	}
	return 0
}

// ClassifyError converts a raw provider error into a structured *Error by
// pattern-matching the message. Vendor SDKs differ in their error types, so
// classification works on the rendered text.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	// Already classified, keep as-is.
	if classified, ok := err.(*Error); ok {
		return classified
	}

	errStr := strings.ToLower(err.Error())

	// Authentication failures. Never retryable; the key will not fix itself.
	if strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid api key") ||
		strings.Contains(errStr, "authentication") ||
		strings.Contains(errStr, "permission denied") {
		return &Error{
			Type:      ErrorTypeAuth,
			Message:   "provider rejected credentials",
			Retryable: false,
			Cause:     err,
		}
	}

	// Throttling. Retryable; honor the provider wait when stated.
	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "quota") {
		return &Error{
			Type:       ErrorTypeRateLimit,
			Message:    "provider throttled the request",
			Retryable:  true,
			StatusCode: 429,
			Cause:      err,
			RetryDelay: parseRetryDelay(errStr),
		}
	}

	// Unknown model or endpoint path. Config problem, not transient.
	if strings.Contains(errStr, "404") ||
		(strings.Contains(errStr, "model") && strings.Contains(errStr, "not found")) ||
		strings.Contains(errStr, "does not exist") {
		return &Error{
			Type:      ErrorTypeUnknown,
			Message:   "model or endpoint not found",
			Retryable: false,
			Cause:     err,
		}
	}

	// Connectivity and server-side failures. Retryable.
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") {
		return &Error{
			Type:      ErrorTypeUnavailable,
			Message:   "provider unavailable",
			Retryable: true,
			Cause:     err,
		}
	}

	return &Error{
		Type:      ErrorTypeUnknown,
		Message:   fmt.Sprintf("unclassified provider error: %v", err),
		Retryable: false,
		Cause:     err,
	}
}

// classifyWithContext classifies err and stamps the backend identity on it.
func classifyWithContext(err error, provider, model string) *Error {
	classified := ClassifyError(err)
	if classified == nil {
		return nil
	}
	classified.Provider = provider
	classified.Model = model
	return classified
}
