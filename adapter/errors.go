package adapter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// AuthError indicates rejected or expired credentials. Never retried; the
// integration needs operator attention.
type AuthError struct {
	Platform string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %s", e.Platform, e.Message)
}

// RateLimitedError indicates the platform throttled the request. Retried
// after the platform-advised delay when one was given.
type RateLimitedError struct {
	Platform string

	// RetryAfter is the platform-advised wait, 0 if the platform gave none.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Platform, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Platform)
}

// NotFoundError indicates the target resource does not exist on the
// platform. Never retried.
type NotFoundError struct {
	Platform string
	Message  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found: %s", e.Platform, e.Message)
}

// ValidationError indicates the platform rejected the request payload.
// Never retried; the rule's parameters are wrong.
type ValidationError struct {
	Platform string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: rejected request: %s", e.Platform, e.Message)
}

// TransientError indicates a network failure or server-side error that may
// succeed on retry.
type TransientError struct {
	Platform   string
	Message    string
	StatusCode int
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: transient failure (status %d): %s", e.Platform, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: transient failure: %s", e.Platform, e.Message)
}

// UnsupportedActionError indicates an action type the adapter does not
// implement. Never retried.
type UnsupportedActionError struct {
	Platform string
	Action   string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("%s: unsupported action %q", e.Platform, e.Action)
}

// Retryable reports whether a dispatch failure may succeed on retry. Only
// transient and rate-limit failures qualify.
func Retryable(err error) bool {
	var transient *TransientError
	var limited *RateLimitedError
	return errors.As(err, &transient) || errors.As(err, &limited)
}

// RetryAfterHint returns the platform-advised retry delay if the error
// carries one.
func RetryAfterHint(err error) (time.Duration, bool) {
	var limited *RateLimitedError
	if errors.As(err, &limited) && limited.RetryAfter > 0 {
		return limited.RetryAfter, true
	}
	return 0, false
}

// classify maps an HTTP response to the adapter error taxonomy. A nil return
// means the request succeeded.
func classify(platform string, status int, body string, header http.Header) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Platform: platform, Message: snippet(body)}
	case status == http.StatusNotFound:
		return &NotFoundError{Platform: platform, Message: snippet(body)}
	case status == http.StatusTooManyRequests:
		return &RateLimitedError{Platform: platform, RetryAfter: parseRetryAfter(header)}
	case status >= 400 && status < 500:
		return &ValidationError{Platform: platform, Message: snippet(body)}
	default:
		return &TransientError{Platform: platform, StatusCode: status, Message: snippet(body)}
	}
}

// parseRetryAfter reads a Retry-After header given as delay seconds or an
// HTTP date.
func parseRetryAfter(header http.Header) time.Duration {
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func snippet(body string) string {
	const max = 200
	if len(body) > max {
		return body[:max]
	}
	return body
}
