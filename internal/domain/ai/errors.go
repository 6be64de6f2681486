package ai

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider refused the call for billing reasons (HTTP 402).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrRateLimited indicates the AI provider throttled the call (HTTP 429).
var ErrRateLimited = errors.New("ai rate limited")

// ErrUpstreamUnavailable covers every other non-success answer and network failure.
var ErrUpstreamUnavailable = errors.New("ai gateway unavailable")

// ErrNotConfigured is returned before any network call when no credential is set.
var ErrNotConfigured = errors.New("vision model credential is not configured")

// ErrEmptyCompletion means the provider answered without message content.
var ErrEmptyCompletion = errors.New("no content in AI response")

// UpstreamError carries the status code of a failed gateway call.
// StatusCode is 0 when the request never got an HTTP answer.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("AI gateway error: %v", e.Err)
	}
	return fmt.Sprintf("AI gateway error: %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpstreamUnavailable) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamUnavailable }

// FromStatus maps an upstream HTTP status to the matching domain error.
func FromStatus(status int, cause error) error {
	switch status {
	case 429:
		return fmt.Errorf("%w: %v", ErrRateLimited, cause)
	case 402:
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, cause)
	default:
		return &UpstreamError{StatusCode: status, Err: cause}
	}
}
