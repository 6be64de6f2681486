package analysis

import "errors"

// ErrInvalidInput covers a missing image URL and non-image uploads.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound is returned by repositories when no record matches.
var ErrNotFound = errors.New("analysis not found")

// MalformedResponseError is returned when the model text holds no parseable JSON.
// RawText is the model output exactly as received.
type MalformedResponseError struct {
	RawText string
	Err     error
}

func (e *MalformedResponseError) Error() string { return "Failed to parse AI response" }

func (e *MalformedResponseError) Unwrap() error { return e.Err }
