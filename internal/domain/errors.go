package domain

import "errors"

var (
	// ErrStoreUnavailable means the review store could not be reached or timed out.
	ErrStoreUnavailable = errors.New("review store unavailable")
	// ErrInvalidWindow is a configuration error: non-positive window/period or a threshold outside [0,100].
	ErrInvalidWindow = errors.New("invalid analytics window")
)
