package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrUnknownWindow    = errors.New("unknown window")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrUnknownOutcome   = errors.New("unknown outcome")
)
