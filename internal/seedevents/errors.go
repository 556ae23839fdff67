package seedevents

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid seed config")
	ErrSubmit        = errors.New("event submission failed")
)
