package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrUnknownScope = errors.New("unknown scope")
)
