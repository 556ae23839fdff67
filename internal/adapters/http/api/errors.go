package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrMissingAgentID = errors.New("missing agent_id query parameter")
)
