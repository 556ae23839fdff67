// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// JobsHandler exposes operational jobs over HTTP.
type JobsHandler struct {
	deps Dependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps Dependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleRecompute handles POST /jobs/recompute requests, running one
// stale-score sweep pass synchronously.
func (h *JobsHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	result, err := h.deps.RecomputeStale(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
