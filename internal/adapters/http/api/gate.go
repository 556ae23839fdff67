// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// GateHandler answers dispatch gate checks for the runtime.
type GateHandler struct {
	deps Dependencies
}

// NewGateHandler creates a new gate handler.
func NewGateHandler(deps Dependencies) *GateHandler {
	return &GateHandler{deps: deps}
}

// HandleDispatch handles GET /trust/gate/dispatch requests. The verdict
// is always 200; refusal is expressed in the body, not the status code.
func (h *GateHandler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingAgentID)
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	skill := r.URL.Query().Get("skill")

	decision, err := h.deps.CheckDispatch(r.Context(), agentID, window, skill)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
