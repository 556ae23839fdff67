// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// rankResponse is the read shape for GET /trust/rank/{id}.
type rankResponse struct {
	AgentID string `json:"agent_id"`
	Window  string `json:"window"`
	SkillID string `json:"skill_id,omitempty"`
	Ranked  bool   `json:"ranked"`
	Rank    int    `json:"rank,omitempty"`
	Total   int    `json:"total,omitempty"`
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps Dependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps Dependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /trust/rank/{agent_id} requests. Ineligible
// or unscored agents report ranked=false rather than an error.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	agentID := strings.TrimPrefix(r.URL.Path, "/trust/rank/")
	if agentID == "" || strings.Contains(agentID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	skill := r.URL.Query().Get("skill")

	info, ok, err := h.deps.GetRank(r.Context(), agentID, window, skill)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	resp := rankResponse{
		AgentID: agentID,
		Window:  string(window),
		SkillID: skill,
		Ranked:  ok,
	}
	if ok {
		resp.Rank = info.Rank
		resp.Total = info.Total
	}
	writeJSON(w, http.StatusOK, resp)
}
