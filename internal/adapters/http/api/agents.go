// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/trustgraph/trustgraph/internal/domain/types"
)

// scoresResponse is the read shape for GET /trust/agents/{id}.
type scoresResponse struct {
	AgentID string         `json:"agent_id"`
	Window  string         `json:"window"`
	SkillID string         `json:"skill_id,omitempty"`
	Scores  types.ScoreSet `json:"scores"`
}

// badgesResponse is the read shape for GET /trust/agents/{id}/badges.
type badgesResponse struct {
	AgentID string        `json:"agent_id"`
	Window  string        `json:"window"`
	SkillID string        `json:"skill_id,omitempty"`
	Badges  []types.Badge `json:"badges"`
}

// AgentsHandler serves per-agent score and badge reads.
type AgentsHandler struct {
	deps Dependencies
}

// NewAgentsHandler creates a new agents handler.
func NewAgentsHandler(deps Dependencies) *AgentsHandler {
	return &AgentsHandler{deps: deps}
}

// HandleAgent handles GET /trust/agents/{id} and
// GET /trust/agents/{id}/badges requests.
func (h *AgentsHandler) HandleAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/trust/agents/")
	agentID, wantBadges := rest, false
	if cut, found := strings.CutSuffix(rest, "/badges"); found {
		agentID, wantBadges = cut, true
	}
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

	if wantBadges {
		badges, err := h.deps.AgentBadges(r.Context(), agentID, window, skill)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, badgesResponse{
			AgentID: agentID,
			Window:  string(window),
			SkillID: skill,
			Badges:  badges,
		})
		return
	}

	scores, err := h.deps.GetScore(r.Context(), agentID, skill, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, scoresResponse{
		AgentID: agentID,
		Window:  string(window),
		SkillID: skill,
		Scores:  scores,
	})
}
