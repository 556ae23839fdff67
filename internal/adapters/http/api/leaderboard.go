// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/trustgraph/trustgraph/internal/domain/types"
	"github.com/trustgraph/trustgraph/internal/ranking"
)

// leaderboardResponse is the read shape for GET /leaderboard.
type leaderboardResponse struct {
	Window  string                 `json:"window"`
	Scope   string                 `json:"scope"`
	SkillID string                 `json:"skill_id,omitempty"`
	Rows    []types.LeaderboardRow `json:"rows"`
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps Dependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /leaderboard requests. The limit is
// clamped to the service's configured maximum rather than rejected.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	scope, err := ranking.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	skill := r.URL.Query().Get("skill")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, perr := strconv.Atoi(raw)
		if perr != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		limit = n
	}

	rows, err := h.deps.GetLeaderboard(r.Context(), window, scope, skill, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{
		Window:  string(window),
		Scope:   string(scope),
		SkillID: skill,
		Rows:    rows,
	})
}
