// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/trustgraph/trustgraph/internal/domain/model"
	"github.com/trustgraph/trustgraph/internal/domain/types"
	"github.com/trustgraph/trustgraph/internal/ranking"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	IngestOne(ctx context.Context, e model.Event) (types.IngestAck, error)
	IngestBatch(ctx context.Context, events []model.Event) (types.BatchAck, error)

	GetScore(ctx context.Context, subject, skill string, w model.Window) (types.ScoreSet, error)
	GetRank(ctx context.Context, subject string, w model.Window, skill string) (types.RankInfo, bool, error)
	GetLeaderboard(ctx context.Context, w model.Window, scope ranking.Scope, skill string, limit int) ([]types.LeaderboardRow, error)
	CheckDispatch(ctx context.Context, subject string, w model.Window, skill string) (types.DispatchDecision, error)
	AgentBadges(ctx context.Context, subject string, w model.Window, skill string) ([]types.Badge, error)

	RecomputeStale(ctx context.Context) (types.SweepResult, error)
	GetStats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	agentsHandler      *AgentsHandler
	rankHandler        *RankHandler
	leaderboardHandler *LeaderboardHandler
	gateHandler        *GateHandler
	jobsHandler        *JobsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		eventsHandler:      NewEventsHandler(deps),
		agentsHandler:      NewAgentsHandler(deps),
		rankHandler:        NewRankHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		gateHandler:        NewGateHandler(deps),
		jobsHandler:        NewJobsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/trust/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "trust_events"))
	mux.HandleFunc("/trust/events/batch", MetricsMiddleware(s.eventsHandler.HandlePostBatch, "trust_events_batch"))
	mux.HandleFunc("/trust/agents/", MetricsMiddleware(s.agentsHandler.HandleAgent, "trust_agents"))
	mux.HandleFunc("/trust/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "trust_rank"))
	mux.HandleFunc("/trust/gate/dispatch", MetricsMiddleware(s.gateHandler.HandleDispatch, "trust_gate_dispatch"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/jobs/recompute", MetricsMiddleware(s.jobsHandler.HandleRecompute, "jobs_recompute"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseWindow resolves the window query parameter, defaulting to 30d.
func parseWindow(r *http.Request) (model.Window, error) {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return model.Window30d, nil
	}
	return model.ParseWindow(raw)
}
