// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	service "github.com/trustgraph/trustgraph/internal/app"
	"github.com/trustgraph/trustgraph/internal/domain/model"
)

// eventRequest mirrors the OpenAPI schema for POST /trust/events.
type eventRequest struct {
	SubjectAgentID string         `json:"subject_agent_id"`
	ActorAgentID   string         `json:"actor_agent_id,omitempty"`
	SkillID        string         `json:"skill_id,omitempty"`
	Source         string         `json:"source"`
	EventType      string         `json:"event_type"`
	Outcome        string         `json:"outcome"`
	Severity       int            `json:"severity"`
	ValueUSDMicros int64          `json:"value_usd_micros,omitempty"`
	OccurredAt     string         `json:"occurred_at"`
	RefType        string         `json:"external_ref_type,omitempty"`
	RefID          string         `json:"external_ref_id,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// toEvent converts the wire shape into the domain event. Field-level
// validation beyond timestamp parsing is owned by the service.
func (e eventRequest) toEvent() (model.Event, error) {
	var occurred time.Time
	if e.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339, e.OccurredAt)
		if err != nil {
			return model.Event{}, fmt.Errorf("%w: occurred_at must be RFC3339", ErrBadRequest)
		}
		occurred = t
	}
	return model.Event{
		Subject:     e.SubjectAgentID,
		Actor:       e.ActorAgentID,
		Skill:       e.SkillID,
		Source:      e.Source,
		Type:        model.EventType(e.EventType),
		Outcome:     model.Outcome(e.Outcome),
		Severity:    e.Severity,
		ValueMicros: e.ValueUSDMicros,
		OccurredAt:  occurred,
		RefType:     e.RefType,
		RefID:       e.RefID,
		Evidence:    e.Evidence,
	}, nil
}

type batchRequest struct {
	Events []eventRequest `json:"events"`
}

// EventsHandler handles trust event ingestion requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /trust/events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	e, err := req.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	ack, err := h.deps.IngestOne(r.Context(), e)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if ack.Duplicate {
		writeJSON(w, http.StatusOK, ack)
		return
	}
	writeJSON(w, http.StatusCreated, ack)
}

// HandlePostBatch handles POST /trust/events/batch requests.
func (h *EventsHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	events := make([]model.Event, 0, len(req.Events))
	for _, er := range req.Events {
		e, err := er.toEvent()
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		events = append(events, e)
	}

	ack, err := h.deps.IngestBatch(r.Context(), events)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusCreated, ack)
}
