package seedevents

import (
	"fmt"
	"math/rand"
	"time"
)

// persona shapes an agent's event mix. Probabilities are cumulative
// weights over the generator's draw.
type persona struct {
	name        string
	pComplete   float64 // chance a task event is a completion
	pDispute    float64 // chance of an integrity-negative event
	pOnTime     float64 // chance a wakeup is answered on time
	skillBiased bool    // tags a recurring skill on most events
}

var personas = []persona{
	{name: "steady", pComplete: 0.95, pDispute: 0.01, pOnTime: 0.95, skillBiased: true},
	{name: "solid", pComplete: 0.85, pDispute: 0.02, pOnTime: 0.8, skillBiased: false},
	{name: "flaky", pComplete: 0.6, pDispute: 0.05, pOnTime: 0.5, skillBiased: false},
	{name: "shady", pComplete: 0.7, pDispute: 0.25, pOnTime: 0.6, skillBiased: true},
}

var sources = []string{"taskmint", "wakenet", "provenet", "payrail"}

var skills = []string{"translation", "research", "code-review", "scheduling"}

// Event is the wire shape submitted to POST /trust/events/batch.
type Event struct {
	SubjectAgentID string `json:"subject_agent_id"`
	SkillID        string `json:"skill_id,omitempty"`
	Source         string `json:"source"`
	EventType      string `json:"event_type"`
	Outcome        string `json:"outcome"`
	Severity       int    `json:"severity"`
	ValueUSDMicros int64  `json:"value_usd_micros,omitempty"`
	OccurredAt     string `json:"occurred_at"`
	RefType        string `json:"external_ref_type,omitempty"`
	RefID          string `json:"external_ref_id,omitempty"`
}

// Generator produces a stream of synthetic events.
type Generator struct {
	rng    *rand.Rand
	agents []string
	kinds  []persona
}

// NewGenerator seeds a generator for cfg. The same seed produces the
// same event stream.
func NewGenerator(cfg *Config) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	agents := make([]string, cfg.NumAgents)
	kinds := make([]persona, cfg.NumAgents)
	for i := range agents {
		p := personas[i%len(personas)]
		agents[i] = fmt.Sprintf("agent-%s-%03d", p.name, i)
		kinds[i] = p
	}
	return &Generator{rng: rng, agents: agents, kinds: kinds}
}

// Generate produces n events spread over the past 30 days.
func (g *Generator) Generate(n int) []Event {
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		idx := g.rng.Intn(len(g.agents))
		events = append(events, g.one(i, g.agents[idx], g.kinds[idx]))
	}
	return events
}

func (g *Generator) one(seq int, agent string, p persona) Event {
	occurred := time.Now().Add(-time.Duration(g.rng.Intn(30*24)) * time.Hour)

	e := Event{
		SubjectAgentID: agent,
		Source:         sources[g.rng.Intn(len(sources))],
		Severity:       severity1To100(g.rng),
		OccurredAt:     occurred.UTC().Format(time.RFC3339),
		RefType:        "seed",
		RefID:          fmt.Sprintf("seed-%d", seq),
	}
	if p.skillBiased && g.rng.Float64() < 0.7 {
		e.SkillID = skills[g.rng.Intn(len(skills))]
	}

	switch draw := g.rng.Float64(); {
	case draw < 0.55: // task lifecycle
		if g.rng.Float64() < p.pComplete {
			e.EventType, e.Outcome = "task_completed", "success"
		} else if g.rng.Float64() < p.pDispute {
			e.EventType, e.Outcome = "task_disputed", "failure"
		} else {
			e.EventType, e.Outcome = "task_failed", "failure"
		}
	case draw < 0.75: // wakeup timeliness
		switch {
		case g.rng.Float64() < p.pOnTime:
			e.EventType, e.Outcome = "wakeup_received", "success"
		case g.rng.Float64() < 0.5:
			e.EventType, e.Outcome = "reaction_late", "neutral"
		default:
			e.EventType, e.Outcome = "wakeup_missed", "failure"
		}
	case draw < 0.9: // execution proofs
		if g.rng.Float64() < 1-p.pDispute {
			e.EventType, e.Outcome = "execution_proved", "success"
		} else {
			e.EventType, e.Outcome = "execution_invalid", "failure"
		}
	default: // payments
		if g.rng.Float64() < 1-p.pDispute {
			e.EventType, e.Outcome = "payment_settled", "success"
			e.ValueUSDMicros = int64(g.rng.Intn(50_000_000))
		} else {
			e.EventType, e.Outcome = "payment_reversed", "failure"
		}
	}
	return e
}

func severity1To100(rng *rand.Rand) int {
	return 1 + rng.Intn(100)
}
