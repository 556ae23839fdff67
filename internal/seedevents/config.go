// Package seedevents generates and submits synthetic trust events so a
// development instance has realistic scores, ranks, and badges to show.
package seedevents

import (
	"fmt"
	"time"
)

// Default configuration constants.
const (
	DefaultNumAgents = 20
	DefaultNumEvents = 1000
	DefaultBatchSize = 100
	DefaultTimeout   = 30 * time.Second
)

// Config controls one seeding run.
type Config struct {
	// BaseURL of the running service, e.g. http://localhost:8080.
	BaseURL string

	// NumAgents is how many synthetic agents to invent.
	NumAgents int

	// NumEvents is the total event count across all agents.
	NumEvents int

	// BatchSize is how many events each POST /trust/events/batch carries.
	BatchSize int

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Seed makes runs reproducible. Zero means time-based.
	Seed int64

	// Verbose enables per-batch logging.
	Verbose bool
}

// Validate rejects configurations the runner cannot work with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if c.NumAgents < 1 {
		return fmt.Errorf("%w: need at least one agent", ErrInvalidConfig)
	}
	if c.NumEvents < 1 {
		return fmt.Errorf("%w: need at least one event", ErrInvalidConfig)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	return nil
}
