package seedevents

import (
	"context"

	"github.com/trustgraph/trustgraph/pkg/logger"
)

// Stats summarizes a seeding run.
type Stats struct {
	Generated int
	Inserted  int
	Skipped   int
	TopAgents []LeaderboardRow
}

// Run generates the configured events, submits them in batches, and
// reads back the leaderboard as a smoke check.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Named("seed-events")

	gen := NewGenerator(cfg)
	client := NewClient(cfg)

	events := gen.Generate(cfg.NumEvents)
	stats := &Stats{Generated: len(events)}
	log.Info(ctx, "seeding trust events",
		logger.Int("events", len(events)),
		logger.Int("agents", cfg.NumAgents),
		logger.String("url", cfg.BaseURL),
	)

	for start := 0; start < len(events); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(events) {
			end = len(events)
		}
		inserted, skipped, err := client.SubmitBatch(ctx, events[start:end])
		if err != nil {
			return stats, err
		}
		stats.Inserted += inserted
		stats.Skipped += skipped
		if cfg.Verbose {
			log.Info(ctx, "batch submitted",
				logger.Int("inserted", inserted),
				logger.Int("skipped", skipped),
			)
		}
	}

	rows, err := client.Leaderboard(ctx, 10)
	if err != nil {
		return stats, err
	}
	stats.TopAgents = rows

	log.Info(ctx, "seeding complete",
		logger.Int("inserted", stats.Inserted),
		logger.Int("skipped", stats.Skipped),
		logger.Int("ranked", len(rows)),
	)
	return stats, nil
}
