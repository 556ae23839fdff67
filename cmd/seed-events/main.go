package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/trustgraph/trustgraph/internal/seedevents"
	"github.com/trustgraph/trustgraph/pkg/logger"
)

const runTimeout = 10 * time.Minute

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numAgents = flag.Int("agents", seedevents.DefaultNumAgents, "Number of synthetic agents")
		numEvents = flag.Int("events", seedevents.DefaultNumEvents, "Number of events to generate and submit")
		batchSize = flag.Int("batch", seedevents.DefaultBatchSize, "Events per batch request")
		timeout   = flag.Duration("timeout", seedevents.DefaultTimeout, "HTTP request timeout")
		seed      = flag.Int64("seed", 0, "Random seed (0 = time-based)")
		verbose   = flag.Bool("verbose", false, "Enable per-batch logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := &seedevents.Config{
		BaseURL:   *baseURL,
		NumAgents: *numAgents,
		NumEvents: *numEvents,
		BatchSize: *batchSize,
		Timeout:   *timeout,
		Seed:      *seed,
		Verbose:   *verbose,
	}

	stats, err := seedevents.Run(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Err(err))
		os.Exit(1)
	}

	fmt.Printf("generated %d events: %d inserted, %d skipped\n",
		stats.Generated, stats.Inserted, stats.Skipped)
	for _, row := range stats.TopAgents {
		fmt.Printf("%3d. %-24s %.3f %v\n", row.Rank, row.AgentID, row.Composite, row.Badges)
	}
}
