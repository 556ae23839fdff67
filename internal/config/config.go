// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SQLitePath is the path of the SQLite database file. The special
	// value ":memory:" keeps the store entirely in process memory.
	SQLitePath string `koanf:"sqlite_path"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SweepIntervalMinutes sets how often the background sweeper
	// recomputes stale scores. Zero disables the sweeper.
	SweepIntervalMinutes int `koanf:"sweep_interval_minutes"`

	// SweepBatchSize bounds how many stale subject/skill keys a single
	// sweep pass recomputes. Zero means lazy-only recomputation.
	SweepBatchSize int `koanf:"sweep_batch_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		SQLitePath:           "trustgraph.db",
		MaxLeaderboardLimit:  100,
		SweepIntervalMinutes: 15,
		SweepBatchSize:       100,
	}
}
