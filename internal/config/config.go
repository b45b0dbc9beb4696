// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and PEGSYNC_ env vars.
// - Errors returned by Load wrap this package's sentinel kinds.
package config

import "runtime"

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory persistence queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds how many saved event ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver selects the history store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// MaxSlots caps slot_count on allocation requests.
	MaxSlots int `koanf:"max_slots"`

	// RandomSeed makes random mode reproducible when non-zero.
	RandomSeed uint64 `koanf:"random_seed"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		QueueSize:   1_000,
		WorkerCount: runtime.NumCPU(),
		DedupeSize:  10_000,
		StoreDriver: StoreMemory,
		SQLitePath:  "pegsync.db",
		MaxSlots:    64,
	}
}
