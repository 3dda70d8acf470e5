// Package storage persists planning runs. The Storage interface hides
// the backend; the only implementation is SQLite, discovered through the
// .railyard directory of the project being planned.
package storage

import (
	"context"
	"os"

	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/events"
	"github.com/railyardhq/railyard/internal/storage/sqlite"
)

// Storage defines the interface for planning run storage backends
type Storage interface {
	// Runs - persisted planning results
	SaveRun(ctx context.Context, result *engine.PlanResult, evts []*events.PlanningEvent) error
	GetRun(ctx context.Context, runID string) (*engine.PlanResult, error)
	GetLatestRun(ctx context.Context, increment string) (*engine.PlanResult, error)
	ListRuns(ctx context.Context, filter sqlite.RunFilter) ([]*sqlite.RunSummary, error)
	DeleteRun(ctx context.Context, runID string) error

	// Planning events - the event trail stored with each run
	GetRunEvents(ctx context.Context, runID string) ([]*events.PlanningEvent, error)
	GetRecentEvents(ctx context.Context, limit int) ([]*events.PlanningEvent, error)

	// Run retention - history pruning and monitoring
	PruneRunsByAge(ctx context.Context, retentionDays, batchSize int) (int, error)
	PruneRunsByIncrementLimit(ctx context.Context, perIncrementLimit, batchSize int) (int, error)
	GetRunCounts(ctx context.Context) (*sqlite.RunCounts, error)
	VacuumDatabase(ctx context.Context) error

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".railyard/railyard.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults. RAILYARD_DB_PATH
// overrides the path when set, which keeps tests and scripts off the
// project database.
func DefaultConfig() *Config {
	if path := os.Getenv("RAILYARD_DB_PATH"); path != "" {
		return &Config{Path: path}
	}
	return &Config{
		Path: ".railyard/railyard.db",
	}
}

// NewStorage creates a new SQLite storage backend
// The ctx parameter is currently unused but kept for API consistency
// and future extension possibilities
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Default to standard path if not specified
	if cfg.Path == "" {
		cfg.Path = ".railyard/railyard.db"
	}

	return sqlite.New(cfg.Path)
}
