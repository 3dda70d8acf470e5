package config

import (
	"fmt"
)

// RetentionConfig holds configuration for run history retention and pruning
type RetentionConfig struct {
	// RetentionDays is how long superseded runs are kept (in days)
	// The newest run of each increment is exempt and kept indefinitely
	// Default: 90, Range: 1-730
	RetentionDays int `yaml:"retention_days"`

	// PerIncrementLimit is the maximum number of runs to keep per increment
	// When the limit is exceeded, oldest runs are deleted first
	// Set to 0 for unlimited
	// Default: 50, Range: 0 or 5-1000
	PerIncrementLimit int `yaml:"per_increment_limit"`

	// PruneBatchSize is the number of runs to delete per statement
	// Larger batches = faster pruning but longer locks
	// Default: 100, Range: 10-10000
	PruneBatchSize int `yaml:"prune_batch_size"`

	// PruneEnabled controls whether pruning runs after a saved plan
	// Default: true
	PruneEnabled bool `yaml:"prune_enabled"`

	// PruneVacuum controls whether to run VACUUM after pruning
	// VACUUM reclaims disk space but can lock the database
	// Default: false
	PruneVacuum bool `yaml:"prune_vacuum"`
}

// DefaultRetentionConfig returns the default run retention configuration
//
// These defaults are chosen to:
// - Keep a quarter's worth of planning history (90 days)
// - Cap replan churn per increment (50 runs)
// - Prune in small batches so the database stays responsive
// - Skip VACUUM by default (non-blocking pruning)
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionDays:     90,
		PerIncrementLimit: 50,
		PruneBatchSize:    100,
		PruneEnabled:      true,
		PruneVacuum:       false,
	}
}

// Validate checks if the configuration has valid values
func (c RetentionConfig) Validate() error {
	if c.RetentionDays < 1 || c.RetentionDays > 730 {
		return fmt.Errorf("retention_days must be between 1 and 730 (got %d)", c.RetentionDays)
	}

	// PerIncrementLimit: 0 = unlimited, or 5-1000
	if c.PerIncrementLimit < 0 {
		return fmt.Errorf("per_increment_limit cannot be negative (got %d)", c.PerIncrementLimit)
	}
	if c.PerIncrementLimit > 0 && c.PerIncrementLimit < 5 {
		return fmt.Errorf("per_increment_limit must be 0 (unlimited) or >= 5 (got %d)", c.PerIncrementLimit)
	}
	if c.PerIncrementLimit > 1000 {
		return fmt.Errorf("per_increment_limit too large (got %d, max 1000)", c.PerIncrementLimit)
	}

	if c.PruneBatchSize < 10 {
		return fmt.Errorf("prune_batch_size must be at least 10 (got %d)", c.PruneBatchSize)
	}
	if c.PruneBatchSize > 10000 {
		return fmt.Errorf("prune_batch_size too large (got %d, max 10000)", c.PruneBatchSize)
	}

	return nil
}

// String returns a human-readable representation of the config
func (c RetentionConfig) String() string {
	return fmt.Sprintf(
		"RetentionConfig{RetentionDays: %d, PerIncrementLimit: %d, "+
			"BatchSize: %d, Enabled: %t, Vacuum: %t}",
		c.RetentionDays, c.PerIncrementLimit, c.PruneBatchSize,
		c.PruneEnabled, c.PruneVacuum,
	)
}

// applyEnv overlays RAILYARD_* environment variables onto the config.
// Unset variables leave the current values alone.
func (c *RetentionConfig) applyEnv() error {
	if err := parseEnvInt("RAILYARD_RETENTION_DAYS", &c.RetentionDays); err != nil {
		return err
	}
	if err := parseEnvInt("RAILYARD_PER_INCREMENT_LIMIT", &c.PerIncrementLimit); err != nil {
		return err
	}
	if err := parseEnvInt("RAILYARD_PRUNE_BATCH_SIZE", &c.PruneBatchSize); err != nil {
		return err
	}
	if err := parseEnvBool("RAILYARD_PRUNE_ENABLED", &c.PruneEnabled); err != nil {
		return err
	}
	if err := parseEnvBool("RAILYARD_PRUNE_VACUUM", &c.PruneVacuum); err != nil {
		return err
	}
	return nil
}

// RetentionConfigFromEnv creates a RetentionConfig from environment
// variables, falling back to defaults
//
// Environment variables:
//   - RAILYARD_RETENTION_DAYS: Retention period for superseded runs in days (default: 90)
//   - RAILYARD_PER_INCREMENT_LIMIT: Maximum runs per increment, 0 for unlimited (default: 50)
//   - RAILYARD_PRUNE_BATCH_SIZE: Runs to delete per statement (default: 100)
//   - RAILYARD_PRUNE_ENABLED: Prune after saving a run (default: true)
//   - RAILYARD_PRUNE_VACUUM: Run VACUUM after pruning (default: false)
//
// Returns an error if any environment variable has an invalid value.
func RetentionConfigFromEnv() (RetentionConfig, error) {
	cfg := DefaultRetentionConfig()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid retention configuration from environment: %w", err)
	}

	return cfg, nil
}
