// Package config loads railyard settings in three layers: compiled
// defaults, the project's .railyard/config.yaml, then RAILYARD_*
// environment overrides. Each layer only touches what it names, so a
// one-line config file or a single env var leaves everything else at
// its default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/railyardhq/railyard/internal/classify"
	"github.com/railyardhq/railyard/internal/engine"
)

// FileName is the config file looked up inside the .railyard directory.
const FileName = "config.yaml"

// Config is the full railyard configuration.
type Config struct {
	// Engine tunes the planning pipeline (allocator, optimizer,
	// value-confidence gate). Collaborator fields on engine.Config are
	// excluded from the file by their yaml tags.
	Engine engine.Config `yaml:"engine"`

	// Classifier selects how work items are judged for value delivery.
	Classifier ClassifierConfig `yaml:"classifier"`

	// Retention governs pruning of stored run history.
	Retention RetentionConfig `yaml:"retention"`

	// Database points at the run database when discovery should be
	// bypassed.
	Database DatabaseConfig `yaml:"database"`
}

// ClassifierConfig selects and tunes the value classifier.
type ClassifierConfig struct {
	// UseModel routes classification through the Anthropic API with the
	// keyword classifier as fallback. Requires ANTHROPIC_API_KEY.
	// Default: false (keyword classifier only).
	UseModel bool `yaml:"use_model"`

	// Model overrides the classifier model. Empty picks the default
	// (RAILYARD_MODEL env var, then the built-in).
	Model string `yaml:"model"`
}

// DatabaseConfig holds database location overrides.
type DatabaseConfig struct {
	// Path is the SQLite database file. Empty means discover the
	// project's .railyard/*.db (RAILYARD_DB_PATH still wins).
	Path string `yaml:"path"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Engine:    engine.DefaultConfig(),
		Retention: DefaultRetentionConfig(),
	}
}

// Load reads the project's .railyard/config.yaml if present and applies
// environment overrides. A missing file is not an error; defaults apply.
func Load(projectDir string) (*Config, error) {
	return LoadFile(filepath.Join(projectDir, ".railyard", FileName))
}

// LoadFile reads a specific config file, tolerating its absence, then
// applies environment overrides and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file; defaults and environment only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays RAILYARD_* environment variables. Env wins over the
// file, the file wins over defaults.
func (c *Config) applyEnv() error {
	if err := parseEnvBool("RAILYARD_OPTIMIZE", &c.Engine.Optimize); err != nil {
		return err
	}
	if err := parseEnvFloat("RAILYARD_TARGET_SCORE", &c.Engine.Optimizer.TargetScore); err != nil {
		return err
	}
	if err := parseEnvInt("RAILYARD_MAX_CHANGES", &c.Engine.Optimizer.MaxChanges); err != nil {
		return err
	}
	if err := parseEnvFloat("RAILYARD_MIN_VALUE_CONFIDENCE", &c.Engine.MinValueConfidence); err != nil {
		return err
	}
	if err := parseEnvBool("RAILYARD_DEFER_OVERFLOW", &c.Engine.Allocator.DeferOverflow); err != nil {
		return err
	}
	if err := parseEnvBool("RAILYARD_USE_MODEL_CLASSIFIER", &c.Classifier.UseModel); err != nil {
		return err
	}
	if err := parseEnvString("RAILYARD_DB_PATH", &c.Database.Path); err != nil {
		return err
	}
	return c.Retention.applyEnv()
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if err := c.Engine.Optimizer.Validate(); err != nil {
		return err
	}
	if c.Engine.MinValueConfidence < 0 || c.Engine.MinValueConfidence > 1 {
		return fmt.Errorf("min_value_confidence must be between 0 and 1 (got %g)",
			c.Engine.MinValueConfidence)
	}
	return c.Retention.Validate()
}

// BuildClassifier constructs the classifier the config selects. The
// keyword classifier is always the fallback; the model classifier is
// only attempted when enabled and errors without ANTHROPIC_API_KEY.
func (c *Config) BuildClassifier() (classify.Classifier, error) {
	keyword := classify.NewKeyword()
	if !c.Classifier.UseModel {
		return keyword, nil
	}

	mc := classify.DefaultModelConfig()
	if c.Classifier.Model != "" {
		mc.Model = c.Classifier.Model
	}
	model, err := classify.NewModel(mc, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to build model classifier: %w", err)
	}
	return model, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvFloat parses a float from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}
