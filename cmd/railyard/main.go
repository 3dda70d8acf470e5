package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/railyardhq/railyard/internal/config"
	"github.com/railyardhq/railyard/internal/storage"
)

// version is overridden at release time via -ldflags.
var version = "0.3.0-dev"

// store is the shared database handle for commands that read or write
// planning history. Commands open it lazily through ensureStore; tests
// inject their own instance.
var store storage.Storage

// dbPath overrides database resolution when --db is set.
var dbPath string

var rootCmd = &cobra.Command{
	Use:   "railyard",
	Short: "Release train planning for program increments",
	Long: `Railyard plans a program increment before anyone commits to it: it
builds the work-item dependency graph, computes per-iteration team
capacity, allocates items to teams and iterations, and scores the
plan's readiness.

A project keeps its planning history in .railyard/railyard.db and its
settings in .railyard/config.yaml (both optional until you --save).

Example:
  railyard init
  railyard plan pi-2026-2.yaml
  railyard plan pi-2026-2.yaml --save
  railyard repl`,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func main() {
	// A project .env keeps ANTHROPIC_API_KEY and RAILYARD_* overrides
	// out of the shell profile.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: discover .railyard/railyard.db)")
}

// loadProjectConfig loads layered settings for the current project.
// A missing config file falls back to defaults; a broken one is fatal.
func loadProjectConfig() *config.Config {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get current directory: %v\n", err)
		os.Exit(1)
	}
	// --db pointing into another project's .railyard directory reads
	// that project's config, not the one railyard was invoked from.
	if dbPath != "" {
		if root, rootErr := storage.GetProjectRoot(dbPath); rootErr == nil {
			dir = root
		}
	}
	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// resolveDBPath picks the database path from the --db flag, the config
// file, or discovery, in that order.
func resolveDBPath(cfg *config.Config) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfg != nil && cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	return storage.DiscoverDatabase()
}

// ensureStore opens the project database on first use. Commands that
// reach this cannot do anything useful without history, so failures
// are fatal.
func ensureStore(ctx context.Context, cfg *config.Config) storage.Storage {
	if store != nil {
		return store
	}

	path, err := resolveDBPath(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'railyard init' to set up a project, or pass --db.\n")
		os.Exit(1)
	}

	s, err := storage.NewStorage(ctx, &storage.Config{Path: path})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	store = s
	return store
}
