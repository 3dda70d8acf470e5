package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/railyardhq/railyard/internal/storage"
)

var initSample bool

// sampleDocument is the starter increment written by 'init --sample'.
// Two teams, a short dependency chain, and one cross-team edge: enough
// to exercise every planning stage.
const sampleDocument = `# Railyard program increment document.
# Plan it with: railyard plan pi-sample.yaml
name: PI-SAMPLE

horizon:
  start: 2026-09-07
  iterations: 3
  iteration_days: 14

teams:
  - id: platform
    name: Platform
    velocity: 24
    members: 5
    specialties: [backend, infra]
  - id: web
    name: Web
    velocity: 18
    members: 4
    specialties: [frontend]

items:
  - id: auth-api
    title: Authentication API
    points: 8
    priority: 1
    acceptance_criteria: |
      Token issuance and refresh endpoints pass the conformance suite.
  - id: session-store
    title: Session storage backend
    points: 5
    priority: 1
    acceptance_criteria: |
      Sessions survive a process restart.
  - id: login-ui
    title: Login and signup screens
    points: 5
    priority: 2
    acceptance_criteria: |
      Users can sign in against the staging API.
  - id: account-ui
    title: Account settings page
    points: 3
    priority: 4
    acceptance_criteria: |
      Display name and email edits persist.

dependencies:
  - source: auth-api
    target: session-store
  - source: login-ui
    target: auth-api
  - source: account-ui
    target: auth-api
    strength: soft
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a railyard project in the current directory",
	Long: `Initialize a railyard project by creating a .railyard/ directory with
a planning-history database.

This creates:
  - .railyard/ directory
  - .railyard/railyard.db (SQLite database)

Settings live in .railyard/config.yaml; the file is optional and every
setting has a default, so none is written.

Example:
  cd ~/myprogram
  railyard init             # Creates .railyard/railyard.db
  railyard init --sample    # Also writes pi-sample.yaml to plan against`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get current directory: %v\n", err)
			os.Exit(1)
		}

		path, err := storage.InitProject(cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Materialize the schema by opening and closing the database.
		ctx := context.Background()
		db, err := storage.NewStorage(ctx, &storage.Config{Path: path})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to initialize database: %v\n", err)
			os.Exit(1)
		}
		_ = db.Close()

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized railyard project\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(path))
		fmt.Printf("  Project root: %s\n", cyan(cwd))
		fmt.Println()

		planTarget := "<document.yaml>"
		if initSample {
			samplePath := filepath.Join(cwd, "pi-sample.yaml")
			if err := writeSampleDocument(samplePath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
				fmt.Fprintf(os.Stderr, "The project was initialized successfully without it.\n")
			} else {
				fmt.Printf("%s Wrote %s\n\n", green("✓"), cyan("pi-sample.yaml"))
				planTarget = "pi-sample.yaml"
			}
		}

		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray(fmt.Sprintf("railyard plan %s", planTarget)))
		fmt.Printf("  %s\n", gray(fmt.Sprintf("railyard plan %s --save", planTarget)))
		fmt.Printf("  %s\n", gray("railyard repl"))
		fmt.Println()
	},
}

// writeSampleDocument writes the starter increment, refusing to clobber
// an existing file.
func writeSampleDocument(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, not overwriting", path)
	}
	if err := os.WriteFile(path, []byte(sampleDocument), 0644); err != nil {
		return fmt.Errorf("failed to write sample document: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initSample, "sample", false, "Write a starter increment document (pi-sample.yaml)")
}
