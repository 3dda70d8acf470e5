package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/railyardhq/railyard/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl [document]",
	Short: "Explore plans interactively",
	Long: `Start an interactive session for iterating on an increment plan:
load a document, run the pipeline, inspect the graph, capacity,
allocation, and readiness, then save runs worth keeping.

Example:
  railyard repl
  railyard repl pi-2026-2.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg := loadProjectConfig()
		st := ensureStore(ctx, cfg)

		classifier, err := cfg.BuildClassifier()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		engCfg := cfg.Engine
		engCfg.Classifier = classifier

		replCfg := &repl.Config{
			Store:  st,
			Engine: engCfg,
		}
		if len(args) > 0 {
			replCfg.Document = args[0]
		}

		r, err := repl.New(replCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := r.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
