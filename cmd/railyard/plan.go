package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/railyardhq/railyard/internal/config"
	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/events"
	"github.com/railyardhq/railyard/internal/program"
	"github.com/railyardhq/railyard/internal/storage"
)

var (
	planSave     bool
	planJSON     bool
	planVerbose  bool
	planOptimize bool
	planTarget   float64
)

var planCmd = &cobra.Command{
	Use:   "plan <document>",
	Short: "Plan a program increment from a YAML document",
	Long: `Run the full planning pipeline on an increment document: build the
dependency graph, compute per-iteration team capacity, allocate work
items, assess readiness, and (unless disabled) optimize the plan
toward the readiness target.

The document lists the horizon, teams, work items, and dependencies.
'railyard init --sample' writes a starter document.

Example:
  railyard plan pi-2026-2.yaml
  railyard plan pi-2026-2.yaml --save           # Persist the run
  railyard plan pi-2026-2.yaml --json > out.json
  railyard plan pi-2026-2.yaml --target 0.9 --verbose
  railyard plan pi-2026-2.yaml --optimize=false`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		inc, err := program.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg := loadProjectConfig()
		if cmd.Flags().Changed("optimize") {
			cfg.Engine.Optimize = planOptimize
		}
		if cmd.Flags().Changed("target") {
			cfg.Engine.Optimizer.TargetScore = planTarget
		}

		result, trail := runPipeline(ctx, cfg, inc)

		if planJSON {
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to encode result: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
		} else {
			renderPlanResult(result, planVerbose)
			if planVerbose && len(trail) > 0 {
				yellow := color.New(color.FgYellow).SprintFunc()
				fmt.Printf("%s\n", yellow("Events:"))
				for _, evt := range trail {
					displayPlanningEvent(evt)
				}
				fmt.Println()
			}
		}

		if planSave {
			st := ensureStore(ctx, cfg)
			if err := st.SaveRun(ctx, result, trail); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to save run: %v\n", err)
				os.Exit(1)
			}
			if !planJSON {
				green := color.New(color.FgGreen).SprintFunc()
				fmt.Printf("%s Saved run %s\n", green("✓"), result.RunID)
			}
			if pruned := pruneHistory(ctx, st, &cfg.Retention); pruned > 0 && !planJSON {
				gray := color.New(color.FgHiBlack).SprintFunc()
				fmt.Printf("%s\n", gray(fmt.Sprintf("Pruned %d old run(s) per retention policy", pruned)))
			}
		}
	},
}

// runPipeline builds an engine from the config and plans the increment,
// returning the result and the collected event trail. Fatal on
// classifier, engine, or run errors.
func runPipeline(ctx context.Context, cfg *config.Config, inc *program.Increment) (*engine.PlanResult, []*events.PlanningEvent) {
	classifier, err := cfg.BuildClassifier()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sink := events.NewCollectorSink()
	engCfg := cfg.Engine
	engCfg.Classifier = classifier
	engCfg.Sink = sink

	eng, err := engine.New(engCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := eng.Run(ctx, inc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: planning failed: %v\n", err)
		os.Exit(1)
	}
	return result, sink.Events()
}

// pruneHistory applies the retention policy after a save and returns
// the number of runs removed. Prune failures are warnings: the run
// itself is already durable.
func pruneHistory(ctx context.Context, st storage.Storage, ret *config.RetentionConfig) int {
	if !ret.PruneEnabled {
		return 0
	}

	pruned := 0
	if n, err := st.PruneRunsByAge(ctx, ret.RetentionDays, ret.PruneBatchSize); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: retention prune failed: %v\n", err)
	} else {
		pruned += n
	}
	if n, err := st.PruneRunsByIncrementLimit(ctx, ret.PerIncrementLimit, ret.PruneBatchSize); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: retention prune failed: %v\n", err)
	} else {
		pruned += n
	}

	if pruned > 0 && ret.PruneVacuum {
		if err := st.VacuumDatabase(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: vacuum failed: %v\n", err)
		}
	}
	return pruned
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().BoolVar(&planSave, "save", false, "Persist the run and its events to the project database")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Emit the plan result as JSON instead of the summary")
	planCmd.Flags().BoolVar(&planVerbose, "verbose", false, "Show placements, issue detail, and the event trail")
	planCmd.Flags().BoolVar(&planOptimize, "optimize", true, "Run the readiness optimizer after allocation")
	planCmd.Flags().Float64Var(&planTarget, "target", 0, "Readiness score the optimizer drives toward (0-1)")
}
