package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/railyardhq/railyard/internal/program"
)

var (
	assessOptimize bool
	assessTarget   float64
)

var assessCmd = &cobra.Command{
	Use:   "assess <document>",
	Short: "Assess whether an increment plan is ready to commit",
	Long: `Plan the increment and report the readiness assessment in detail:
every category's score, issues, and recommendations. The plan itself
(graph, capacity, allocation) is computed but only summarized; use
'railyard plan' for the full picture.

Example:
  railyard assess pi-2026-2.yaml
  railyard assess pi-2026-2.yaml --target 0.9`,
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
			cfg.Engine.Optimize = assessOptimize
		}
		if cmd.Flags().Changed("target") {
			cfg.Engine.Optimizer.TargetScore = assessTarget
		}

		result, _ := runPipeline(ctx, cfg, inc)

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Readiness: %s ===", result.Increment)))

		if res := result.Allocation; res != nil {
			fmt.Printf("  %s\n\n", gray(fmt.Sprintf("%d of %d items placed, %d cycles, %d warnings",
				res.Stats.Allocated, res.Stats.TotalItems, len(result.Cycles), len(result.Warnings))))
		}

		renderReadiness(result.FinalAssessment(), true)

		if opt := result.Optimization; opt != nil && len(opt.Changes) > 0 {
			fmt.Printf("  %s\n\n", gray(fmt.Sprintf(
				"optimizer moved the score %.2f -> %.2f with %d change(s)",
				opt.ScoreBefore, opt.ScoreAfter, len(opt.Changes))))
		}
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)
	assessCmd.Flags().BoolVar(&assessOptimize, "optimize", true, "Run the readiness optimizer after allocation")
	assessCmd.Flags().Float64Var(&assessTarget, "target", 0, "Readiness score the optimizer drives toward (0-1)")
}
