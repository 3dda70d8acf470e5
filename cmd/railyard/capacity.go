package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/program"
)

var capacityCmd = &cobra.Command{
	Use:   "capacity <document>",
	Short: "Compute per-iteration team capacity",
	Long: `Compute the derated capacity of every team in every iteration of the
horizon, without allocating anything.

Velocity is derated by the compound availability factors (holiday,
PTO, meetings, focus) and the team's own capacity factor, scaled to
the iteration length, less the unplanned-work buffer.

Example:
  railyard capacity pi-2026-2.yaml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		inc, err := program.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		eng, err := engine.New(engine.DefaultConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		caps, err := eng.ComputeCapacities(ctx, inc.Teams, inc.Iterations, inc.Factors)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Capacity: %s ===", inc.Name)))

		f := caps.Factors()
		fmt.Printf("  %s\n\n", gray(fmt.Sprintf(
			"factors: holiday=%.2f pto=%.2f meetings=%.2f focus=%.2f buffer=%.2f ceiling=%.2f",
			f.Holiday, f.PTO, f.Meetings, f.Focus, f.Buffer, f.MaxUtilization)))

		for _, it := range caps.Iterations() {
			fmt.Printf("%s\n", yellow(fmt.Sprintf("Iteration %d  %s to %s (%d days)",
				it.Number, it.Start.Format("Jan 2"), it.End.Format("Jan 2"), it.Days)))
			fmt.Printf("  %-14s %8s %7s %10s %11s\n", "Team", "Velocity", "Factor", "Available", "Confidence")
			for _, tc := range caps.ForIteration(it.Number) {
				fmt.Printf("  %-14s %8.1f %7.2f %10.1f %11.2f\n",
					tc.TeamID, tc.Velocity, tc.Factor, tc.Available, tc.Confidence)
			}
			fmt.Println()
		}

		fmt.Printf("  Total available: %.1f points\n\n", caps.TotalAvailable())
	},
}

func init() {
	rootCmd.AddCommand(capacityCmd)
}
