package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/railyardhq/railyard/internal/storage/sqlite"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and maintain saved planning runs",
	Long:  `Commands for listing, inspecting, and pruning the planning history.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved planning runs, newest first",
	Long: `List saved planning runs, newest first.

Example:
  railyard runs list
  railyard runs list --increment PI-2026.2
  railyard runs list --ready --days 30`,
	Run: func(cmd *cobra.Command, args []string) {
		increment, _ := cmd.Flags().GetString("increment")
		readyOnly, _ := cmd.Flags().GetBool("ready")
		days, _ := cmd.Flags().GetInt("days")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := context.Background()
		st := ensureStore(ctx, loadProjectConfig())

		filter := sqlite.RunFilter{
			Increment: increment,
			ReadyOnly: readyOnly,
			Limit:     limit,
		}
		if days > 0 {
			filter.Since = time.Now().AddDate(0, 0, -days)
		}

		summaries, err := st.ListRuns(ctx, filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list runs: %v\n", err)
			os.Exit(1)
		}

		if len(summaries) == 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray("No saved runs. Use 'railyard plan <document> --save'."))
			return
		}

		fmt.Println()
		for _, s := range summaries {
			fmt.Printf("  %s  %-16s %s %s  %d/%d placed  %s\n",
				s.StartedAt.Format("2006-01-02 15:04"),
				s.Increment,
				formatVerdict(s.Ready),
				formatScore(s.Overall),
				s.Allocated, s.Allocated+s.Unallocated,
				color.New(color.FgHiBlack).Sprint(s.RunID))
		}
		fmt.Println()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a saved planning run",
	Long: `Show the stored result of one planning run. --events appends the
run's planning event trail.

Example:
  railyard runs show 6da2ab09-3f5e-4a2f-9f5d-04a1f9e6b7aa
  railyard runs show 6da2ab09-3f5e-4a2f-9f5d-04a1f9e6b7aa --events`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showEvents, _ := cmd.Flags().GetBool("events")
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx := context.Background()
		st := ensureStore(ctx, loadProjectConfig())

		result, err := st.GetRun(ctx, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if result == nil {
			fmt.Fprintf(os.Stderr, "Error: run not found: %s\n", args[0])
			os.Exit(1)
		}

		renderPlanResult(result, verbose)

		if showEvents {
			evts, err := st.GetRunEvents(ctx, args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to load events: %v\n", err)
				os.Exit(1)
			}
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("%s\n", yellow("Events:"))
			for _, evt := range evts {
				displayPlanningEvent(evt)
			}
			fmt.Println()
		}
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a saved run and its events",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		st := ensureStore(ctx, loadProjectConfig())

		if err := st.DeleteRun(ctx, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Deleted run %s\n", green("✓"), args[0])
	},
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune old runs according to the retention policy",
	Long: `Delete old planning runs according to the retention policy.

Two strategies run in sequence:
  1. Age-based: delete runs older than the retention period, always
     keeping each increment's most recent run (the plan of record)
  2. Per-increment: cap how many runs each increment keeps

Defaults come from .railyard/config.yaml and RAILYARD_* variables;
flags override both.

Example:
  railyard runs prune                 # Policy from config
  railyard runs prune --days 30
  railyard runs prune --keep 10 --vacuum`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg := loadProjectConfig()
		ret := cfg.Retention
		if cmd.Flags().Changed("days") {
			ret.RetentionDays, _ = cmd.Flags().GetInt("days")
		}
		if cmd.Flags().Changed("keep") {
			ret.PerIncrementLimit, _ = cmd.Flags().GetInt("keep")
		}
		if cmd.Flags().Changed("batch-size") {
			ret.PruneBatchSize, _ = cmd.Flags().GetInt("batch-size")
		}
		vacuum, _ := cmd.Flags().GetBool("vacuum")

		if err := ret.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		st := ensureStore(ctx, cfg)

		fmt.Printf("Run Retention Policy:\n")
		fmt.Printf("  Retention: %d days (keeping each increment's latest run)\n", ret.RetentionDays)
		if ret.PerIncrementLimit > 0 {
			fmt.Printf("  Per-increment limit: %d runs\n", ret.PerIncrementLimit)
		} else {
			fmt.Printf("  Per-increment limit: unlimited\n")
		}
		fmt.Printf("  Batch size: %d runs/txn\n", ret.PruneBatchSize)
		fmt.Println()

		before, err := st.GetRunCounts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get run counts: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Current state: %s runs, %s events\n\n",
			formatNumber(before.TotalRuns), formatNumber(before.TotalEvents))

		startTime := time.Now()
		totalDeleted := 0

		fmt.Printf("Running age-based prune (>%d days)...\n", ret.RetentionDays)
		ageDeleted, err := st.PruneRunsByAge(ctx, ret.RetentionDays, ret.PruneBatchSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: age-based prune failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  Deleted %s runs\n", formatNumber(ageDeleted))
		totalDeleted += ageDeleted

		if ret.PerIncrementLimit > 0 {
			fmt.Printf("\nRunning per-increment prune (limit: %d runs)...\n", ret.PerIncrementLimit)
			limitDeleted, err := st.PruneRunsByIncrementLimit(ctx, ret.PerIncrementLimit, ret.PruneBatchSize)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: per-increment prune failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("  Deleted %s runs\n", formatNumber(limitDeleted))
			totalDeleted += limitDeleted
		} else {
			fmt.Printf("\nSkipping per-increment prune (unlimited)\n")
		}

		after, err := st.GetRunCounts(ctx)

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("\n%s Prune complete\n", green("✓"))
		fmt.Printf("  Runs deleted: %s\n", formatNumber(totalDeleted))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to get final run counts: %v\n", err)
		} else {
			fmt.Printf("  Runs remaining: %s\n", formatNumber(after.TotalRuns))
		}
		fmt.Printf("  Time taken: %s\n", time.Since(startTime).Round(time.Millisecond))

		if vacuum {
			fmt.Printf("\nRunning VACUUM to reclaim disk space...\n")
			if err := st.VacuumDatabase(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: VACUUM failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s VACUUM complete\n", green("✓"))
		}
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show planning-history statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		st := ensureStore(ctx, loadProjectConfig())

		counts, err := st.GetRunCounts(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Planning History ==="))
		fmt.Printf("  Total runs:   %s\n", formatNumber(counts.TotalRuns))
		fmt.Printf("  Ready runs:   %s\n", formatNumber(counts.ReadyRuns))
		fmt.Printf("  Total events: %s\n", formatNumber(counts.TotalEvents))
		fmt.Println()

		if len(counts.RunsByIncrement) > 0 {
			fmt.Printf("%s\n", yellow("Runs by increment:"))
			for _, name := range sortedKeys(counts.RunsByIncrement) {
				fmt.Printf("  %-24s %s\n", name, formatNumber(counts.RunsByIncrement[name]))
			}
			fmt.Println()
		}

		if len(counts.EventsByType) > 0 {
			fmt.Printf("%s\n", yellow("Events by type:"))
			for _, name := range sortedKeys(counts.EventsByType) {
				fmt.Printf("  %-24s %s\n", name, formatNumber(counts.EventsByType[name]))
			}
			fmt.Println()
		}
	},
}

// sortedKeys returns a count map's keys in lexical order for stable
// rendering.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatNumber formats a count with thousand separators.
func formatNumber(n int) string {
	if n < 0 {
		return fmt.Sprintf("-%s", formatNumber(-n))
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}

func init() {
	runsListCmd.Flags().String("increment", "", "Only runs for this increment")
	runsListCmd.Flags().Bool("ready", false, "Only runs whose plan was ready")
	runsListCmd.Flags().Int("days", 0, "Only runs from the last N days")
	runsListCmd.Flags().Int("limit", 20, "Maximum number of runs to list")

	runsShowCmd.Flags().Bool("events", false, "Also print the run's event trail")
	runsShowCmd.Flags().Bool("verbose", false, "Show placements and issue detail")

	runsPruneCmd.Flags().Int("days", 0, "Delete runs older than N days (default from config)")
	runsPruneCmd.Flags().Int("keep", 0, "Keep at most N runs per increment (default from config)")
	runsPruneCmd.Flags().Int("batch-size", 0, "Runs deleted per transaction (default from config)")
	runsPruneCmd.Flags().Bool("vacuum", false, "Run VACUUM after pruning to reclaim disk space")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	runsCmd.AddCommand(runsPruneCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}
