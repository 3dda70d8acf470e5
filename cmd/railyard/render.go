package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/events"
	"github.com/railyardhq/railyard/internal/readiness"
	"github.com/railyardhq/railyard/internal/types"
)

// formatScore colors a readiness score: green from 0.8, yellow from
// 0.5, red below. Matches the optimizer's default target band.
func formatScore(score float64) string {
	s := fmt.Sprintf("%.2f", score)
	switch {
	case score >= 0.8:
		return color.New(color.FgGreen).Sprint(s)
	case score >= 0.5:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return color.New(color.FgRed).Sprint(s)
	}
}

// formatVerdict renders the commitment verdict for a plan.
func formatVerdict(ready bool) string {
	if ready {
		return color.New(color.FgGreen, color.Bold).Sprint("READY")
	}
	return color.New(color.FgRed, color.Bold).Sprint("NOT READY")
}

// getSeverityColor returns the render color for an event severity.
func getSeverityColor(severity events.EventSeverity) *color.Color {
	switch severity {
	case events.SeverityWarning:
		return color.New(color.FgYellow)
	case events.SeverityError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

// renderPlanResult prints the colored summary of a planning run.
func renderPlanResult(res *engine.PlanResult, verbose bool) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Railyard Plan: %s ===", res.Increment)))

	for _, w := range res.Warnings {
		fmt.Printf("%s %s\n", yellow("⚠"), w)
	}
	if len(res.Warnings) > 0 {
		fmt.Println()
	}

	// Graph and Capacities are in-memory only; a run loaded from the
	// database carries just the serialized findings.
	if res.Graph != nil || len(res.Cycles) > 0 || len(res.CriticalPath) > 0 {
		fmt.Printf("%s\n", yellow("Dependency graph:"))
		if res.Graph != nil {
			fmt.Printf("  Items: %d   Edges: %d", res.Graph.Size(), len(res.Graph.Edges()))
			if n := res.Graph.DroppedEdgeCount(); n > 0 {
				fmt.Printf("   (%d dropped)", n)
			}
			fmt.Println()
		}
		if len(res.Cycles) > 0 {
			fmt.Printf("  %s\n", red(fmt.Sprintf("Cycles: %d", len(res.Cycles))))
			if verbose {
				for _, c := range res.Cycles {
					fmt.Printf("    %s: %s\n", c.Severity, strings.Join(c.Items, " -> "))
				}
			}
		}
		if len(res.CriticalPath) > 0 {
			fmt.Printf("  Critical path: %d items", len(res.CriticalPath))
			if verbose {
				fmt.Printf(" (%s)", strings.Join(res.CriticalPath, " -> "))
			}
			fmt.Println()
		}
		fmt.Println()
	}

	overAllocated := 0
	for _, u := range res.Utilization {
		if u.OverAllocated {
			overAllocated++
		}
	}
	if res.Capacities != nil || overAllocated > 0 {
		fmt.Printf("%s\n", yellow("Capacity:"))
		if res.Capacities != nil {
			fmt.Printf("  %d teams x %d iterations, %.1f points available\n",
				len(res.Capacities.Teams()), len(res.Capacities.Iterations()), res.Capacities.TotalAvailable())
		}
		for _, u := range res.Utilization {
			if u.OverAllocated {
				fmt.Printf("  %s %s iteration %d at %.0f%% (%.1f / %.1f)\n",
					red("⊗"), u.TeamID, u.Iteration, u.Ratio*100, u.Allocated, u.Available)
			}
		}
		fmt.Println()
	}

	if res.Allocation != nil {
		st := res.Allocation.Stats
		fmt.Printf("%s\n", yellow("Allocation:"))
		fmt.Printf("  Placed %d of %d items (%.0f%%), %d points in %d passes\n",
			st.Allocated, st.TotalItems, st.SuccessRate*100, st.PointsAllocated, st.Passes)
		for _, un := range res.Allocation.Unallocated {
			fmt.Printf("  %s %s: %s\n", red("⊗"), un.Item.ID, un.Reason)
			if verbose {
				if len(un.Blockers) > 0 {
					fmt.Printf("      %s\n", gray(fmt.Sprintf("blocked by %s", strings.Join(un.Blockers, ", "))))
				}
				for _, remedy := range un.Remedies {
					fmt.Printf("      %s\n", gray("→ "+remedy))
				}
			}
		}
		if verbose && len(res.Allocation.Allocated) > 0 {
			fmt.Println()
			renderAllocationTable(res.Allocation.Allocated)
		}
		fmt.Println()
	}

	renderReadiness(res.FinalAssessment(), verbose)

	if res.Optimization != nil {
		fmt.Printf("%s\n", yellow("Optimization:"))
		fmt.Printf("  Score %.2f -> %.2f (%+.3f), risk reduction: %s\n",
			res.Optimization.ScoreBefore, res.Optimization.ScoreAfter,
			res.Optimization.ScoreDelta, res.Optimization.RiskReduction)
		if len(res.Optimization.Changes) == 0 {
			fmt.Printf("  %s\n", gray("No changes: the plan already met the target"))
		}
		for _, ch := range res.Optimization.Changes {
			fmt.Printf("  %s %s\n", gray("→"), ch.Description)
		}
		fmt.Println()
	}

	fmt.Printf("%s\n\n", gray(fmt.Sprintf("Run %s finished in %s", res.RunID, res.Elapsed.Round(time.Millisecond))))
}

// renderReadiness prints per-category assessments and the overall
// verdict. Verbose adds each category's issues and recommendations;
// blocking issues always print.
func renderReadiness(res *readiness.Result, verbose bool) {
	if res == nil {
		return
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("%s\n", yellow("Readiness:"))
	for _, a := range res.Assessments {
		icon := green("✓")
		if !a.Ready {
			icon = red("⊗")
		}
		fmt.Printf("  %s %-22s %s\n", icon, a.Category, formatScore(a.Score))
		if verbose {
			for _, issue := range a.Issues {
				c := red
				if issue.Severity != readiness.SeverityBlocker {
					c = yellow
				}
				fmt.Printf("      %s %s\n", c("!"), issue.Message)
				if len(issue.ItemIDs) > 0 {
					fmt.Printf("        %s\n", gray(strings.Join(issue.ItemIDs, ", ")))
				}
			}
			for _, rec := range a.Recommendations {
				fmt.Printf("      %s\n", gray("→ "+rec))
			}
		}
	}
	if !verbose && len(res.BlockingIssues) > 0 {
		for _, issue := range res.BlockingIssues {
			fmt.Printf("  %s %s\n", red("⊗"), issue.Message)
		}
	}
	fmt.Printf("\n  Overall: %s  %s\n\n", formatScore(res.Overall), formatVerdict(res.Ready))
}

// renderAllocationTable prints every placement sorted by iteration then
// item id, the allocator's own tie-break order.
func renderAllocationTable(allocated []types.AllocatedWorkItem) {
	gray := color.New(color.FgHiBlack).SprintFunc()

	rows := make([]types.AllocatedWorkItem, len(allocated))
	copy(rows, allocated)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Iteration != rows[j].Iteration {
			return rows[i].Iteration < rows[j].Iteration
		}
		return rows[i].Item.ID < rows[j].Item.ID
	})

	fmt.Printf("  %-4s %-14s %-14s %4s  %s\n", "It", "Team", "Item", "Pts", "Title")
	for _, a := range rows {
		fmt.Printf("  %-4d %-14s %-14s %4d  %s\n",
			a.Iteration, a.TeamID, a.Item.ID, a.Points, gray(truncateString(a.Item.Title, 44)))
	}
}

// displayPlanningEvent prints one event as a two-line entry: the
// timestamped message, then a gray metadata line when the event carries
// structured data.
func displayPlanningEvent(event *events.PlanningEvent) {
	gray := color.New(color.FgHiBlack).SprintFunc()
	magenta := color.New(color.FgMagenta).SprintFunc()
	severityColor := getSeverityColor(event.Severity)

	fmt.Printf("  [%s] %s %s\n",
		event.Timestamp.Format("15:04:05.000"),
		magenta(event.Type),
		severityColor.Sprint(event.Message))

	if detail := extractEventDetail(event); detail != "" {
		fmt.Printf("    %s\n", gray(detail))
	}
}

// extractEventDetail pulls the key fields out of an event's structured
// data, pipe-separated for a one-line summary.
func extractEventDetail(event *events.PlanningEvent) string {
	var fields []string

	switch event.Type {
	case events.EventTypeGraphBuilt:
		fields = []string{
			fmt.Sprintf("%d items", getIntField(event.Data, "items", 0)),
			fmt.Sprintf("%d edges", getIntField(event.Data, "edges", 0)),
		}
		if dropped := getIntField(event.Data, "dropped_edges", 0); dropped > 0 {
			fields = append(fields, fmt.Sprintf("%d dropped", dropped))
		}

	case events.EventTypeCyclesDetected:
		fields = []string{
			fmt.Sprintf("%d cycles", getIntField(event.Data, "cycles", 0)),
			fmt.Sprintf("%d critical", getIntField(event.Data, "critical_cycles", 0)),
		}

	case events.EventTypeCapacityComputed:
		fields = []string{
			fmt.Sprintf("%d teams", getIntField(event.Data, "teams", 0)),
			fmt.Sprintf("%d iterations", getIntField(event.Data, "iterations", 0)),
			fmt.Sprintf("%.1f pts", getFloatField(event.Data, "total_available", 0)),
		}

	case events.EventTypeAllocationCompleted:
		fields = []string{
			fmt.Sprintf("%d placed", getIntField(event.Data, "allocated", 0)),
			fmt.Sprintf("%d unplaced", getIntField(event.Data, "unallocated", 0)),
			fmt.Sprintf("%d passes", getIntField(event.Data, "passes", 0)),
			fmt.Sprintf("%.0f%%", getFloatField(event.Data, "success_rate", 0)*100),
		}

	case events.EventTypeReadinessAssessed:
		fields = []string{
			fmt.Sprintf("overall %.2f", getFloatField(event.Data, "overall", 0)),
			fmt.Sprintf("%d blockers", getIntField(event.Data, "blockers", 0)),
		}

	case events.EventTypeOptimizationApplied:
		fields = []string{
			fmt.Sprintf("%.2f -> %.2f",
				getFloatField(event.Data, "score_before", 0),
				getFloatField(event.Data, "score_after", 0)),
			fmt.Sprintf("%d changes", getIntField(event.Data, "changes", 0)),
			fmt.Sprintf("risk %s", getStringField(event.Data, "risk_reduction", "none")),
		}

	case events.EventTypeRunCompleted:
		verdict := "not ready"
		if getBoolField(event.Data, "ready", false) {
			verdict = "ready"
		}
		fields = []string{
			formatDurationMs(getIntField(event.Data, "duration_ms", 0)),
			verdict,
			fmt.Sprintf("overall %.2f", getFloatField(event.Data, "overall", 0)),
		}
	}

	return joinFields(fields)
}

func getStringField(data map[string]interface{}, key, defaultValue string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return defaultValue
}

func getIntField(data map[string]interface{}, key string, defaultValue int) int {
	if val, ok := data[key].(int); ok {
		return val
	}
	if val, ok := data[key].(float64); ok {
		return int(val)
	}
	return defaultValue
}

func getFloatField(data map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := data[key].(float64); ok {
		return val
	}
	if val, ok := data[key].(int); ok {
		return float64(val)
	}
	return defaultValue
}

func getBoolField(data map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := data[key].(bool); ok {
		return val
	}
	return defaultValue
}

// formatDurationMs formats milliseconds into a human-readable duration
func formatDurationMs(ms int) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%.1fm", float64(ms)/60000)
}

// truncateString shortens s to maxLen runes, ellipsized.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// joinFields joins metadata fields with " | ", skipping empties.
func joinFields(fields []string) string {
	nonEmpty := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " | ")
}
