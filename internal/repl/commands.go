package repl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/events"
	"github.com/railyardhq/railyard/internal/program"
	"github.com/railyardhq/railyard/internal/readiness"
	"github.com/railyardhq/railyard/internal/storage/sqlite"
	"github.com/railyardhq/railyard/internal/types"
)

func (r *REPL) requireDocument() error {
	if r.inc == nil {
		return fmt.Errorf("no document loaded (use 'load <file>')")
	}
	return nil
}

func (r *REPL) requireResult() error {
	if r.result == nil {
		return fmt.Errorf("no planning run yet (use 'run')")
	}
	return nil
}

// scoreString colors a 0..1 score by how comfortable it is.
func scoreString(score float64) string {
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

// cmdLoad loads a program increment document
func (r *REPL) cmdLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <file>")
	}

	inc, err := program.Load(args[0])
	if err != nil {
		return err
	}

	r.docPath = args[0]
	r.inc = inc
	r.result = nil
	r.trail = nil
	r.saved = false

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Loaded %s: %d items, %d dependencies, %d teams, %d iterations\n",
		green("✓"), inc.Name, len(inc.Items), len(inc.Edges), len(inc.Teams), len(inc.Iterations))
	return nil
}

// cmdRun runs the planning pipeline on the loaded document
func (r *REPL) cmdRun(args []string) error {
	if err := r.requireDocument(); err != nil {
		return err
	}

	cfg := r.engineCfg
	sink := events.NewCollectorSink()
	cfg.Sink = sink

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	result, err := eng.Run(r.ctx, r.inc)
	if err != nil {
		return err
	}

	r.result = result
	r.trail = sink.Events()
	r.saved = false

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Printf("\n%s\n", cyan("Planning Run "+result.RunID))
	fmt.Println()
	final := result.FinalAssessment()
	verdict := red("NOT READY")
	if result.Ready() {
		verdict = green("READY")
	}
	fmt.Printf("  Readiness     %s  (overall %s)\n", verdict, scoreString(final.Overall))
	if stats := result.Allocation.Stats; stats.TotalItems > 0 {
		fmt.Printf("  Allocation    %d of %d items placed (%.0f%%)\n",
			stats.Allocated, stats.TotalItems, stats.SuccessRate*100)
	}
	if len(result.Cycles) > 0 {
		fmt.Printf("  Cycles        %s\n", red(fmt.Sprintf("%d detected", len(result.Cycles))))
	}
	fmt.Printf("  Elapsed       %s\n", result.Elapsed.Round(time.Millisecond))
	fmt.Println()
	fmt.Println("Use 'assess', 'alloc', 'capacity', or 'graph' to explore; 'save' to persist")
	fmt.Println()
	return nil
}

// cmdGraph shows the dependency graph summary
func (r *REPL) cmdGraph(args []string) error {
	if err := r.requireResult(); err != nil {
		return err
	}
	g := r.result.Graph

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Dependency Graph"))
	fmt.Println()
	fmt.Printf("  Items          %d\n", g.Size())
	fmt.Printf("  Edges          %d (%d dropped at intake)\n", len(g.Edges()), g.DroppedEdgeCount())
	fmt.Printf("  Cycles         %d\n", len(g.Cycles()))
	fmt.Printf("  Critical path  %d items\n", len(g.CriticalPath()))
	if warnings := g.Warnings(); len(warnings) > 0 {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Println()
		for _, w := range warnings {
			fmt.Printf("  %s %s\n", yellow("!"), w)
		}
	}
	fmt.Println()
	return nil
}

// cmdCycles lists dependency cycles
func (r *REPL) cmdCycles(args []string) error {
	if err := r.requireResult(); err != nil {
		return err
	}

	cycles := r.result.Cycles
	if len(cycles) == 0 {
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s No dependency cycles\n", green("✓"))
		return nil
	}

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	for i, cycle := range cycles {
		label := yellow(string(cycle.Severity))
		if cycle.Severity == types.CycleCritical {
			label = red(string(cycle.Severity))
		}
		fmt.Printf("\n  Cycle %d (%s): %s\n", i+1, label, strings.Join(cycle.Items, " -> "))
		for _, s := range cycle.Suggestions {
			fmt.Printf("    break: %s\n", s)
		}
	}
	fmt.Println()
	return nil
}

// cmdCritical shows the critical path with item titles
func (r *REPL) cmdCritical(args []string) error {
	if err := r.requireResult(); err != nil {
		return err
	}

	path := r.result.CriticalPath
	if len(path) == 0 {
		fmt.Println("No critical path (no hard ordering chain)")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s (%d items)\n", cyan("Critical Path"), len(path))
	fmt.Println()
	for i, id := range path {
		title := ""
		if item, ok := r.result.Graph.Item(id); ok {
			title = item.Title
		}
		fmt.Printf("  %d. %-12s %s\n", i+1, id, title)
	}
	fmt.Println()
	return nil
}

// cmdCapacity shows per-team capacity and utilization
func (r *REPL) cmdCapacity(args []string) error {
	if err := r.requireResult(); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Capacity and Utilization"))
	fmt.Println()
	fmt.Printf("  %-4s %-12s %10s %11s %7s\n", "It", "Team", "Allocated", "Available", "Used")
	for _, u := range r.result.Utilization {
		used := fmt.Sprintf("%.0f%%", u.Ratio*100)
		if u.OverAllocated {
			used = red(used + " over")
		}
		fmt.Printf("  %-4d %-12s %10.1f %11.1f %7s\n",
			u.Iteration, u.TeamID, u.Allocated, u.Available, used)
	}
	fmt.Println()
	return nil
}

// cmdAlloc lists allocated items, optionally for one iteration
func (r *REPL) cmdAlloc(args []string) error {
	if err := r.requireResult(); err != nil {
		return err
	}

	filter := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("usage: alloc [iteration-number]")
		}
		filter = n
	}

	allocated := append([]types.AllocatedWorkItem(nil), r.result.FinalAllocation()...)
	sort.Slice(allocated, func(i, j int) bool {
		if allocated[i].Iteration != allocated[j].Iteration {
			return allocated[i].Iteration < allocated[j].Iteration
		}
		return allocated[i].Item.ID < allocated[j].Item.ID
	})

	shown := 0
	fmt.Println()
	for _, a := range allocated {
		if filter > 0 && a.Iteration != filter {
			continue
		}
		fmt.Printf("  it-%d  %-12s %-12s %2d pts  %s\n",
			a.Iteration, a.TeamID, a.Item.ID, a.Points, a.Item.Title)
		shown++
	}
	if shown == 0 {
		fmt.Println("  (nothing allocated)")
	}
	fmt.Println()
	return nil
}

// cmdUnalloc lists items the allocator could not place
func (r *REPL) cmdUnalloc(args []string) error {
	if err := r.requireResult(); err != nil {
		return err
	}

	unallocated := r.result.Allocation.Unallocated
	if len(unallocated) == 0 {
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Everything placed\n", green("✓"))
		return nil
	}

	red := color.New(color.FgRed).SprintFunc()
	fmt.Println()
	for _, u := range unallocated {
		fmt.Printf("  %s %-12s %s\n", red("⊗"), u.Item.ID, u.Item.Title)
		fmt.Printf("    reason: %s\n", u.Reason)
		if len(u.Blockers) > 0 {
			fmt.Printf("    blocked by: %s\n", strings.Join(u.Blockers, ", "))
		}
		for _, remedy := range u.Remedies {
			fmt.Printf("    remedy: %s\n", remedy)
		}
	}
	fmt.Println()
	return nil
}

// cmdAssess shows the readiness assessment
func (r *REPL) cmdAssess(args []string) error {
	if err := r.requireResult(); err != nil {
		return err
	}

	final := r.result.FinalAssessment()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Printf("\n%s\n", cyan("Readiness Assessment"))
	fmt.Println()
	for _, a := range final.Assessments {
		mark := green("✓")
		if !a.Ready {
			mark = red("⊗")
		}
		fmt.Printf("  %s %-24s %s\n", mark, string(a.Category), scoreString(a.Score))
		for _, issue := range a.Issues {
			if issue.Severity == readiness.SeverityBlocker {
				fmt.Printf("      %s %s\n", red("blocker:"), issue.Message)
			}
		}
	}
	fmt.Println()
	fmt.Printf("  Overall %s", scoreString(final.Overall))
	if final.Ready {
		fmt.Printf("  %s\n", green("READY"))
	} else {
		fmt.Printf("  %s\n", red("NOT READY"))
	}
	fmt.Println()
	return nil
}

// cmdOptimize shows what the optimization pass changed
func (r *REPL) cmdOptimize(args []string) error {
	if err := r.requireResult(); err != nil {
		return err
	}

	opt := r.result.Optimization
	if opt == nil {
		fmt.Println("Optimization was disabled for this run")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Optimization"))
	fmt.Println()
	fmt.Printf("  Score   %s -> %s (%+.3f)\n",
		scoreString(opt.ScoreBefore), scoreString(opt.ScoreAfter), opt.ScoreDelta)
	fmt.Printf("  Risk    %s reduction\n", opt.RiskReduction)
	if len(opt.Changes) == 0 {
		fmt.Println("  No changes: the plan already met the target")
	}
	for _, ch := range opt.Changes {
		fmt.Printf("  - %s\n", ch.Description)
	}
	fmt.Println()
	return nil
}

// cmdRuns lists recent saved runs
func (r *REPL) cmdRuns(args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("usage: runs [count]")
		}
		limit = n
	}

	summaries, err := r.store.ListRuns(r.ctx, sqlite.RunFilter{Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No saved runs yet (use 'save' after a run)")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	fmt.Println()
	for _, s := range summaries {
		verdict := red("not ready")
		if s.Ready {
			verdict = green("ready")
		}
		fmt.Printf("  %s  %-12s %s  score %s  %d/%d placed  %s\n",
			s.StartedAt.Format("2006-01-02 15:04"), s.Increment, verdict,
			scoreString(s.Overall), s.Allocated, s.Allocated+s.Unallocated, s.RunID)
	}
	fmt.Println()
	return nil
}

// cmdSave persists the last run and its event trail
func (r *REPL) cmdSave(args []string) error {
	if err := r.requireResult(); err != nil {
		return err
	}
	if r.saved {
		fmt.Println("Already saved")
		return nil
	}

	if err := r.store.SaveRun(r.ctx, r.result, r.trail); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	r.saved = true

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Saved run %s (%d events)\n", green("✓"), r.result.RunID, len(r.trail))
	return nil
}
