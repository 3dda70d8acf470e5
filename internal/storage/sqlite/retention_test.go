package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/railyardhq/railyard/internal/events"
)

func TestPruneRunsByAgeKeepsLatestPerIncrement(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now().UTC()
	// Two stale runs for PI-2026.1, one stale and one fresh for PI-2026.2.
	fixtures := []struct {
		runID     string
		increment string
		startedAt time.Time
	}{
		{"pi1-old", "PI-2026.1", now.AddDate(0, 0, -100)},
		{"pi1-latest", "PI-2026.1", now.AddDate(0, 0, -90)},
		{"pi2-old", "PI-2026.2", now.AddDate(0, 0, -80)},
		{"pi2-latest", "PI-2026.2", now.AddDate(0, 0, -1)},
	}
	for _, f := range fixtures {
		// A trail on a doomed run proves the delete cascade fires.
		var evts []*events.PlanningEvent
		if f.runID == "pi2-old" {
			evts = sampleEvents(t, f.runID, f.increment, f.startedAt)
		}
		if err := store.SaveRun(ctx, sampleResult(f.runID, f.increment, f.startedAt, false), evts); err != nil {
			t.Fatalf("SaveRun %s failed: %v", f.runID, err)
		}
	}

	// batchSize 1 forces the batching loop through multiple passes.
	deleted, err := store.PruneRunsByAge(ctx, 30, 1)
	if err != nil {
		t.Fatalf("PruneRunsByAge failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 pruned runs, got %d", deleted)
	}

	// pi1-old and pi2-old are past retention with newer siblings; gone.
	for _, runID := range []string{"pi1-old", "pi2-old"} {
		run, err := store.GetRun(ctx, runID)
		if err != nil {
			t.Fatalf("GetRun %s failed: %v", runID, err)
		}
		if run != nil {
			t.Errorf("Expected %s to be pruned", runID)
		}
	}

	// pi1-latest is past retention but is its increment's newest run; kept.
	for _, runID := range []string{"pi1-latest", "pi2-latest"} {
		run, err := store.GetRun(ctx, runID)
		if err != nil {
			t.Fatalf("GetRun %s failed: %v", runID, err)
		}
		if run == nil {
			t.Errorf("Expected %s to survive pruning", runID)
		}
	}

	trail, err := store.GetRunEvents(ctx, "pi2-old")
	if err != nil {
		t.Fatalf("GetRunEvents failed: %v", err)
	}
	if len(trail) != 0 {
		t.Errorf("Expected pruned run's events to cascade away, got %d", len(trail))
	}
}

func TestPruneRunsByAgeValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.PruneRunsByAge(ctx, -1, 100); err == nil {
		t.Error("Expected error for negative retention days")
	}
	if _, err := store.PruneRunsByAge(ctx, 30, 0); err == nil {
		t.Error("Expected error for zero batch size")
	}
}

func TestPruneRunsByIncrementLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, runID := range []string{"run-1", "run-2", "run-3", "run-4"} {
		result := sampleResult(runID, "PI-2026.2", base.Add(time.Duration(i)*time.Hour), false)
		if err := store.SaveRun(ctx, result, nil); err != nil {
			t.Fatalf("SaveRun %s failed: %v", runID, err)
		}
	}
	if err := store.SaveRun(ctx, sampleResult("other-1", "PI-2026.3", base, false), nil); err != nil {
		t.Fatalf("SaveRun other-1 failed: %v", err)
	}

	// Limit 0 means unlimited.
	deleted, err := store.PruneRunsByIncrementLimit(ctx, 0, 100)
	if err != nil {
		t.Fatalf("PruneRunsByIncrementLimit failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected no-op for limit 0, got %d deletions", deleted)
	}

	deleted, err = store.PruneRunsByIncrementLimit(ctx, 2, 1)
	if err != nil {
		t.Fatalf("PruneRunsByIncrementLimit failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 pruned runs, got %d", deleted)
	}

	summaries, err := store.ListRuns(ctx, RunFilter{Increment: "PI-2026.2"})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 surviving runs, got %d", len(summaries))
	}
	// Newest first; the two oldest were pruned.
	if summaries[0].RunID != "run-4" || summaries[1].RunID != "run-3" {
		t.Errorf("Expected run-4 and run-3 to survive, got %s and %s",
			summaries[0].RunID, summaries[1].RunID)
	}

	// The under-limit increment is untouched.
	others, err := store.ListRuns(ctx, RunFilter{Increment: "PI-2026.3"})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(others) != 1 {
		t.Errorf("Expected PI-2026.3 run to survive, got %d runs", len(others))
	}
}

func TestGetRunCounts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := store.SaveRun(ctx, sampleResult("run-1", "PI-2026.2", base, true),
		sampleEvents(t, "run-1", "PI-2026.2", base)); err != nil {
		t.Fatalf("SaveRun run-1 failed: %v", err)
	}
	if err := store.SaveRun(ctx, sampleResult("run-2", "PI-2026.2", base.Add(time.Hour), true), nil); err != nil {
		t.Fatalf("SaveRun run-2 failed: %v", err)
	}
	if err := store.SaveRun(ctx, sampleResult("run-3", "PI-2026.3", base, false), nil); err != nil {
		t.Fatalf("SaveRun run-3 failed: %v", err)
	}

	counts, err := store.GetRunCounts(ctx)
	if err != nil {
		t.Fatalf("GetRunCounts failed: %v", err)
	}
	if counts.TotalRuns != 3 {
		t.Errorf("Expected 3 runs, got %d", counts.TotalRuns)
	}
	if counts.ReadyRuns != 2 {
		t.Errorf("Expected 2 ready runs, got %d", counts.ReadyRuns)
	}
	if counts.TotalEvents != 2 {
		t.Errorf("Expected 2 events, got %d", counts.TotalEvents)
	}
	if counts.RunsByIncrement["PI-2026.2"] != 2 || counts.RunsByIncrement["PI-2026.3"] != 1 {
		t.Errorf("Unexpected per-increment counts: %v", counts.RunsByIncrement)
	}
	if counts.EventsByType[string(events.EventTypeRunStarted)] != 1 {
		t.Errorf("Expected 1 run_started event, got %d",
			counts.EventsByType[string(events.EventTypeRunStarted)])
	}
	if counts.EventsByType[string(events.EventTypeGraphBuilt)] != 1 {
		t.Errorf("Expected 1 graph_built event, got %d",
			counts.EventsByType[string(events.EventTypeGraphBuilt)])
	}
}

func TestVacuumDatabase(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.VacuumDatabase(ctx); err != nil {
		t.Errorf("VacuumDatabase failed: %v", err)
	}
}
