package main

import (
	"context"
	"testing"

	"github.com/railyardhq/railyard/internal/config"
	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/program"
	"github.com/railyardhq/railyard/internal/storage"
	"github.com/railyardhq/railyard/internal/storage/sqlite"
)

const pruneTestDocument = `name: PI-PRUNE
horizon:
  start: 2026-09-07
  iterations: 2
teams:
  - id: alpha
    velocity: 20
items:
  - id: s1
    title: First story
    points: 3
    acceptance_criteria: Done when shipped.
`

// savePlanRuns plans the document n times and saves every run, giving
// the retention tests a same-increment history with ascending times.
func savePlanRuns(t *testing.T, ctx context.Context, st storage.Storage, n int) {
	t.Helper()

	inc, err := program.Parse([]byte(pruneTestDocument))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	eng, err := engine.New(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}

	for i := 0; i < n; i++ {
		result, err := eng.Run(ctx, inc)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if err := st.SaveRun(ctx, result, nil); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}
}

func TestPruneHistoryEnforcesIncrementLimit(t *testing.T) {
	ctx := context.Background()
	testStore, err := storage.NewStorage(ctx, &storage.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	defer testStore.Close()

	savePlanRuns(t, ctx, testStore, 6)

	ret := config.DefaultRetentionConfig()
	ret.PerIncrementLimit = 5

	pruned := pruneHistory(ctx, testStore, &ret)
	if pruned != 1 {
		t.Errorf("expected 1 run pruned, got %d", pruned)
	}

	summaries, err := testStore.ListRuns(ctx, sqlite.RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(summaries) != 5 {
		t.Errorf("expected 5 runs remaining, got %d", len(summaries))
	}
}

func TestPruneHistoryDisabled(t *testing.T) {
	ctx := context.Background()
	testStore, err := storage.NewStorage(ctx, &storage.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	defer testStore.Close()

	savePlanRuns(t, ctx, testStore, 6)

	ret := config.DefaultRetentionConfig()
	ret.PerIncrementLimit = 5
	ret.PruneEnabled = false

	if pruned := pruneHistory(ctx, testStore, &ret); pruned != 0 {
		t.Errorf("expected no pruning when disabled, got %d", pruned)
	}

	summaries, err := testStore.ListRuns(ctx, sqlite.RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(summaries) != 6 {
		t.Errorf("expected all 6 runs to remain, got %d", len(summaries))
	}
}

func TestPruneHistoryFreshRunsUntouched(t *testing.T) {
	ctx := context.Background()
	testStore, err := storage.NewStorage(ctx, &storage.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	defer testStore.Close()

	savePlanRuns(t, ctx, testStore, 3)

	// Fresh runs are well inside the retention window and below the
	// per-increment limit.
	ret := config.DefaultRetentionConfig()

	if pruned := pruneHistory(ctx, testStore, &ret); pruned != 0 {
		t.Errorf("expected nothing pruned, got %d", pruned)
	}
}
