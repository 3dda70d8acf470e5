package storage

import (
	"context"
	"testing"
	"time"

	"github.com/railyardhq/railyard/internal/capacity"
	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/events"
	"github.com/railyardhq/railyard/internal/program"
	"github.com/railyardhq/railyard/internal/storage/sqlite"
	"github.com/railyardhq/railyard/internal/types"
)

// TestEngineRunRoundTrip plans a small increment with the real engine,
// saves the result and its event trail through the Storage interface,
// and reads both back.
func TestEngineRunRoundTrip(t *testing.T) {
	ctx := context.Background()

	store, err := NewStorage(ctx, &Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	sink := events.NewCollectorSink()
	cfg := engine.DefaultConfig()
	cfg.Sink = sink
	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	factors := capacity.DefaultFactors()
	inc := &program.Increment{
		Name: "PI-2026.2",
		Teams: []types.Team{
			{ID: "alpha", Name: "alpha", AverageVelocity: 20, CapacityFactor: 1, Members: 6},
		},
		Items: []types.WorkItem{
			{ID: "ry-1", Type: types.TypeStory, Title: "Login page polish", Points: 3, AcceptanceCriteria: "Renders on mobile"},
			{ID: "ry-2", Type: types.TypeStory, Title: "Checkout receipt email", Points: 3, AcceptanceCriteria: "Receipt within a minute"},
		},
		Edges: []types.DependencyEdge{
			{SourceID: "ry-2", TargetID: "ry-1", Kind: types.DepRequires, Strength: types.StrengthHard, Confidence: 0.9},
		},
		Iterations: []types.Iteration{
			{ID: "it-1", Number: 1, Start: start, End: start.AddDate(0, 0, 14), Days: 14},
			{ID: "it-2", Number: 2, Start: start.AddDate(0, 0, 14), End: start.AddDate(0, 0, 28), Days: 14},
		},
		Factors: factors,
	}

	result, err := eng.Run(ctx, inc)
	if err != nil {
		t.Fatalf("engine run failed: %v", err)
	}

	if err := store.SaveRun(ctx, result, sink.Events()); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := store.GetRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected stored run, got nil")
	}
	if loaded.Increment != "PI-2026.2" {
		t.Errorf("Expected increment PI-2026.2, got %s", loaded.Increment)
	}
	if loaded.Ready() != result.Ready() {
		t.Errorf("Ready flag changed in storage: stored %t, loaded %t", result.Ready(), loaded.Ready())
	}
	if len(loaded.FinalAllocation()) != len(result.FinalAllocation()) {
		t.Errorf("Allocation size changed in storage: stored %d, loaded %d",
			len(result.FinalAllocation()), len(loaded.FinalAllocation()))
	}

	trail, err := store.GetRunEvents(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetRunEvents failed: %v", err)
	}
	emitted := sink.Events()
	if len(trail) != len(emitted) {
		t.Fatalf("Expected %d stored events, got %d", len(emitted), len(trail))
	}
	if trail[0].Type != events.EventTypeRunStarted {
		t.Errorf("Expected trail to open with run_started, got %s", trail[0].Type)
	}
	if trail[len(trail)-1].Type != events.EventTypeRunCompleted {
		t.Errorf("Expected trail to close with run_completed, got %s", trail[len(trail)-1].Type)
	}

	summaries, err := store.ListRuns(ctx, sqlite.RunFilter{Increment: "PI-2026.2"})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 run summary, got %d", len(summaries))
	}
	if summaries[0].RunID != result.RunID {
		t.Errorf("Expected summary for %s, got %s", result.RunID, summaries[0].RunID)
	}
	if summaries[0].Allocated != 2 {
		t.Errorf("Expected 2 allocated items in summary, got %d", summaries[0].Allocated)
	}
}
