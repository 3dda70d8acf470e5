package readiness

import (
	"context"
	"testing"

	"github.com/railyardhq/railyard/internal/types"
)

func TestValueAssessor_EveryIterationDelivers(t *testing.T) {
	assessor := NewValueAssessor(nil)
	iterations := horizon(2)
	snapshot := &Snapshot{
		Iterations: iterations,
		Allocated: []types.AllocatedWorkItem{
			placed(story("s1", 3, "Session token store", "WHEN a token expires THEN the session ends"), "alpha", 1),
			// No acceptance criteria; the keyword classifier carries it.
			placed(story("s2", 2, "Checkout receipt flow", ""), "alpha", 2),
		},
	}

	got := assessor.Assess(context.Background(), snapshot)

	if !closeTo(got.Score, 1.0) {
		t.Errorf("expected score 1.0, got %.4f", got.Score)
	}
	if !got.Ready {
		t.Error("expected every-iteration delivery to be ready")
	}
	if len(got.Issues) != 0 {
		t.Errorf("expected no issues, got %d", len(got.Issues))
	}
}

func TestValueAssessor_LoadedIterationWithoutValue(t *testing.T) {
	assessor := NewValueAssessor(nil)
	iterations := horizon(2)
	snapshot := &Snapshot{
		Iterations: iterations,
		Allocated: []types.AllocatedWorkItem{
			placed(story("s1", 3, "Login page polish", "WHEN the page loads THEN the form is focused"), "alpha", 1),
			placed(types.WorkItem{ID: "e1", Type: types.TypeEnabler, Title: "Schema migration", Points: 3}, "alpha", 2),
		},
	}

	got := assessor.Assess(context.Background(), snapshot)

	// One valuable iteration of two, one risky: 1/2 - 0.2*(1/2).
	if !closeTo(got.Score, 0.4) {
		t.Errorf("expected score 0.4, got %.4f", got.Score)
	}
	if got.Ready {
		t.Error("expected a valueless iteration to defeat readiness")
	}
	if len(got.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(got.Issues))
	}
	if got.Issues[0].Code != "no_user_value" {
		t.Errorf("expected no_user_value, got %s", got.Issues[0].Code)
	}
	if got.Issues[0].Severity != SeverityWarning {
		t.Errorf("expected warning severity, got %s", got.Issues[0].Severity)
	}
}

func TestValueAssessor_EmptyIterationIsInfoOnly(t *testing.T) {
	assessor := NewValueAssessor(nil)
	iterations := horizon(2)
	snapshot := &Snapshot{
		Iterations: iterations,
		Allocated: []types.AllocatedWorkItem{
			placed(story("s1", 3, "Login page polish", "WHEN the page loads THEN the form is focused"), "alpha", 1),
		},
	}

	got := assessor.Assess(context.Background(), snapshot)

	// The empty iteration costs value fraction but is not risky.
	if !closeTo(got.Score, 0.5) {
		t.Errorf("expected score 0.5, got %.4f", got.Score)
	}
	if len(got.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(got.Issues))
	}
	if got.Issues[0].Code != "empty_iterations" {
		t.Errorf("expected empty_iterations, got %s", got.Issues[0].Code)
	}
	if got.Issues[0].Severity != SeverityInfo {
		t.Errorf("expected info severity, got %s", got.Issues[0].Severity)
	}
}

func TestValueAssessor_NonStoriesCarryNoValue(t *testing.T) {
	assessor := NewValueAssessor(nil)
	iterations := horizon(1)
	snapshot := &Snapshot{
		Iterations: iterations,
		Allocated: []types.AllocatedWorkItem{
			// User-facing words and criteria do not rescue a non-story.
			placed(types.WorkItem{
				ID: "f1", Type: types.TypeFeature, Title: "Customer dashboard",
				Points: 8, AcceptanceCriteria: "WHEN the dashboard loads THEN widgets render",
			}, "alpha", 1),
		},
	}

	got := assessor.Assess(context.Background(), snapshot)

	if !closeTo(got.Score, 0) {
		t.Errorf("expected score 0, got %.4f", got.Score)
	}
	if got.Ready {
		t.Error("expected a horizon with no story value to not be ready")
	}
}

func TestValueAssessor_NoIterations(t *testing.T) {
	assessor := NewValueAssessor(nil)

	got := assessor.Assess(context.Background(), &Snapshot{})

	if !closeTo(got.Score, 1.0) {
		t.Errorf("expected score 1.0 for empty horizon, got %.4f", got.Score)
	}
	if !got.Ready {
		t.Error("expected empty horizon to be trivially ready")
	}
}
