package readiness

import (
	"context"
	"testing"

	"github.com/railyardhq/railyard/internal/types"
)

func TestStoryAssessor_WellFormed(t *testing.T) {
	assessor := NewStoryAssessor()
	snapshot := &Snapshot{Items: []types.WorkItem{
		story("s1", 3, "Login page polish", "WHEN the page loads THEN the form is focused"),
		story("s2", 2, "Checkout receipt email", "WHEN checkout completes THEN a receipt is sent"),
	}}

	got := assessor.Assess(context.Background(), snapshot)

	if !closeTo(got.Score, 1.0) {
		t.Errorf("expected score 1.0, got %.4f", got.Score)
	}
	if !got.Ready {
		t.Error("expected well-formed stories to be ready")
	}
	if len(got.Issues) != 0 {
		t.Errorf("expected no issues, got %d", len(got.Issues))
	}
}

func TestStoryAssessor_Oversized(t *testing.T) {
	assessor := NewStoryAssessor()
	snapshot := &Snapshot{Items: []types.WorkItem{
		story("s1", 8, "Rebuild billing flow", "WHEN invoices render THEN totals match the ledger"),
		story("s2", 3, "Invoice header copy", "WHEN the invoice renders THEN the header shows the legal name"),
	}}

	got := assessor.Assess(context.Background(), snapshot)

	// One of two stories oversized: 1 - 0.5*(1/2).
	if !closeTo(got.Score, 0.75) {
		t.Errorf("expected score 0.75, got %.4f", got.Score)
	}
	if got.Ready {
		t.Error("expected oversized stories to defeat readiness")
	}
	if len(got.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(got.Issues))
	}
	issue := got.Issues[0]
	if issue.Code != "oversized_stories" {
		t.Errorf("expected oversized_stories, got %s", issue.Code)
	}
	if issue.Severity != SeverityWarning {
		t.Errorf("expected warning severity, got %s", issue.Severity)
	}
	if len(issue.ItemIDs) != 1 || issue.ItemIDs[0] != "s1" {
		t.Errorf("expected item s1 flagged, got %v", issue.ItemIDs)
	}
}

func TestStoryAssessor_MissingAcceptanceCriteria(t *testing.T) {
	assessor := NewStoryAssessor()
	snapshot := &Snapshot{Items: []types.WorkItem{
		story("s1", 3, "Login page polish", ""),
		story("s2", 2, "Checkout receipt email", "WHEN checkout completes THEN a receipt is sent"),
	}}

	got := assessor.Assess(context.Background(), snapshot)

	// One of two stories unspecified: 1 - 0.3*(1/2).
	if !closeTo(got.Score, 0.85) {
		t.Errorf("expected score 0.85, got %.4f", got.Score)
	}
	if !got.Ready {
		t.Error("expected a warning-only score above threshold to stay ready")
	}
	if len(got.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(got.Issues))
	}
	if got.Issues[0].Code != "missing_acceptance_criteria" {
		t.Errorf("expected missing_acceptance_criteria, got %s", got.Issues[0].Code)
	}
}

func TestStoryAssessor_CompoundsDeductions(t *testing.T) {
	assessor := NewStoryAssessor()
	snapshot := &Snapshot{Items: []types.WorkItem{
		story("s1", 8, "Rebuild billing flow", ""),
		story("s2", 3, "Invoice header copy", "WHEN the invoice renders THEN the header shows the legal name"),
	}}

	got := assessor.Assess(context.Background(), snapshot)

	// s1 is both oversized and unspecified: 1 - 0.5*(1/2) - 0.3*(1/2).
	if !closeTo(got.Score, 0.6) {
		t.Errorf("expected score 0.6, got %.4f", got.Score)
	}
	if len(got.Issues) != 2 {
		t.Errorf("expected 2 issues, got %d", len(got.Issues))
	}
	if len(got.Recommendations) != 2 {
		t.Errorf("expected 2 recommendations, got %d", len(got.Recommendations))
	}
}

func TestStoryAssessor_IgnoresNonStories(t *testing.T) {
	assessor := NewStoryAssessor()
	snapshot := &Snapshot{Items: []types.WorkItem{
		{ID: "f1", Type: types.TypeFeature, Title: "Billing overhaul", Points: 13},
		{ID: "e1", Type: types.TypeEnabler, Title: "Schema migration", Points: 8},
	}}

	got := assessor.Assess(context.Background(), snapshot)

	if !closeTo(got.Score, 1.0) {
		t.Errorf("expected score 1.0 with no stories, got %.4f", got.Score)
	}
	if !got.Ready {
		t.Error("expected plan without stories to be trivially ready on this lens")
	}
}
