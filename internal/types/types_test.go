package types

import (
	"strings"
	"testing"
	"time"
)

func TestWorkItemValidate(t *testing.T) {
	item := WorkItem{
		ID:                 "ry-1",
		Type:               TypeStory,
		Title:              "Checkout form",
		Description:        "Collect payment details",
		Points:             3,
		Priority:           2,
		AcceptanceCriteria: "Form submits and persists",
	}
	if err := item.Validate(); err != nil {
		t.Errorf("valid work item rejected: %v", err)
	}
	if !item.HasAcceptanceCriteria() {
		t.Error("HasAcceptanceCriteria should be true")
	}
}

func TestWorkItemValidateRejects(t *testing.T) {
	base := WorkItem{ID: "ry-2", Type: TypeStory, Title: "Login page", Points: 2}

	missingID := base
	missingID.ID = ""
	if err := missingID.Validate(); err == nil {
		t.Error("expected error for missing id")
	}

	missingTitle := base
	missingTitle.Title = ""
	if err := missingTitle.Validate(); err == nil {
		t.Error("expected error for missing title")
	}

	longTitle := base
	longTitle.Title = strings.Repeat("x", 501)
	if err := longTitle.Validate(); err == nil {
		t.Error("expected error for oversized title")
	}

	badType := base
	badType.Type = WorkItemType("epic")
	if err := badType.Validate(); err == nil {
		t.Error("expected error for unknown type")
	}

	negativePoints := base
	negativePoints.Points = -1
	if err := negativePoints.Validate(); err == nil {
		t.Error("expected error for negative points")
	}

	badPriority := base
	badPriority.Priority = 6
	if err := badPriority.Validate(); err == nil {
		t.Error("expected error for out-of-range priority")
	}
}

func TestWorkItemTypeIsValid(t *testing.T) {
	for _, typ := range []WorkItemType{TypeStory, TypeFeature, TypeEnabler} {
		if !typ.IsValid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if WorkItemType("bug").IsValid() {
		t.Error("bug should not be a valid work item type")
	}
}

func TestDependencyEdgeValidate(t *testing.T) {
	edge := DependencyEdge{
		SourceID:   "ry-2",
		TargetID:   "ry-1",
		Kind:       DepRequires,
		Strength:   StrengthHard,
		Confidence: 0.9,
	}
	if err := edge.Validate(); err != nil {
		t.Errorf("valid edge rejected: %v", err)
	}

	self := edge
	self.TargetID = self.SourceID
	if err := self.Validate(); err == nil {
		t.Error("expected error for self edge")
	}

	badKind := edge
	badKind.Kind = DependencyKind("needs")
	if err := badKind.Validate(); err == nil {
		t.Error("expected error for unknown kind")
	}

	badStrength := edge
	badStrength.Strength = EdgeStrength("firm")
	if err := badStrength.Validate(); err == nil {
		t.Error("expected error for unknown strength")
	}

	badConfidence := edge
	badConfidence.Confidence = 1.2
	if err := badConfidence.Validate(); err == nil {
		t.Error("expected error for out-of-range confidence")
	}
}

func TestDependencyKindOrdering(t *testing.T) {
	ordering := map[DependencyKind]bool{
		DepRequires:  true,
		DepBlockedBy: true,
		DepEnables:   false,
		DepBlocks:    false, // ordering force lives on the target, handled in the graph
		DepRelated:   false,
		DepConflicts: false,
	}
	for kind, want := range ordering {
		if got := kind.Ordering(); got != want {
			t.Errorf("%s.Ordering() = %v, want %v", kind, got, want)
		}
	}
}

func TestTeamValidate(t *testing.T) {
	team := Team{ID: "payments", Name: "Payments", AverageVelocity: 30, CapacityFactor: 0.85, Members: 7}
	if err := team.Validate(); err != nil {
		t.Errorf("valid team rejected: %v", err)
	}

	zeroVelocity := team
	zeroVelocity.AverageVelocity = 0
	if err := zeroVelocity.Validate(); err == nil {
		t.Error("expected error for zero velocity")
	}

	badFactor := team
	badFactor.CapacityFactor = 1.5
	if err := badFactor.Validate(); err == nil {
		t.Error("expected error for capacity factor above 1")
	}

	noMembers := team
	noMembers.Members = 0
	if err := noMembers.Validate(); err == nil {
		t.Error("expected error for zero members")
	}
}

func TestIterationEligibleFor(t *testing.T) {
	open := Iteration{ID: "it-1", Number: 1, Start: time.Now(), Days: 14}
	if !open.EligibleFor("anyone") {
		t.Error("iteration with no team list should admit any team")
	}

	restricted := Iteration{ID: "it-2", Number: 2, Days: 14, Teams: []string{"payments", "platform"}}
	if !restricted.EligibleFor("platform") {
		t.Error("listed team should be eligible")
	}
	if restricted.EligibleFor("mobile") {
		t.Error("unlisted team should not be eligible")
	}
}

func TestCategoriesOrder(t *testing.T) {
	cats := Categories()
	want := []ReadinessCategory{
		CategoryStoryReadiness,
		CategoryDependencyResolution,
		CategoryCapacityAllocation,
		CategoryValueDelivery,
	}
	if len(cats) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(cats))
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("category %d = %s, want %s", i, cats[i], want[i])
		}
		if !cats[i].IsValid() {
			t.Errorf("%s should be valid", cats[i])
		}
	}
}
