package types

import (
	"fmt"
	"strings"
	"time"
)

// WorkItem is a unit of plannable work on a release train.
type WorkItem struct {
	ID                 string       `json:"id"`
	Type               WorkItemType `json:"type"`
	Title              string       `json:"title"`
	Description        string       `json:"description,omitempty"`
	Points             int          `json:"points"`
	Priority           int          `json:"priority,omitempty"` // 1 (highest) to 5, 0 = undeclared
	ParentID           string       `json:"parent_id,omitempty"`
	AcceptanceCriteria string       `json:"acceptance_criteria,omitempty"`
	Tags               []string     `json:"tags,omitempty"`
}

// DefaultPoints is assigned when a work item arrives without an estimate.
const DefaultPoints = 3

// MaxPriority is the lowest declared priority; 1 is the highest.
const MaxPriority = 5

// Validate checks if the work item has valid field values
func (w *WorkItem) Validate() error {
	if len(w.ID) == 0 {
		return fmt.Errorf("id is required")
	}
	if len(w.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(w.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(w.Title))
	}
	if !w.Type.IsValid() {
		return fmt.Errorf("invalid work item type: %s", w.Type)
	}
	if w.Points < 0 {
		return fmt.Errorf("points cannot be negative (got %d)", w.Points)
	}
	if w.Priority < 0 || w.Priority > MaxPriority {
		return fmt.Errorf("priority must be between 1 and %d or unset (got %d)", MaxPriority, w.Priority)
	}
	return nil
}

// HasAcceptanceCriteria reports whether the item carries non-blank criteria.
func (w *WorkItem) HasAcceptanceCriteria() bool {
	return strings.TrimSpace(w.AcceptanceCriteria) != ""
}

// WorkItemType categorizes the kind of work on the train
type WorkItemType string

const (
	TypeStory   WorkItemType = "story"   // User-deliverable slice, sized to fit one iteration
	TypeFeature WorkItemType = "feature" // Larger deliverable, usually a parent of stories
	TypeEnabler WorkItemType = "enabler" // Architectural or infrastructure work
)

// IsValid checks if the work item type value is valid
func (t WorkItemType) IsValid() bool {
	switch t {
	case TypeStory, TypeFeature, TypeEnabler:
		return true
	}
	return false
}

// DependencyEdge is a directed relationship between two work items.
// For requires and blocked_by the source waits on the target; for blocks
// the target waits on the source.
type DependencyEdge struct {
	SourceID   string         `json:"source_id"`
	TargetID   string         `json:"target_id"`
	Kind       DependencyKind `json:"kind"`
	Strength   EdgeStrength   `json:"strength"`
	Confidence float64        `json:"confidence"`
	Detail     string         `json:"detail,omitempty"`
}

// Validate checks if the edge has valid field values
func (e *DependencyEdge) Validate() error {
	if e.SourceID == "" || e.TargetID == "" {
		return fmt.Errorf("edge requires both source and target ids")
	}
	if e.SourceID == e.TargetID {
		return fmt.Errorf("edge cannot point at its own source (%s)", e.SourceID)
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("invalid dependency kind: %s", e.Kind)
	}
	if !e.Strength.IsValid() {
		return fmt.Errorf("invalid edge strength: %s", e.Strength)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence must be within [0,1] (got %.2f)", e.Confidence)
	}
	return nil
}

// DependencyKind categorizes the relationship between work items
type DependencyKind string

const (
	// DepRequires indicates the source cannot start before the target completes
	DepRequires DependencyKind = "requires"
	// DepBlockedBy is the tracker-import spelling of requires
	DepBlockedBy DependencyKind = "blocked_by"
	// DepEnables indicates the source unlocks the target (informational)
	DepEnables DependencyKind = "enables"
	// DepBlocks indicates the target cannot start before the source completes
	DepBlocks DependencyKind = "blocks"
	// DepRelated indicates a loose association with no ordering force
	DepRelated DependencyKind = "related"
	// DepConflicts indicates the items should not land in the same iteration
	DepConflicts DependencyKind = "conflicts"
)

// IsValid checks if the dependency kind value is valid
func (k DependencyKind) IsValid() bool {
	switch k {
	case DepRequires, DepBlockedBy, DepEnables, DepBlocks, DepRelated, DepConflicts:
		return true
	}
	return false
}

// Ordering reports whether the kind forces scheduling order on the source.
func (k DependencyKind) Ordering() bool {
	return k == DepRequires || k == DepBlockedBy
}

// EdgeStrength grades how firm a dependency is
type EdgeStrength string

const (
	StrengthHard     EdgeStrength = "hard"
	StrengthSoft     EdgeStrength = "soft"
	StrengthOptional EdgeStrength = "optional"
)

// IsValid checks if the edge strength value is valid
func (s EdgeStrength) IsValid() bool {
	switch s {
	case StrengthHard, StrengthSoft, StrengthOptional:
		return true
	}
	return false
}

// Team is a delivery team participating in the planning horizon.
type Team struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	AverageVelocity float64  `json:"average_velocity"` // points per standard-length iteration
	CapacityFactor  float64  `json:"capacity_factor"`  // (0,1] fraction of velocity actually available
	Members         int      `json:"members"`
	Specialties     []string `json:"specialties,omitempty"`
}

// Validate checks if the team has valid field values
func (t *Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.AverageVelocity <= 0 {
		return fmt.Errorf("team %s: average velocity must be positive (got %.2f)", t.ID, t.AverageVelocity)
	}
	if t.CapacityFactor <= 0 || t.CapacityFactor > 1 {
		return fmt.Errorf("team %s: capacity factor must be within (0,1] (got %.2f)", t.ID, t.CapacityFactor)
	}
	if t.Members <= 0 {
		return fmt.Errorf("team %s: members must be positive (got %d)", t.ID, t.Members)
	}
	return nil
}

// Iteration is one timebox in the planning horizon.
type Iteration struct {
	ID     string    `json:"id"`
	Number int       `json:"number"` // 1-based ordinal within the horizon
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Days   int       `json:"days"`            // working span in calendar days
	Teams  []string  `json:"teams,omitempty"` // eligible team ids; empty means all teams
}

// EligibleFor reports whether teamID may take work in this iteration.
func (it *Iteration) EligibleFor(teamID string) bool {
	if len(it.Teams) == 0 {
		return true
	}
	for _, id := range it.Teams {
		if id == teamID {
			return true
		}
	}
	return false
}

// AllocatedWorkItem is a work item placed on a team and iteration.
type AllocatedWorkItem struct {
	Item          WorkItem `json:"item"`
	TeamID        string   `json:"team_id"`
	Iteration     int      `json:"iteration"` // iteration number the item lands in
	Points        int      `json:"points"`
	Confidence    float64  `json:"confidence"`
	Prerequisites []string `json:"prerequisites,omitempty"` // ordering dependencies of the item
	Enables       []string `json:"enables,omitempty"`       // items waiting on this one
}

// UnallocatedWorkItem is a work item the allocator could not place.
type UnallocatedWorkItem struct {
	Item     WorkItem `json:"item"`
	Reason   string   `json:"reason"`
	Blockers []string `json:"blockers,omitempty"` // prerequisite ids that never landed
	Remedies []string `json:"remedies,omitempty"`
}

// CycleSeverity grades a dependency cycle
type CycleSeverity string

const (
	CycleCritical CycleSeverity = "critical"
	CycleWarning  CycleSeverity = "warning"
	CycleInfo     CycleSeverity = "info"
)

// IsValid checks if the cycle severity value is valid
func (s CycleSeverity) IsValid() bool {
	switch s {
	case CycleCritical, CycleWarning, CycleInfo:
		return true
	}
	return false
}

// ReadinessCategory names one lens of the readiness assessment
type ReadinessCategory string

const (
	CategoryStoryReadiness       ReadinessCategory = "story-readiness"
	CategoryDependencyResolution ReadinessCategory = "dependency-resolution"
	CategoryCapacityAllocation   ReadinessCategory = "capacity-allocation"
	CategoryValueDelivery        ReadinessCategory = "value-delivery"
)

// IsValid checks if the readiness category value is valid
func (c ReadinessCategory) IsValid() bool {
	switch c {
	case CategoryStoryReadiness, CategoryDependencyResolution,
		CategoryCapacityAllocation, CategoryValueDelivery:
		return true
	}
	return false
}

// Categories returns the assessment categories in report order.
func Categories() []ReadinessCategory {
	return []ReadinessCategory{
		CategoryStoryReadiness,
		CategoryDependencyResolution,
		CategoryCapacityAllocation,
		CategoryValueDelivery,
	}
}
