package events

import (
	"time"
)

// EventType represents the type of event that occurred during a planning run.
type EventType string

const (
	// EventTypeRunStarted indicates a planning run began
	EventTypeRunStarted EventType = "run_started"
	// EventTypeGraphBuilt indicates the dependency graph was constructed
	EventTypeGraphBuilt EventType = "graph_built"
	// EventTypeCyclesDetected indicates dependency cycles were found in the graph
	EventTypeCyclesDetected EventType = "cycles_detected"
	// EventTypeCapacityComputed indicates team capacities were derived for the horizon
	EventTypeCapacityComputed EventType = "capacity_computed"
	// EventTypeAllocationCompleted indicates the allocator finished placing work
	EventTypeAllocationCompleted EventType = "allocation_completed"
	// EventTypeReadinessAssessed indicates the readiness registry scored the plan
	EventTypeReadinessAssessed EventType = "readiness_assessed"
	// EventTypeOptimizationApplied indicates the optimizer ran an improvement pass
	EventTypeOptimizationApplied EventType = "optimization_applied"
	// EventTypeRunCompleted indicates the planning run finished
	EventTypeRunCompleted EventType = "run_completed"
)

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	// SeverityInfo indicates informational events
	SeverityInfo EventSeverity = "info"
	// SeverityWarning indicates potentially problematic events
	SeverityWarning EventSeverity = "warning"
	// SeverityError indicates error events
	SeverityError EventSeverity = "error"
)

// PlanningEvent represents an event that occurred during a planning run.
// Events are emitted by the engine and stored alongside the run for review.
type PlanningEvent struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type is the type of event
	Type EventType `json:"type"`
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
	// RunID is the planning run this event belongs to
	RunID string `json:"run_id"`
	// Increment is the program increment being planned
	Increment string `json:"increment"`
	// Severity is the severity level of this event
	Severity EventSeverity `json:"severity"`
	// Message is a human-readable description of the event
	Message string `json:"message"`
	// Data contains structured, type-specific data (must be JSON-serializable)
	Data map[string]interface{} `json:"data"`
}

// GraphBuiltData contains structured data for graph construction events.
type GraphBuiltData struct {
	// Items is the number of work items in the graph
	Items int `json:"items"`
	// Edges is the number of dependency edges kept after deduplication
	Edges int `json:"edges"`
	// DroppedEdges is the number of edges dropped for unresolvable references
	DroppedEdges int `json:"dropped_edges"`
	// CriticalPath is the longest effort-weighted dependency chain
	CriticalPath []string `json:"critical_path,omitempty"`
}

// CyclesDetectedData contains structured data for cycle detection events.
type CyclesDetectedData struct {
	// Cycles is the number of dependency cycles found
	Cycles int `json:"cycles"`
	// CriticalCycles is the number of cycles graded critical
	CriticalCycles int `json:"critical_cycles"`
	// Items are the ids of every item caught in a cycle
	Items []string `json:"items,omitempty"`
}

// CapacityComputedData contains structured data for capacity computation events.
type CapacityComputedData struct {
	// Teams is the number of teams planned
	Teams int `json:"teams"`
	// Iterations is the number of iterations in the horizon
	Iterations int `json:"iterations"`
	// TotalAvailable is the summed available capacity across the horizon
	TotalAvailable float64 `json:"total_available"`
}

// AllocationCompletedData contains structured data for allocation events.
type AllocationCompletedData struct {
	// Allocated is the number of items placed
	Allocated int `json:"allocated"`
	// Unallocated is the number of items that could not be placed
	Unallocated int `json:"unallocated"`
	// Passes is the number of placement passes the allocator ran
	Passes int `json:"passes"`
	// SuccessRate is allocated / (allocated + unallocated)
	SuccessRate float64 `json:"success_rate"`
	// PointsAllocated is the total story points placed
	PointsAllocated int `json:"points_allocated"`
}

// ReadinessAssessedData contains structured data for readiness assessment events.
type ReadinessAssessedData struct {
	// Overall is the aggregate readiness score
	Overall float64 `json:"overall"`
	// Ready indicates whether the plan met the readiness bar
	Ready bool `json:"ready"`
	// Blockers is the number of blocking issues across categories
	Blockers int `json:"blockers"`
	// CategoryScores maps each category to its score
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
}

// OptimizationAppliedData contains structured data for optimization events.
type OptimizationAppliedData struct {
	// ScoreBefore is the overall readiness going into the pass
	ScoreBefore float64 `json:"score_before"`
	// ScoreAfter is the overall readiness after the pass
	ScoreAfter float64 `json:"score_after"`
	// Changes is the number of mutations applied
	Changes int `json:"changes"`
	// RiskReduction is the qualitative risk estimate for the pass
	RiskReduction string `json:"risk_reduction"`
}

// RunCompletedData contains structured data for run completion events.
type RunCompletedData struct {
	// DurationMs is the wall time of the run in milliseconds
	DurationMs int64 `json:"duration_ms"`
	// Ready indicates whether the final plan met the readiness bar
	Ready bool `json:"ready"`
	// Overall is the final overall readiness score
	Overall float64 `json:"overall"`
}
