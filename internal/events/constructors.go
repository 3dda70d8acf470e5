package events

import (
	"time"

	"github.com/google/uuid"
)

// NewRunStartedEvent creates a new PlanningEvent marking the start of a run.
func NewRunStartedEvent(runID, increment string, message string) *PlanningEvent {
	return NewSimpleEvent(EventTypeRunStarted, runID, increment, SeverityInfo, message)
}

// NewGraphBuiltEvent creates a new PlanningEvent for graph construction with type-safe data.
func NewGraphBuiltEvent(runID, increment string, severity EventSeverity, message string, data GraphBuiltData) (*PlanningEvent, error) {
	event := &PlanningEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeGraphBuilt,
		Timestamp: time.Now(),
		RunID:     runID,
		Increment: increment,
		Severity:  severity,
		Message:   message,
	}
	if err := event.SetGraphBuiltData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewCyclesDetectedEvent creates a new PlanningEvent for detected cycles with type-safe data.
func NewCyclesDetectedEvent(runID, increment string, severity EventSeverity, message string, data CyclesDetectedData) (*PlanningEvent, error) {
	event := &PlanningEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeCyclesDetected,
		Timestamp: time.Now(),
		RunID:     runID,
		Increment: increment,
		Severity:  severity,
		Message:   message,
	}
	if err := event.SetCyclesDetectedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewCapacityComputedEvent creates a new PlanningEvent for capacity computation with type-safe data.
func NewCapacityComputedEvent(runID, increment string, severity EventSeverity, message string, data CapacityComputedData) (*PlanningEvent, error) {
	event := &PlanningEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeCapacityComputed,
		Timestamp: time.Now(),
		RunID:     runID,
		Increment: increment,
		Severity:  severity,
		Message:   message,
	}
	if err := event.SetCapacityComputedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewAllocationCompletedEvent creates a new PlanningEvent for a finished allocation with type-safe data.
func NewAllocationCompletedEvent(runID, increment string, severity EventSeverity, message string, data AllocationCompletedData) (*PlanningEvent, error) {
	event := &PlanningEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeAllocationCompleted,
		Timestamp: time.Now(),
		RunID:     runID,
		Increment: increment,
		Severity:  severity,
		Message:   message,
	}
	if err := event.SetAllocationCompletedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewReadinessAssessedEvent creates a new PlanningEvent for a readiness assessment with type-safe data.
func NewReadinessAssessedEvent(runID, increment string, severity EventSeverity, message string, data ReadinessAssessedData) (*PlanningEvent, error) {
	event := &PlanningEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeReadinessAssessed,
		Timestamp: time.Now(),
		RunID:     runID,
		Increment: increment,
		Severity:  severity,
		Message:   message,
	}
	if err := event.SetReadinessAssessedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewOptimizationAppliedEvent creates a new PlanningEvent for an optimization pass with type-safe data.
func NewOptimizationAppliedEvent(runID, increment string, severity EventSeverity, message string, data OptimizationAppliedData) (*PlanningEvent, error) {
	event := &PlanningEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeOptimizationApplied,
		Timestamp: time.Now(),
		RunID:     runID,
		Increment: increment,
		Severity:  severity,
		Message:   message,
	}
	if err := event.SetOptimizationAppliedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewRunCompletedEvent creates a new PlanningEvent for a finished run with type-safe data.
func NewRunCompletedEvent(runID, increment string, severity EventSeverity, message string, data RunCompletedData) (*PlanningEvent, error) {
	event := &PlanningEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeRunCompleted,
		Timestamp: time.Now(),
		RunID:     runID,
		Increment: increment,
		Severity:  severity,
		Message:   message,
	}
	if err := event.SetRunCompletedData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewSimpleEvent creates a new PlanningEvent with no structured data.
func NewSimpleEvent(eventType EventType, runID, increment string, severity EventSeverity, message string) *PlanningEvent {
	return &PlanningEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		RunID:     runID,
		Increment: increment,
		Severity:  severity,
		Message:   message,
		Data:      make(map[string]interface{}),
	}
}
