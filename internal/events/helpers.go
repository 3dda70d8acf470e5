package events

import (
	"encoding/json"
	"fmt"
)

// SetGraphBuiltData sets the Data field with GraphBuiltData in a type-safe way.
func (e *PlanningEvent) SetGraphBuiltData(data GraphBuiltData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert GraphBuiltData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetGraphBuiltData retrieves GraphBuiltData from the Data field.
func (e *PlanningEvent) GetGraphBuiltData() (*GraphBuiltData, error) {
	var data GraphBuiltData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse GraphBuiltData: %w", err)
	}
	return &data, nil
}

// SetCyclesDetectedData sets the Data field with CyclesDetectedData in a type-safe way.
func (e *PlanningEvent) SetCyclesDetectedData(data CyclesDetectedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert CyclesDetectedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetCyclesDetectedData retrieves CyclesDetectedData from the Data field.
func (e *PlanningEvent) GetCyclesDetectedData() (*CyclesDetectedData, error) {
	var data CyclesDetectedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse CyclesDetectedData: %w", err)
	}
	return &data, nil
}

// SetCapacityComputedData sets the Data field with CapacityComputedData in a type-safe way.
func (e *PlanningEvent) SetCapacityComputedData(data CapacityComputedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert CapacityComputedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetCapacityComputedData retrieves CapacityComputedData from the Data field.
func (e *PlanningEvent) GetCapacityComputedData() (*CapacityComputedData, error) {
	var data CapacityComputedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse CapacityComputedData: %w", err)
	}
	return &data, nil
}

// SetAllocationCompletedData sets the Data field with AllocationCompletedData in a type-safe way.
func (e *PlanningEvent) SetAllocationCompletedData(data AllocationCompletedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert AllocationCompletedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetAllocationCompletedData retrieves AllocationCompletedData from the Data field.
func (e *PlanningEvent) GetAllocationCompletedData() (*AllocationCompletedData, error) {
	var data AllocationCompletedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse AllocationCompletedData: %w", err)
	}
	return &data, nil
}

// SetReadinessAssessedData sets the Data field with ReadinessAssessedData in a type-safe way.
func (e *PlanningEvent) SetReadinessAssessedData(data ReadinessAssessedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ReadinessAssessedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetReadinessAssessedData retrieves ReadinessAssessedData from the Data field.
func (e *PlanningEvent) GetReadinessAssessedData() (*ReadinessAssessedData, error) {
	var data ReadinessAssessedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ReadinessAssessedData: %w", err)
	}
	return &data, nil
}

// SetOptimizationAppliedData sets the Data field with OptimizationAppliedData in a type-safe way.
func (e *PlanningEvent) SetOptimizationAppliedData(data OptimizationAppliedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert OptimizationAppliedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetOptimizationAppliedData retrieves OptimizationAppliedData from the Data field.
func (e *PlanningEvent) GetOptimizationAppliedData() (*OptimizationAppliedData, error) {
	var data OptimizationAppliedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse OptimizationAppliedData: %w", err)
	}
	return &data, nil
}

// SetRunCompletedData sets the Data field with RunCompletedData in a type-safe way.
func (e *PlanningEvent) SetRunCompletedData(data RunCompletedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert RunCompletedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetRunCompletedData retrieves RunCompletedData from the Data field.
func (e *PlanningEvent) GetRunCompletedData() (*RunCompletedData, error) {
	var data RunCompletedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse RunCompletedData: %w", err)
	}
	return &data, nil
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(data interface{}) (map[string]interface{}, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// mapToStruct converts a map[string]interface{} to a struct using JSON unmarshaling.
func mapToStruct(dataMap map[string]interface{}, target interface{}) error {
	bytes, err := json.Marshal(dataMap)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}
