package readiness

import (
	"context"
	"fmt"

	"github.com/railyardhq/railyard/internal/allocator"
	"github.com/railyardhq/railyard/internal/capacity"
	"github.com/railyardhq/railyard/internal/types"
)

// CapacityAssessor checks that the allocation respects what the teams
// can actually absorb: no iteration loaded past the utilization ceiling.
type CapacityAssessor struct{}

// NewCapacityAssessor creates a capacity allocation assessor.
func NewCapacityAssessor() *CapacityAssessor {
	return &CapacityAssessor{}
}

// Name returns the assessor identifier.
func (a *CapacityAssessor) Name() string { return "capacity_allocation" }

// Category returns the readiness lens this assessor scores.
func (a *CapacityAssessor) Category() types.ReadinessCategory {
	return types.CategoryCapacityAllocation
}

// Assess deducts 0.6 weighted by the fraction of iterations holding at
// least one over-allocated team.
func (a *CapacityAssessor) Assess(ctx context.Context, snapshot *Snapshot) Assessment {
	assessment := Assessment{Category: a.Category(), Score: 1.0}
	if len(snapshot.Iterations) == 0 {
		assessment.Ready = true
		return assessment
	}

	utilization := snapshot.Capacities.Utilization(snapshot.Allocated)
	overIters := capacity.OverAllocatedIterations(utilization)
	assessment.Score = clampScore(1.0 - 0.6*float64(len(overIters))/float64(len(snapshot.Iterations)))

	for _, u := range utilization {
		if !u.OverAllocated {
			continue
		}
		severity := SeverityWarning
		if u.Ratio > 1.0 {
			// Past raw availability, not just the ceiling.
			severity = SeverityBlocker
		}
		assessment.Issues = append(assessment.Issues, Issue{
			Code:     "over_allocated",
			Message:  fmt.Sprintf("team %s in iteration %d at %.0f%% of available capacity (ceiling %.0f%%)", u.TeamID, u.Iteration, u.Ratio*100, snapshot.Capacities.Factors().MaxUtilization*100),
			Severity: severity,
		})
	}
	if len(overIters) > 0 {
		dist := capacity.Summarize(utilization)
		assessment.Recommendations = append(assessment.Recommendations,
			fmt.Sprintf("rebalance work out of %d overloaded iteration(s); mean utilization across the horizon is %.0f%%", len(overIters), dist.Mean*100))
	}

	var starved []string
	for _, u := range snapshot.Unallocated {
		if u.Reason == allocator.ReasonCapacity {
			starved = append(starved, u.Item.ID)
		}
	}
	if len(starved) > 0 {
		assessment.Issues = append(assessment.Issues, Issue{
			Code:     "unplaced_for_capacity",
			Message:  fmt.Sprintf("%d item(s) did not fit any team in the horizon", len(starved)),
			Severity: SeverityWarning,
			ItemIDs:  starved,
		})
		assessment.Recommendations = append(assessment.Recommendations,
			"split the unplaced items or extend the planning horizon")
	}

	assessment.Ready = readyAt(assessment.Score, assessment.Issues)
	return assessment
}
