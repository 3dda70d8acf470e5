package readiness

import (
	"context"
	"fmt"
	"strings"

	"github.com/railyardhq/railyard/internal/types"
)

// DependencyAssessor checks that the dependency structure of the plan is
// sound: no cycles, prerequisites scheduled strictly before dependents,
// no references to items outside the plan.
type DependencyAssessor struct{}

// NewDependencyAssessor creates a dependency resolution assessor.
func NewDependencyAssessor() *DependencyAssessor {
	return &DependencyAssessor{}
}

// Name returns the assessor identifier.
func (a *DependencyAssessor) Name() string { return "dependency_resolution" }

// Category returns the readiness lens this assessor scores.
func (a *DependencyAssessor) Category() types.ReadinessCategory {
	return types.CategoryDependencyResolution
}

// Assess deducts 0.4 when any cycle exists, 0.1 per ordering violation
// in the allocation, and 0.05 per edge dropped for referencing an item
// outside the plan.
func (a *DependencyAssessor) Assess(ctx context.Context, snapshot *Snapshot) Assessment {
	assessment := Assessment{Category: a.Category(), Score: 1.0}

	cycles := snapshot.Graph.Cycles()
	if len(cycles) > 0 {
		assessment.Score -= 0.4
		severity := SeverityWarning
		for _, c := range cycles {
			if c.Severity == types.CycleCritical {
				severity = SeverityBlocker
				break
			}
		}
		var members []string
		for _, c := range cycles {
			members = append(members, c.Items...)
		}
		assessment.Issues = append(assessment.Issues, Issue{
			Code:     "dependency_cycles",
			Message:  fmt.Sprintf("%d dependency cycle(s) involving %s", len(cycles), strings.Join(members, ", ")),
			Severity: severity,
			ItemIDs:  members,
		})
		for _, c := range cycles {
			assessment.Recommendations = append(assessment.Recommendations, c.Suggestions...)
		}
	}

	violations := orderingViolations(snapshot)
	if len(violations) > 0 {
		assessment.Score -= 0.1 * float64(len(violations))
		assessment.Issues = append(assessment.Issues, Issue{
			Code:     "ordering_violations",
			Message:  fmt.Sprintf("%d item(s) scheduled at or before a prerequisite", len(violations)),
			Severity: SeverityBlocker,
			ItemIDs:  violations,
		})
		assessment.Recommendations = append(assessment.Recommendations,
			"reschedule the flagged items after their prerequisites")
	}

	if dropped := snapshot.Graph.DroppedEdgeCount(); dropped > 0 {
		assessment.Score -= 0.05 * float64(dropped)
		assessment.Issues = append(assessment.Issues, Issue{
			Code:     "unresolved_references",
			Message:  fmt.Sprintf("%d dependency edge(s) referenced items outside the plan and were dropped", dropped),
			Severity: SeverityInfo,
		})
	}

	assessment.Score = clampScore(assessment.Score)
	assessment.Ready = readyAt(assessment.Score, assessment.Issues)
	return assessment
}

// orderingViolations returns ids of allocated items whose iteration is
// not strictly after every allocated prerequisite, in allocation order.
func orderingViolations(snapshot *Snapshot) []string {
	var violated []string
	for _, alloc := range snapshot.Allocated {
		for _, pre := range snapshot.Graph.PrerequisitesOf(alloc.Item.ID) {
			preIter, ok := snapshot.AllocatedIteration(pre)
			if !ok {
				continue
			}
			if alloc.Iteration <= preIter {
				violated = append(violated, alloc.Item.ID)
				break
			}
		}
	}
	return violated
}
