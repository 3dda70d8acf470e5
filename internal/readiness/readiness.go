// Package readiness grades whether an allocation is fit to commit to.
// Four assessors score independent lenses of the plan; the aggregate is
// their unweighted mean. Assessors are pluggable: anything implementing
// Assessor can join the registry alongside the built-ins.
package readiness

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/railyardhq/railyard/internal/capacity"
	"github.com/railyardhq/railyard/internal/classify"
	"github.com/railyardhq/railyard/internal/depgraph"
	"github.com/railyardhq/railyard/internal/types"
)

// ReadyThreshold is the minimum score, per category and overall, for a
// plan to count as ready.
const ReadyThreshold = 0.8

// Severity grades an assessment issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	// SeverityBlocker marks an issue that makes the plan not ready
	// regardless of its score.
	SeverityBlocker Severity = "blocker"
)

// Issue is one finding from an assessor.
type Issue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	ItemIDs  []string `json:"item_ids,omitempty"`
}

// Assessment is the outcome of one readiness lens.
type Assessment struct {
	Category        types.ReadinessCategory `json:"category"`
	Score           float64                 `json:"score"`
	Ready           bool                    `json:"ready"`
	Issues          []Issue                 `json:"issues,omitempty"`
	Recommendations []string                `json:"recommendations,omitempty"`
}

// Result aggregates every assessment for one plan.
type Result struct {
	Overall        float64      `json:"overall"`
	Ready          bool         `json:"ready"`
	Assessments    []Assessment `json:"assessments"`
	BlockingIssues []Issue      `json:"blocking_issues,omitempty"`
}

// CategoryScore returns the score of one assessment category.
func (r *Result) CategoryScore(category types.ReadinessCategory) (float64, bool) {
	for _, a := range r.Assessments {
		if a.Category == category {
			return a.Score, true
		}
	}
	return 0, false
}

// Snapshot is the read-only plan state assessors work from.
type Snapshot struct {
	Items       []types.WorkItem
	Iterations  []types.Iteration
	Graph       *depgraph.Graph
	Capacities  *capacity.Result
	Allocated   []types.AllocatedWorkItem
	Unallocated []types.UnallocatedWorkItem
}

// AllocatedIteration returns the iteration an item landed in, if any.
func (s *Snapshot) AllocatedIteration(id string) (int, bool) {
	for _, a := range s.Allocated {
		if a.Item.ID == id {
			return a.Iteration, true
		}
	}
	return 0, false
}

// Assessor is the interface for pluggable readiness lenses.
type Assessor interface {
	// Name returns a unique identifier for this assessor.
	Name() string

	// Category names the readiness lens this assessor scores.
	Category() types.ReadinessCategory

	// Assess scores the snapshot and reports any findings.
	Assess(ctx context.Context, snapshot *Snapshot) Assessment
}

// Registry manages a collection of assessors and orchestrates assessment.
type Registry struct {
	assessors []Assessor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{assessors: make([]Assessor, 0)}
}

// DefaultRegistry returns a registry holding the four built-in
// assessors in report order. The classifier feeds the value delivery
// lens; nil selects the keyword heuristic.
func DefaultRegistry(classifier classify.Classifier) *Registry {
	r := NewRegistry()
	r.Register(NewStoryAssessor())
	r.Register(NewDependencyAssessor())
	r.Register(NewCapacityAssessor())
	r.Register(NewValueAssessor(classifier))
	return r
}

// Register adds an assessor. Registration order is report order.
func (r *Registry) Register(a Assessor) {
	r.assessors = append(r.assessors, a)
}

// AssessAll runs every registered assessor and folds the outcomes into a
// single result. Assessors run concurrently; the merge preserves
// registration order, so identical inputs produce identical results.
func (r *Registry) AssessAll(ctx context.Context, snapshot *Snapshot) (*Result, error) {
	if len(r.assessors) == 0 {
		return nil, fmt.Errorf("no assessors registered")
	}

	assessments := make([]Assessment, len(r.assessors))
	g, ctx := errgroup.WithContext(ctx)
	for i, a := range r.assessors {
		i, a := i, a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			assessments[i] = a.Assess(ctx, snapshot)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Assessments: assessments}
	sum := 0.0
	for _, a := range assessments {
		sum += a.Score
		for _, issue := range a.Issues {
			if issue.Severity == SeverityBlocker {
				result.BlockingIssues = append(result.BlockingIssues, issue)
			}
		}
	}
	result.Overall = sum / float64(len(assessments))
	result.Ready = result.Overall >= ReadyThreshold && len(result.BlockingIssues) == 0
	return result, nil
}

// clampScore keeps a score inside [0,1].
func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// readyAt reports readiness for one assessment: at or above threshold
// with no blocking issues.
func readyAt(score float64, issues []Issue) bool {
	if score < ReadyThreshold {
		return false
	}
	for _, issue := range issues {
		if issue.Severity == SeverityBlocker {
			return false
		}
	}
	return true
}
