package engine

import (
	"time"

	"github.com/railyardhq/railyard/internal/allocator"
	"github.com/railyardhq/railyard/internal/capacity"
	"github.com/railyardhq/railyard/internal/depgraph"
	"github.com/railyardhq/railyard/internal/optimizer"
	"github.com/railyardhq/railyard/internal/readiness"
	"github.com/railyardhq/railyard/internal/types"
)

// PlanResult is the outcome of one full planning run. Graph and
// Capacities are live analysis objects kept for interactive exploration;
// they do not survive serialization, everything else does.
type PlanResult struct {
	RunID     string        `json:"run_id"`
	Increment string        `json:"increment"`
	Source    string        `json:"source"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	Cycles       []depgraph.Cycle `json:"cycles,omitempty"`
	CriticalPath []string         `json:"critical_path,omitempty"`
	Warnings     []string         `json:"warnings,omitempty"`

	Allocation   *allocator.Result      `json:"allocation"`
	Utilization  []capacity.Utilization `json:"utilization,omitempty"`
	Readiness    *readiness.Result      `json:"readiness"`
	Optimization *optimizer.Result      `json:"optimization,omitempty"`

	Graph      *depgraph.Graph  `json:"-"`
	Capacities *capacity.Result `json:"-"`
}

// FinalAssessment returns the readiness that stands after the run: the
// optimizer's re-assessment when one ran, the first pass otherwise.
func (r *PlanResult) FinalAssessment() *readiness.Result {
	if r.Optimization != nil && r.Optimization.Assessment != nil {
		return r.Optimization.Assessment
	}
	return r.Readiness
}

// FinalAllocation returns the allocation that stands after the run.
func (r *PlanResult) FinalAllocation() []types.AllocatedWorkItem {
	if r.Optimization != nil {
		return r.Optimization.Allocated
	}
	if r.Allocation != nil {
		return r.Allocation.Allocated
	}
	return nil
}

// Ready reports whether the plan that stands after the run is fit to
// commit to.
func (r *PlanResult) Ready() bool {
	if final := r.FinalAssessment(); final != nil {
		return final.Ready
	}
	return false
}
