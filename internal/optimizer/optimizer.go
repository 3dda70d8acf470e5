// Package optimizer runs a single bounded improvement pass over a
// low-scoring plan. It synthesizes advisory improvement actions for the
// weak categories, applies a handful of concrete rebalancing moves, and
// re-assesses once. It never iterates to convergence and never returns
// a plan scoring worse than its input.
package optimizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/railyardhq/railyard/internal/classify"
	"github.com/railyardhq/railyard/internal/readiness"
	"github.com/railyardhq/railyard/internal/types"
)

// Config bounds one optimization pass.
type Config struct {
	// TargetScore is the overall readiness the pass aims for; plans at
	// or above it are returned untouched.
	TargetScore float64 `yaml:"target_score" json:"target_score"`

	// MaxChanges caps the concrete mutations applied in one pass.
	MaxChanges int `yaml:"max_changes" json:"max_changes"`

	// SmoothValue enables moving user-valuable stories into iterations
	// that deliver none.
	SmoothValue bool `yaml:"smooth_value" json:"smooth_value"`

	// RelieveOverload enables deferring low-priority items out of
	// over-allocated iterations.
	RelieveOverload bool `yaml:"relieve_overload" json:"relieve_overload"`
}

// DefaultConfig returns the documented optimizer bounds.
func DefaultConfig() Config {
	return Config{
		TargetScore:     0.85,
		MaxChanges:      5,
		SmoothValue:     true,
		RelieveOverload: true,
	}
}

// Validate rejects bounds that would make the pass meaningless.
func (c Config) Validate() error {
	if c.TargetScore <= 0 || c.TargetScore > 1 {
		return fmt.Errorf("target score must be within (0,1] (got %.2f)", c.TargetScore)
	}
	if c.MaxChanges < 0 {
		return fmt.Errorf("max changes cannot be negative (got %d)", c.MaxChanges)
	}
	return nil
}

// ImprovementAction is an advisory synthesized for one weak category.
type ImprovementAction struct {
	Category    types.ReadinessCategory `json:"category"`
	Priority    string                  `json:"priority"` // "low", "medium", "high"
	Description string                  `json:"description"`
	Impact      string                  `json:"impact"` // "low", "medium", "high"
	Effort      string                  `json:"effort"` // "low", "medium", "high"
}

// Change records one applied mutation.
type Change struct {
	Kind          string `json:"kind"` // "value_smoothing" or "overload_relief"
	ItemID        string `json:"item_id"`
	TeamID        string `json:"team_id"`
	FromIteration int    `json:"from_iteration"`
	ToIteration   int    `json:"to_iteration"`
	Description   string `json:"description"`
}

// Mutation kinds.
const (
	KindValueSmoothing = "value_smoothing"
	KindOverloadRelief = "overload_relief"
)

// Result reports one optimization pass.
type Result struct {
	ScoreBefore   float64                   `json:"score_before"`
	ScoreAfter    float64                   `json:"score_after"`
	ScoreDelta    float64                   `json:"score_delta"`
	ValueBefore   float64                   `json:"value_before"`
	ValueAfter    float64                   `json:"value_after"`
	ValueDelta    float64                   `json:"value_delta"`
	RiskReduction string                    `json:"risk_reduction"` // "none", "low", "moderate", "high"
	Actions       []ImprovementAction       `json:"actions,omitempty"`
	Changes       []Change                  `json:"changes,omitempty"`
	Allocated     []types.AllocatedWorkItem `json:"allocated"`
	Assessment    *readiness.Result         `json:"assessment"`
}

// Optimizer applies bounded rebalancing against a readiness registry.
type Optimizer struct {
	cfg        Config
	registry   *readiness.Registry
	classifier classify.Classifier
}

// New creates an optimizer. The registry re-assesses mutated plans and
// the classifier must match the one feeding the value delivery lens; nil
// selects the defaults for both.
func New(cfg Config, registry *readiness.Registry, classifier classify.Classifier) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer config: %w", err)
	}
	if classifier == nil {
		classifier = classify.NewKeyword()
	}
	if registry == nil {
		registry = readiness.DefaultRegistry(classifier)
	}
	return &Optimizer{cfg: cfg, registry: registry, classifier: classifier}, nil
}

// Optimize runs one pass over the snapshot. The before result is the
// assessment of the incoming plan; nil means assess it here. The
// returned allocation is the incoming one whenever no mutation survives
// the re-assessment.
func (o *Optimizer) Optimize(ctx context.Context, snapshot *readiness.Snapshot, before *readiness.Result) (*Result, error) {
	if before == nil {
		assessed, err := o.registry.AssessAll(ctx, snapshot)
		if err != nil {
			return nil, fmt.Errorf("assessing incoming plan: %w", err)
		}
		before = assessed
	}

	result := &Result{
		ScoreBefore: before.Overall,
		ScoreAfter:  before.Overall,
		Allocated:   append([]types.AllocatedWorkItem(nil), snapshot.Allocated...),
		Assessment:  before,
	}
	result.ValueBefore, _ = before.CategoryScore(types.CategoryValueDelivery)
	result.ValueAfter = result.ValueBefore
	result.RiskReduction = "none"

	if before.Overall >= o.cfg.TargetScore {
		return result, nil
	}

	result.Actions = o.synthesizeActions(before)
	if o.cfg.MaxChanges == 0 {
		return result, nil
	}

	plan := newWorkingPlan(snapshot, o.classifier)
	var changes []Change
	if o.cfg.SmoothValue {
		changes = append(changes, plan.smoothValue(o.cfg.MaxChanges-len(changes))...)
	}
	if o.cfg.RelieveOverload {
		changes = append(changes, plan.relieveOverload(o.cfg.MaxChanges-len(changes))...)
	}
	if len(changes) == 0 {
		return result, nil
	}

	mutated := &readiness.Snapshot{
		Items:       snapshot.Items,
		Iterations:  snapshot.Iterations,
		Graph:       snapshot.Graph,
		Capacities:  snapshot.Capacities,
		Allocated:   plan.allocated,
		Unallocated: snapshot.Unallocated,
	}
	after, err := o.registry.AssessAll(ctx, mutated)
	if err != nil {
		return nil, fmt.Errorf("re-assessing mutated plan: %w", err)
	}

	// A pass must never hand back a worse plan than it was given.
	if after.Overall < before.Overall {
		return result, nil
	}

	result.ScoreAfter = after.Overall
	result.ScoreDelta = after.Overall - before.Overall
	result.ValueAfter, _ = after.CategoryScore(types.CategoryValueDelivery)
	result.ValueDelta = result.ValueAfter - result.ValueBefore
	result.Changes = changes
	result.Allocated = plan.allocated
	result.Assessment = after
	result.RiskReduction = riskReduction(before, after, len(changes))
	return result, nil
}

// synthesizeActions proposes one advisory per category scoring under
// target, ordered worst first.
func (o *Optimizer) synthesizeActions(assessed *readiness.Result) []ImprovementAction {
	weak := make([]readiness.Assessment, 0, len(assessed.Assessments))
	for _, a := range assessed.Assessments {
		if a.Score < o.cfg.TargetScore {
			weak = append(weak, a)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].Score < weak[j].Score })

	actions := make([]ImprovementAction, 0, len(weak))
	for _, a := range weak {
		action := ImprovementAction{
			Category: a.Category,
			Priority: gapPriority(o.cfg.TargetScore - a.Score),
		}
		switch a.Category {
		case types.CategoryStoryReadiness:
			action.Description = "split oversized stories and write acceptance criteria for the unspecified ones"
			action.Impact = "high"
			action.Effort = "medium"
		case types.CategoryDependencyResolution:
			action.Description = "break the reported dependency cycles and reschedule items ahead of their prerequisites"
			action.Impact = "high"
			action.Effort = "high"
		case types.CategoryCapacityAllocation:
			action.Description = "defer low-priority work out of over-allocated iterations"
			action.Impact = "medium"
			action.Effort = "low"
		case types.CategoryValueDelivery:
			action.Description = "spread user-valuable stories so every iteration ships something visible"
			action.Impact = "medium"
			action.Effort = "low"
		}
		actions = append(actions, action)
	}
	return actions
}

// gapPriority grades how far below target a category sits.
func gapPriority(gap float64) string {
	switch {
	case gap >= 0.3:
		return "high"
	case gap >= 0.15:
		return "medium"
	default:
		return "low"
	}
}

// riskReduction estimates qualitatively how much safer the plan got.
func riskReduction(before, after *readiness.Result, changes int) string {
	switch {
	case len(after.BlockingIssues) < len(before.BlockingIssues):
		return "high"
	case after.Overall-before.Overall >= 0.05:
		return "moderate"
	case changes > 0:
		return "low"
	default:
		return "none"
	}
}

// workingPlan is the mutable allocation state one pass operates on.
type workingPlan struct {
	snapshot   *readiness.Snapshot
	classifier classify.Classifier
	allocated  []types.AllocatedWorkItem
	used       map[string]map[int]float64 // team -> iteration -> points
	byNumber   map[int]types.Iteration
	lastNumber int
}

func newWorkingPlan(snapshot *readiness.Snapshot, classifier classify.Classifier) *workingPlan {
	p := &workingPlan{
		snapshot:   snapshot,
		classifier: classifier,
		allocated:  append([]types.AllocatedWorkItem(nil), snapshot.Allocated...),
		used:       make(map[string]map[int]float64),
		byNumber:   make(map[int]types.Iteration, len(snapshot.Iterations)),
	}
	for _, a := range p.allocated {
		p.addPoints(a.TeamID, a.Iteration, float64(a.Points))
	}
	for _, it := range snapshot.Iterations {
		p.byNumber[it.Number] = it
		if it.Number > p.lastNumber {
			p.lastNumber = it.Number
		}
	}
	return p
}

func (p *workingPlan) addPoints(teamID string, iteration int, points float64) {
	if p.used[teamID] == nil {
		p.used[teamID] = make(map[int]float64)
	}
	p.used[teamID][iteration] += points
}

// fits reports whether the team can absorb the points in the iteration
// without crossing the utilization ceiling.
func (p *workingPlan) fits(teamID string, iteration int, points float64) bool {
	it, ok := p.byNumber[iteration]
	if !ok || !it.EligibleFor(teamID) {
		return false
	}
	entry, ok := p.snapshot.Capacities.Lookup(teamID, iteration)
	if !ok {
		return false
	}
	limit := entry.Available * p.snapshot.Capacities.Factors().MaxUtilization
	return p.used[teamID][iteration]+points <= limit+1e-9
}

// move reassigns one allocated item to another iteration.
func (p *workingPlan) move(idx int, toIteration int) {
	a := &p.allocated[idx]
	p.used[a.TeamID][a.Iteration] -= float64(a.Points)
	p.addPoints(a.TeamID, toIteration, float64(a.Points))
	a.Iteration = toIteration
}

// valuableByIteration counts user-valuable stories per loaded iteration.
func (p *workingPlan) valuableByIteration() map[int]int {
	counts := make(map[int]int)
	for _, a := range p.allocated {
		if readiness.UserValuable(a.Item, p.classifier) {
			counts[a.Iteration]++
		}
	}
	return counts
}
