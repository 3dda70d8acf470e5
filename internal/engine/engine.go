// Package engine orchestrates a planning run: graph analysis, capacity
// computation, greedy allocation, readiness assessment, and the optional
// optimization pass. Each stage is exposed on its own so callers can run
// a single analysis; Run chains them all and emits planning events.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/railyardhq/railyard/internal/allocator"
	"github.com/railyardhq/railyard/internal/capacity"
	"github.com/railyardhq/railyard/internal/classify"
	"github.com/railyardhq/railyard/internal/depgraph"
	"github.com/railyardhq/railyard/internal/events"
	"github.com/railyardhq/railyard/internal/optimizer"
	"github.com/railyardhq/railyard/internal/program"
	"github.com/railyardhq/railyard/internal/readiness"
	"github.com/railyardhq/railyard/internal/tracker"
	"github.com/railyardhq/railyard/internal/types"
)

// Config tunes a planning engine.
type Config struct {
	Allocator allocator.Config `yaml:"allocator" json:"allocator"`
	Optimizer optimizer.Config `yaml:"optimizer" json:"optimizer"`

	// Optimize runs the improvement pass after assessment. The optimizer
	// still short-circuits when the plan already meets its target.
	Optimize bool `yaml:"optimize" json:"optimize"`

	// MinValueConfidence discards classifier signals weaker than this
	// when judging value delivery. Zero keeps every signal.
	MinValueConfidence float64 `yaml:"min_value_confidence" json:"min_value_confidence"`

	// Classifier judges work items for the value lens. Nil selects the
	// keyword heuristic.
	Classifier classify.Classifier `yaml:"-" json:"-"`

	// Sink receives planning events from Run. Nil drops them.
	Sink events.Sink `yaml:"-" json:"-"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Allocator: allocator.DefaultConfig(),
		Optimizer: optimizer.DefaultConfig(),
		Optimize:  true,
	}
}

// Engine runs planning stages over in-memory inputs. It holds no state
// between runs; every invocation gets fresh inputs and returns a fresh
// result, so one engine may serve concurrent runs.
type Engine struct {
	cfg      Config
	registry *readiness.Registry
	opt      *optimizer.Optimizer
}

// New creates an engine, validating the optimizer bounds up front.
func New(cfg Config) (*Engine, error) {
	if cfg.Classifier == nil {
		cfg.Classifier = classify.NewKeyword()
	}
	cfg.Classifier = classify.WithMinConfidence(cfg.Classifier, cfg.MinValueConfidence)

	registry := readiness.DefaultRegistry(cfg.Classifier)
	opt, err := optimizer.New(cfg.Optimizer, registry, cfg.Classifier)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, registry: registry, opt: opt}, nil
}

// BuildDependencyGraph resolves edges against the item set, dedupes
// them, and computes cycles and the critical path. Structural problems
// never fail the build; they surface as graph warnings.
func (e *Engine) BuildDependencyGraph(ctx context.Context, items []types.WorkItem, edges []types.DependencyEdge) (*depgraph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return depgraph.Build(items, edges), nil
}

// ComputeCapacities derives per-team per-iteration capacity. Invalid
// factors fail fast: numbers derived from them would be meaningless.
func (e *Engine) ComputeCapacities(ctx context.Context, teams []types.Team, iterations []types.Iteration, factors capacity.Factors) (*capacity.Result, error) {
	return capacity.Compute(ctx, teams, iterations, factors)
}

// AllocateWorkItems places the graph's items onto teams and iterations.
func (e *Engine) AllocateWorkItems(ctx context.Context, g *depgraph.Graph, caps *capacity.Result) (*allocator.Result, error) {
	return allocator.New(e.cfg.Allocator).Allocate(ctx, g, caps)
}

// AssessReadiness scores the snapshot across the four readiness lenses.
func (e *Engine) AssessReadiness(ctx context.Context, snapshot *readiness.Snapshot) (*readiness.Result, error) {
	return e.registry.AssessAll(ctx, snapshot)
}

// OptimizeReadiness runs the bounded improvement pass against an
// assessed snapshot.
func (e *Engine) OptimizeReadiness(ctx context.Context, snapshot *readiness.Snapshot, before *readiness.Result) (*optimizer.Result, error) {
	return e.opt.Optimize(ctx, snapshot, before)
}

// Run executes the full pipeline over a resolved increment.
func (e *Engine) Run(ctx context.Context, inc *program.Increment) (*PlanResult, error) {
	return e.RunFromSource(ctx, inc, tracker.NewIncrementSource(inc))
}

// RunFromSource executes the full pipeline with work items and edges
// pulled from src; the increment supplies the horizon, the teams, and
// the derating factors.
func (e *Engine) RunFromSource(ctx context.Context, inc *program.Increment, src tracker.Source) (*PlanResult, error) {
	started := time.Now()
	result := &PlanResult{
		RunID:     uuid.New().String(),
		Increment: inc.Name,
		Source:    src.Name(),
		StartedAt: started,
	}

	e.emit(events.NewRunStartedEvent(result.RunID, inc.Name, fmt.Sprintf("planning run started for %s", inc.Name)), nil)

	items, err := src.FetchItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch work items from %s: %w", src.Name(), err)
	}
	edges, err := src.FetchEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dependencies from %s: %w", src.Name(), err)
	}
	items = normalizeItems(items)

	g, err := e.BuildDependencyGraph(ctx, items, edges)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Cycles = g.Cycles()
	result.CriticalPath = g.CriticalPath()
	result.Warnings = append(result.Warnings, g.Warnings()...)
	e.emit(events.NewGraphBuiltEvent(result.RunID, inc.Name, events.SeverityInfo,
		fmt.Sprintf("dependency graph built: %d items, %d edges", g.Size(), len(g.Edges())),
		events.GraphBuiltData{
			Items:        g.Size(),
			Edges:        len(g.Edges()),
			DroppedEdges: g.DroppedEdgeCount(),
			CriticalPath: g.CriticalPath(),
		}))
	if g.HasCycles() {
		e.emit(e.cycleEvent(result.RunID, inc.Name, g))
	}

	caps, err := e.ComputeCapacities(ctx, inc.Teams, inc.Iterations, inc.Factors)
	if err != nil {
		return nil, err
	}
	result.Capacities = caps
	e.emit(events.NewCapacityComputedEvent(result.RunID, inc.Name, events.SeverityInfo,
		fmt.Sprintf("capacity computed for %d teams across %d iterations", len(inc.Teams), len(inc.Iterations)),
		events.CapacityComputedData{
			Teams:          len(inc.Teams),
			Iterations:     len(inc.Iterations),
			TotalAvailable: caps.TotalAvailable(),
		}))

	alloc, err := e.AllocateWorkItems(ctx, g, caps)
	if err != nil {
		return nil, err
	}
	result.Allocation = alloc
	result.Utilization = caps.Utilization(alloc.Allocated)
	e.emit(events.NewAllocationCompletedEvent(result.RunID, inc.Name, events.SeverityInfo,
		fmt.Sprintf("allocated %d of %d items across %d passes", alloc.Stats.Allocated, alloc.Stats.TotalItems, alloc.Stats.Passes),
		events.AllocationCompletedData{
			Allocated:       alloc.Stats.Allocated,
			Unallocated:     alloc.Stats.Unallocated,
			Passes:          alloc.Stats.Passes,
			SuccessRate:     alloc.Stats.SuccessRate,
			PointsAllocated: alloc.Stats.PointsAllocated,
		}))

	snapshot := &readiness.Snapshot{
		Items:       items,
		Iterations:  inc.Iterations,
		Graph:       g,
		Capacities:  caps,
		Allocated:   alloc.Allocated,
		Unallocated: alloc.Unallocated,
	}
	assessed, err := e.AssessReadiness(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	result.Readiness = assessed
	severity := events.SeverityInfo
	if !assessed.Ready {
		severity = events.SeverityWarning
	}
	e.emit(events.NewReadinessAssessedEvent(result.RunID, inc.Name, severity,
		fmt.Sprintf("readiness %.2f, ready=%t", assessed.Overall, assessed.Ready),
		events.ReadinessAssessedData{
			Overall:        assessed.Overall,
			Ready:          assessed.Ready,
			Blockers:       len(assessed.BlockingIssues),
			CategoryScores: categoryScores(assessed),
		}))

	if e.cfg.Optimize {
		opt, err := e.OptimizeReadiness(ctx, snapshot, assessed)
		if err != nil {
			return nil, err
		}
		result.Optimization = opt
		e.emit(events.NewOptimizationAppliedEvent(result.RunID, inc.Name, events.SeverityInfo,
			fmt.Sprintf("optimizer applied %d changes, score %.2f -> %.2f", len(opt.Changes), opt.ScoreBefore, opt.ScoreAfter),
			events.OptimizationAppliedData{
				ScoreBefore:   opt.ScoreBefore,
				ScoreAfter:    opt.ScoreAfter,
				Changes:       len(opt.Changes),
				RiskReduction: opt.RiskReduction,
			}))
	}

	result.Elapsed = time.Since(started)
	final := result.FinalAssessment()
	e.emit(events.NewRunCompletedEvent(result.RunID, inc.Name, events.SeverityInfo,
		fmt.Sprintf("planning run completed in %s", result.Elapsed.Round(time.Millisecond)),
		events.RunCompletedData{
			DurationMs: result.Elapsed.Milliseconds(),
			Ready:      final.Ready,
			Overall:    final.Overall,
		}))

	return result, nil
}

// cycleEvent grades detected cycles: critical knots escalate the event
// severity since they invalidate the ordering guarantees.
func (e *Engine) cycleEvent(runID, increment string, g *depgraph.Graph) (*events.PlanningEvent, error) {
	cycles := g.Cycles()
	critical := 0
	var members []string
	for _, c := range cycles {
		if c.Severity == types.CycleCritical {
			critical++
		}
		members = append(members, c.Items...)
	}
	severity := events.SeverityWarning
	if critical > 0 {
		severity = events.SeverityError
	}
	return events.NewCyclesDetectedEvent(runID, increment, severity,
		fmt.Sprintf("%d dependency cycle(s) detected", len(cycles)),
		events.CyclesDetectedData{
			Cycles:         len(cycles),
			CriticalCycles: critical,
			Items:          members,
		})
}

// emit forwards an event to the sink. Events that failed to assemble
// are dropped: event payloads must never affect planning output.
func (e *Engine) emit(event *events.PlanningEvent, err error) {
	if err != nil || event == nil || e.cfg.Sink == nil {
		return
	}
	e.cfg.Sink.Emit(event)
}

// normalizeItems applies intake defaults so every stage sees a sized
// item; sources may hand over items without estimates.
func normalizeItems(items []types.WorkItem) []types.WorkItem {
	out := make([]types.WorkItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Points <= 0 {
			out[i].Points = types.DefaultPoints
		}
	}
	return out
}

func categoryScores(r *readiness.Result) map[string]float64 {
	scores := make(map[string]float64, len(r.Assessments))
	for _, a := range r.Assessments {
		scores[string(a.Category)] = a.Score
	}
	return scores
}
