// Package allocator places work items onto teams and iterations. The
// strategy is greedy: walk the items in priority order and give each one
// the earliest iteration its prerequisites allow, on the team with the
// most room. Placements are never revisited, so a different priority
// order can produce a different but equally valid plan.
package allocator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/railyardhq/railyard/internal/capacity"
	"github.com/railyardhq/railyard/internal/depgraph"
	"github.com/railyardhq/railyard/internal/types"
)

// Config tunes allocation behavior.
type Config struct {
	// DeferOverflow scans later iterations when the earliest feasible
	// one has no room. Off by default: a capacity miss at the earliest
	// feasible slot is reported, not silently pushed out.
	DeferOverflow bool `yaml:"defer_overflow" json:"defer_overflow"`
}

// DefaultConfig returns the default allocation configuration.
func DefaultConfig() Config {
	return Config{}
}

// Stats summarizes one allocation run.
type Stats struct {
	TotalItems      int           `json:"total_items"`
	Allocated       int           `json:"allocated"`
	Unallocated     int           `json:"unallocated"`
	SuccessRate     float64       `json:"success_rate"`
	PointsAllocated int           `json:"points_allocated"`
	MeanConfidence  float64       `json:"mean_confidence"`
	Passes          int           `json:"passes"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Result is the outcome of one allocation run. Every input item appears
// exactly once, either allocated or unallocated.
type Result struct {
	Allocated   []types.AllocatedWorkItem   `json:"allocated"`
	Unallocated []types.UnallocatedWorkItem `json:"unallocated"`
	Stats       Stats                       `json:"stats"`
}

// Allocator runs the greedy placement strategy.
type Allocator struct {
	cfg Config
}

// New creates an allocator with the given configuration.
func New(cfg Config) *Allocator {
	return &Allocator{cfg: cfg}
}

type scoredItem struct {
	id    string
	score int
}

// reasons reported on unallocated items.
const (
	ReasonDependencies = "no feasible iteration for dependencies"
	ReasonCapacity     = "no team has sufficient capacity"
)

// Allocate places every item it can. Items wait for their prerequisites
// across passes; a pass that places nothing ends the run, so items whose
// prerequisites never land (cycles, dead chains) come back unallocated.
func (a *Allocator) Allocate(ctx context.Context, g *depgraph.Graph, caps *capacity.Result) (*Result, error) {
	start := time.Now()

	items := g.Items()
	iterations := caps.Iterations()
	lastIteration := 0
	for _, it := range iterations {
		if it.Number > lastIteration {
			lastIteration = it.Number
		}
	}

	order := a.rank(g, items)

	ceiling := caps.Factors().MaxUtilization
	used := make(map[string]map[int]float64) // team -> iteration -> points
	placed := make(map[string]int)           // item id -> iteration number

	result := &Result{}
	pending := order
	passes := 0

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		passes++
		progress := false
		var retry []scoredItem

		for _, cand := range pending {
			item, _ := g.Item(cand.id)
			prereqs := g.PrerequisitesOf(cand.id)

			waiting := unplacedOf(prereqs, placed)
			if len(waiting) > 0 {
				retry = append(retry, cand)
				continue
			}

			earliest := 1
			for _, p := range prereqs {
				if placed[p] >= earliest {
					earliest = placed[p] + 1
				}
			}

			if earliest > lastIteration {
				result.Unallocated = append(result.Unallocated, types.UnallocatedWorkItem{
					Item:     item,
					Reason:   ReasonDependencies,
					Remedies: []string{"extend the planning horizon", "defer the item to the next planning horizon"},
				})
				progress = true
				continue
			}

			iteration, team := a.findSlot(caps, used, ceiling, earliest, lastIteration, item.Points)
			if team == "" {
				result.Unallocated = append(result.Unallocated, types.UnallocatedWorkItem{
					Item:   item,
					Reason: ReasonCapacity,
					Remedies: []string{
						"split the item into smaller slices",
						"add capacity or relax the utilization ceiling",
						"defer the item to the next planning horizon",
					},
				})
				progress = true
				continue
			}

			if used[team] == nil {
				used[team] = make(map[int]float64)
			}
			used[team][iteration] += float64(item.Points)
			placed[cand.id] = iteration
			result.Allocated = append(result.Allocated, types.AllocatedWorkItem{
				Item:          item,
				TeamID:        team,
				Iteration:     iteration,
				Points:        item.Points,
				Confidence:    allocationConfidence(len(prereqs), item.Points),
				Prerequisites: prereqs,
				Enables:       g.DependentsOf(cand.id),
			})
			progress = true
		}

		if !progress {
			// Nothing moved: whatever is left is waiting on items that
			// will never land.
			for _, cand := range pending {
				item, _ := g.Item(cand.id)
				blockers := unplacedOf(g.PrerequisitesOf(cand.id), placed)
				result.Unallocated = append(result.Unallocated, types.UnallocatedWorkItem{
					Item:     item,
					Reason:   ReasonDependencies,
					Blockers: blockers,
					Remedies: dependencyRemedies(g, cand.id),
				})
			}
			break
		}
		pending = retry
	}

	result.Stats = a.summarize(len(items), result, passes, time.Since(start))
	return result, nil
}

// rank orders items by priority score, highest first, ids breaking ties
// so identical inputs always allocate identically.
func (a *Allocator) rank(g *depgraph.Graph, items []types.WorkItem) []scoredItem {
	order := make([]scoredItem, 0, len(items))
	for _, item := range items {
		order = append(order, scoredItem{id: item.ID, score: priorityScore(g, item)})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].id < order[j].id
	})
	return order
}

// priorityScore weighs declared priority heaviest, then how much the
// item unblocks, then critical-path membership, then size (small items
// edge out big ones at equal urgency).
func priorityScore(g *depgraph.Graph, item types.WorkItem) int {
	score := 0
	if item.Priority >= 1 && item.Priority <= types.MaxPriority {
		score += (6 - item.Priority) * 100
	}
	score += g.DependentCount(item.ID) * 50
	if g.OnCriticalPath(item.ID) {
		score += 200
	}
	score += (6 - item.Points) * 10
	return score
}

// findSlot picks the team with the most remaining capacity that fits the
// item in the given iteration. Unless DeferOverflow is set, only the
// earliest feasible iteration is considered.
func (a *Allocator) findSlot(caps *capacity.Result, used map[string]map[int]float64, ceiling float64, earliest, last, points int) (int, string) {
	limit := earliest
	if a.cfg.DeferOverflow {
		limit = last
	}
	for iteration := earliest; iteration <= limit; iteration++ {
		bestTeam := ""
		bestRemaining := 0.0
		for _, entry := range caps.ForIteration(iteration) {
			remaining := entry.Available*ceiling - used[entry.TeamID][iteration]
			if remaining+1e-9 < float64(points) {
				continue
			}
			if bestTeam == "" || remaining > bestRemaining {
				bestTeam = entry.TeamID
				bestRemaining = remaining
			}
		}
		if bestTeam != "" {
			return iteration, bestTeam
		}
	}
	return 0, ""
}

// allocationConfidence grades a single placement: more prerequisites and
// bigger items erode it, trivially small items raise it.
func allocationConfidence(prereqCount, points int) float64 {
	confidence := 0.8 - 0.05*float64(prereqCount)
	if points > 5 {
		confidence -= 0.1
	}
	if points <= 2 {
		confidence += 0.1
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

func unplacedOf(prereqs []string, placed map[string]int) []string {
	var out []string
	for _, p := range prereqs {
		if _, ok := placed[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func dependencyRemedies(g *depgraph.Graph, id string) []string {
	if g.InCycle(id) {
		return []string{"break the dependency cycle before planning", "merge or split the entangled items"}
	}
	return []string{"plan the missing prerequisites first", fmt.Sprintf("confirm the prerequisites of %s are still in scope", id)}
}

func (a *Allocator) summarize(total int, result *Result, passes int, elapsed time.Duration) Stats {
	stats := Stats{
		TotalItems:  total,
		Allocated:   len(result.Allocated),
		Unallocated: len(result.Unallocated),
		Passes:      passes,
		Elapsed:     elapsed,
	}
	if total > 0 {
		stats.SuccessRate = float64(stats.Allocated) / float64(total)
	}
	sum := 0.0
	for _, a := range result.Allocated {
		stats.PointsAllocated += a.Points
		sum += a.Confidence
	}
	if stats.Allocated > 0 {
		stats.MeanConfidence = sum / float64(stats.Allocated)
	}
	return stats
}
