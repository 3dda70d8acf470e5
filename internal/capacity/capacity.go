// Package capacity models how many story points each team can absorb per
// iteration. Velocity is quoted per standard-length iteration and walked
// through a chain of derating factors; the allocator consumes the result
// through Lookup and never recomputes it.
package capacity

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/railyardhq/railyard/internal/timeline"
	"github.com/railyardhq/railyard/internal/types"
)

// Factors is the derating chain applied to raw velocity. Each factor is a
// multiplier in (0,1]; Buffer is the fraction held back after derating.
type Factors struct {
	Holiday  float64 `yaml:"holiday" json:"holiday"`
	PTO      float64 `yaml:"pto" json:"pto"`
	Meetings float64 `yaml:"meetings" json:"meetings"`
	Focus    float64 `yaml:"focus" json:"focus"`

	// Buffer is reserved for unplanned work; MaxUtilization is the
	// ceiling the allocator may fill of what remains.
	Buffer         float64 `yaml:"buffer" json:"buffer"`
	MaxUtilization float64 `yaml:"max_utilization" json:"max_utilization"`

	// StandardIterationDays anchors duration scaling; a truncated
	// iteration yields proportionally less capacity.
	StandardIterationDays int `yaml:"standard_iteration_days" json:"standard_iteration_days"`
}

// DefaultFactors returns the documented derating defaults.
func DefaultFactors() Factors {
	return Factors{
		Holiday:               0.95,
		PTO:                   0.90,
		Meetings:              0.85,
		Focus:                 0.80,
		Buffer:                0.10,
		MaxUtilization:        0.85,
		StandardIterationDays: timeline.DefaultIterationDays,
	}
}

// Validate rejects factor configurations that would corrupt every
// downstream number. These are invariant violations, not planning
// findings, so they fail fast.
func (f Factors) Validate() error {
	check := func(name string, v float64) error {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s factor must be within (0,1] (got %.2f)", name, v)
		}
		return nil
	}
	if err := check("holiday", f.Holiday); err != nil {
		return err
	}
	if err := check("pto", f.PTO); err != nil {
		return err
	}
	if err := check("meetings", f.Meetings); err != nil {
		return err
	}
	if err := check("focus", f.Focus); err != nil {
		return err
	}
	if f.Buffer < 0 || f.Buffer >= 1 {
		return fmt.Errorf("buffer must be within [0,1) (got %.2f)", f.Buffer)
	}
	if f.MaxUtilization <= 0 || f.MaxUtilization > 1 {
		return fmt.Errorf("max utilization must be within (0,1] (got %.2f)", f.MaxUtilization)
	}
	if f.StandardIterationDays <= 0 {
		return fmt.Errorf("standard iteration days must be positive (got %d)", f.StandardIterationDays)
	}
	return nil
}

// TeamCapacity is the derived capacity of one team in one iteration.
type TeamCapacity struct {
	TeamID     string  `json:"team_id"`
	Iteration  int     `json:"iteration"`
	Velocity   float64 `json:"velocity"`
	Factor     float64 `json:"factor"` // the team's own availability fraction
	Members    int     `json:"members"`
	Available  float64 `json:"available"`
	Confidence float64 `json:"confidence"`
}

type capacityKey struct {
	team      string
	iteration int
}

// Result holds every (team, iteration) capacity for one horizon.
type Result struct {
	entries    map[capacityKey]TeamCapacity
	teams      []types.Team
	iterations []types.Iteration
	factors    Factors
}

// Compute derives capacities for every eligible (team, iteration) pair.
// Teams are derived concurrently; the result is identical across runs.
// Invalid factors or team records abort before any computation.
func Compute(ctx context.Context, teams []types.Team, iterations []types.Iteration, f Factors) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid capacity factors: %w", err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("no teams to plan with")
	}
	if len(iterations) == 0 {
		return nil, fmt.Errorf("no iterations to plan into")
	}
	seen := make(map[string]bool, len(teams))
	for i := range teams {
		if err := teams[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid team: %w", err)
		}
		if seen[teams[i].ID] {
			return nil, fmt.Errorf("duplicate team id %s", teams[i].ID)
		}
		seen[teams[i].ID] = true
	}

	result := &Result{
		entries:    make(map[capacityKey]TeamCapacity, len(teams)*len(iterations)),
		teams:      append([]types.Team(nil), teams...),
		iterations: append([]types.Iteration(nil), iterations...),
		factors:    f,
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i := range teams {
		team := teams[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			confidence := teamConfidence(team)
			for _, it := range iterations {
				if !it.EligibleFor(team.ID) {
					continue
				}
				entry := TeamCapacity{
					TeamID:     team.ID,
					Iteration:  it.Number,
					Velocity:   team.AverageVelocity,
					Factor:     team.CapacityFactor,
					Members:    team.Members,
					Available:  f.available(team, it),
					Confidence: confidence,
				}
				mu.Lock()
				result.entries[capacityKey{team.ID, it.Number}] = entry
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// available walks the derating chain for one team and iteration.
func (f Factors) available(team types.Team, it types.Iteration) float64 {
	scaling := float64(it.Days) / float64(f.StandardIterationDays)
	available := team.AverageVelocity * team.CapacityFactor * scaling
	available *= f.Holiday * f.PTO * f.Meetings * f.Focus
	available *= 1 - f.Buffer
	return available
}

// teamConfidence grades how much to trust a team's velocity number.
// Very small or very large teams, teams with no declared specialties, and
// low-velocity teams all erode it.
func teamConfidence(team types.Team) float64 {
	confidence := 0.9
	if team.Members < 5 {
		confidence -= 0.2
	} else if team.Members > 11 {
		confidence -= 0.1
	}
	if len(team.Specialties) == 0 {
		confidence -= 0.1
	}
	if team.AverageVelocity < 10 {
		confidence -= 0.15
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// Lookup returns the capacity entry for a team and iteration number.
func (r *Result) Lookup(teamID string, iteration int) (TeamCapacity, bool) {
	entry, ok := r.entries[capacityKey{teamID, iteration}]
	return entry, ok
}

// Teams returns the planned teams in input order.
func (r *Result) Teams() []types.Team {
	return append([]types.Team(nil), r.teams...)
}

// Iterations returns the planned iterations in horizon order.
func (r *Result) Iterations() []types.Iteration {
	return append([]types.Iteration(nil), r.iterations...)
}

// Factors returns the derating chain the result was computed with.
func (r *Result) Factors() Factors { return r.factors }

// ForIteration returns every team capacity in one iteration, ordered by
// team id.
func (r *Result) ForIteration(iteration int) []TeamCapacity {
	var out []TeamCapacity
	for key, entry := range r.entries {
		if key.iteration == iteration {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// TotalAvailable sums capacity across the whole horizon.
func (r *Result) TotalAvailable() float64 {
	total := 0.0
	for _, entry := range r.entries {
		total += entry.Available
	}
	return total
}
