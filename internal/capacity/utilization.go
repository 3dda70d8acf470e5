package capacity

import (
	"math"
	"sort"

	"github.com/railyardhq/railyard/internal/types"
)

// Utilization reports how full one (team, iteration) slot ended up.
type Utilization struct {
	TeamID        string  `json:"team_id"`
	Iteration     int     `json:"iteration"`
	Allocated     float64 `json:"allocated"`
	Available     float64 `json:"available"`
	Ratio         float64 `json:"ratio"`
	OverAllocated bool    `json:"over_allocated"` // ratio above the configured ceiling
}

// Utilization folds a set of allocations over the computed capacities and
// returns one record per (team, iteration) slot, ordered by iteration
// then team id.
func (r *Result) Utilization(allocated []types.AllocatedWorkItem) []Utilization {
	points := make(map[capacityKey]float64)
	for _, a := range allocated {
		points[capacityKey{a.TeamID, a.Iteration}] += float64(a.Points)
	}

	out := make([]Utilization, 0, len(r.entries))
	for key, entry := range r.entries {
		u := Utilization{
			TeamID:    key.team,
			Iteration: key.iteration,
			Allocated: points[key],
			Available: entry.Available,
		}
		if entry.Available > 0 {
			u.Ratio = u.Allocated / entry.Available
		} else if u.Allocated > 0 {
			u.Ratio = math.Inf(1)
		}
		u.OverAllocated = u.Ratio > r.factors.MaxUtilization
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Iteration != out[j].Iteration {
			return out[i].Iteration < out[j].Iteration
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out
}

// OverAllocatedIterations returns the iteration numbers holding at least
// one over-allocated team, ascending.
func OverAllocatedIterations(utilization []Utilization) []int {
	seen := make(map[int]bool)
	var out []int
	for _, u := range utilization {
		if u.OverAllocated && !seen[u.Iteration] {
			seen[u.Iteration] = true
			out = append(out, u.Iteration)
		}
	}
	sort.Ints(out)
	return out
}

// Distribution summarizes utilization ratios across every slot.
type Distribution struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Summarize computes the utilization distribution over the given slots.
func Summarize(utilization []Utilization) Distribution {
	if len(utilization) == 0 {
		return Distribution{}
	}

	ratios := make([]float64, 0, len(utilization))
	for _, u := range utilization {
		if math.IsInf(u.Ratio, 1) {
			continue
		}
		ratios = append(ratios, u.Ratio)
	}
	if len(ratios) == 0 {
		return Distribution{}
	}
	sort.Float64s(ratios)

	sum := 0.0
	for _, v := range ratios {
		sum += v
	}
	mean := sum / float64(len(ratios))

	variance := 0.0
	for _, v := range ratios {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(ratios))

	return Distribution{
		Mean:   mean,
		Median: percentile(ratios, 0.50),
		StdDev: math.Sqrt(variance),
		P95:    percentile(ratios, 0.95),
		Min:    ratios[0],
		Max:    ratios[len(ratios)-1],
		Count:  len(ratios),
	}
}

// percentile reads the pth percentile from an ascending-sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
