package optimizer

import (
	"fmt"
	"sort"

	"github.com/railyardhq/railyard/internal/readiness"
)

// smoothValue moves user-valuable stories out of iterations holding two
// or more into iterations delivering none, until every iteration
// delivers or the budget runs out.
func (p *workingPlan) smoothValue(budget int) []Change {
	var changes []Change
	for len(changes) < budget {
		idx, to, ok := p.nextValueMove()
		if !ok {
			break
		}
		a := p.allocated[idx]
		from := a.Iteration
		p.move(idx, to)
		changes = append(changes, Change{
			Kind:          KindValueSmoothing,
			ItemID:        a.Item.ID,
			TeamID:        a.TeamID,
			FromIteration: from,
			ToIteration:   to,
			Description:   fmt.Sprintf("move %s from iteration %d to %d so iteration %d delivers user value", a.Item.ID, from, to, to),
		})
	}
	return changes
}

// nextValueMove finds the first feasible (receiver, donor, story) triple:
// receivers scan the horizon in order, donors give up their surplus
// richest first.
func (p *workingPlan) nextValueMove() (idx, to int, ok bool) {
	counts := p.valuableByIteration()

	var donors []int
	for _, it := range p.snapshot.Iterations {
		if counts[it.Number] >= 2 {
			donors = append(donors, it.Number)
		}
	}
	if len(donors) == 0 {
		return 0, 0, false
	}
	sort.SliceStable(donors, func(i, j int) bool {
		if counts[donors[i]] != counts[donors[j]] {
			return counts[donors[i]] > counts[donors[j]]
		}
		return donors[i] < donors[j]
	})

	for _, it := range p.snapshot.Iterations {
		if counts[it.Number] != 0 {
			continue
		}
		receiver := it.Number
		for _, donor := range donors {
			if donor == receiver {
				continue
			}
			if idx, found := p.pickValueStory(donor, receiver); found {
				return idx, receiver, true
			}
		}
	}
	return 0, 0, false
}

// pickValueStory selects the least entangled user-valuable story in the
// donor iteration that can legally land in the receiver: every allocated
// prerequisite strictly earlier, every allocated dependent strictly
// later, and the story's team under its ceiling there.
func (p *workingPlan) pickValueStory(donor, receiver int) (int, bool) {
	var candidates []int
	for i, a := range p.allocated {
		if a.Iteration != donor || !readiness.UserValuable(a.Item, p.classifier) {
			continue
		}
		candidates = append(candidates, i)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := p.allocated[candidates[i]], p.allocated[candidates[j]]
		da, db := p.snapshot.Graph.DependentCount(a.Item.ID), p.snapshot.Graph.DependentCount(b.Item.ID)
		if da != db {
			return da < db
		}
		return a.Item.ID < b.Item.ID
	})

	for _, idx := range candidates {
		a := p.allocated[idx]
		if !p.ordersCleanly(a.Item.ID, receiver) {
			continue
		}
		if !p.fits(a.TeamID, receiver, float64(a.Points)) {
			continue
		}
		return idx, true
	}
	return 0, false
}

// ordersCleanly reports whether the item can sit in the iteration with
// every allocated prerequisite strictly earlier and every allocated
// dependent strictly later. Unplaced prerequisites disqualify the move.
func (p *workingPlan) ordersCleanly(id string, iteration int) bool {
	for _, pre := range p.snapshot.Graph.PrerequisitesOf(id) {
		at, placed := p.iterationOf(pre)
		if !placed || at >= iteration {
			return false
		}
	}
	for _, dep := range p.snapshot.Graph.DependentsOf(id) {
		if at, placed := p.iterationOf(dep); placed && at <= iteration {
			return false
		}
	}
	return true
}

func (p *workingPlan) iterationOf(id string) (int, bool) {
	for _, a := range p.allocated {
		if a.Item.ID == id {
			return a.Iteration, true
		}
	}
	return 0, false
}

// relieveOverload defers items out of over-allocated slots into the
// following iteration until nothing is over or the budget runs out.
func (p *workingPlan) relieveOverload(budget int) []Change {
	var changes []Change
	for len(changes) < budget {
		idx, ok := p.nextDeferral()
		if !ok {
			break
		}
		a := p.allocated[idx]
		from := a.Iteration
		p.move(idx, from+1)
		changes = append(changes, Change{
			Kind:          KindOverloadRelief,
			ItemID:        a.Item.ID,
			TeamID:        a.TeamID,
			FromIteration: from,
			ToIteration:   from + 1,
			Description:   fmt.Sprintf("defer %s to iteration %d to relieve team %s in iteration %d", a.Item.ID, from+1, a.TeamID, from),
		})
	}
	return changes
}

// nextDeferral scans over-allocated slots in iteration then team order
// and returns the first deferrable item.
func (p *workingPlan) nextDeferral() (int, bool) {
	ceiling := p.snapshot.Capacities.Factors().MaxUtilization
	for _, it := range p.snapshot.Iterations {
		if it.Number >= p.lastNumber {
			continue // nothing after the final iteration to defer into
		}
		for _, entry := range p.snapshot.Capacities.ForIteration(it.Number) {
			if p.used[entry.TeamID][it.Number] <= entry.Available*ceiling+1e-9 {
				continue
			}
			if idx, ok := p.pickDeferral(entry.TeamID, it.Number); ok {
				return idx, true
			}
		}
	}
	return 0, false
}

// pickDeferral selects the lowest-priority item nothing depends on,
// heaviest first so one move relieves the most, that fits the team's
// next iteration.
func (p *workingPlan) pickDeferral(teamID string, iteration int) (int, bool) {
	var candidates []int
	for i, a := range p.allocated {
		if a.TeamID != teamID || a.Iteration != iteration || a.Points <= 0 {
			continue
		}
		if p.snapshot.Graph.DependentCount(a.Item.ID) > 0 {
			continue
		}
		candidates = append(candidates, i)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := p.allocated[candidates[i]], p.allocated[candidates[j]]
		pa, pb := deferRank(a.Item.Priority), deferRank(b.Item.Priority)
		if pa != pb {
			return pa > pb
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.Item.ID < b.Item.ID
	})

	for _, idx := range candidates {
		a := p.allocated[idx]
		if p.fits(a.TeamID, iteration+1, float64(a.Points)) {
			return idx, true
		}
	}
	return 0, false
}

// deferRank orders items for deferral; undeclared priority defers first.
func deferRank(priority int) int {
	if priority == 0 {
		return 6
	}
	return priority
}
