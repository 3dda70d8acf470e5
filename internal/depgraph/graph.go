// Package depgraph builds and analyzes the dependency graph of a set of
// work items: deduplication, cycle detection, and the critical path.
//
// A built Graph is immutable; all accessors are safe for concurrent reads.
package depgraph

import (
	"fmt"

	"github.com/railyardhq/railyard/internal/types"
)

// Cycle is one strongly connected knot of ordering dependencies.
type Cycle struct {
	Items       []string               `json:"items"` // member ids, representative loop first
	Edges       []types.DependencyEdge `json:"edges"` // declared edges internal to the knot
	Severity    types.CycleSeverity    `json:"severity"`
	Suggestions []string               `json:"suggestions,omitempty"`
}

// Graph is the analyzed dependency structure over a fixed item set.
type Graph struct {
	items map[string]types.WorkItem
	order []string // item ids in input order

	edges []types.DependencyEdge // deduplicated, all kinds

	prereqs    map[string][]string // requires/blocked_by targets per source
	dependents map[string][]string // mirror of prereqs

	// ordering digraph used for cycle analysis: prereqs plus blocks
	// edges folded in reversed (the blocked target waits on the source)
	waitsOn map[string][]string

	cycles       []Cycle
	inCycle      map[string]bool
	criticalPath []string

	warnings     []string
	droppedEdges int
}

// Build constructs the graph from items and declared edges. It never
// fails: edges referencing unknown items are dropped and recorded as
// warnings, and duplicate edges (same source and target) collapse to the
// highest-confidence declaration.
func Build(items []types.WorkItem, edges []types.DependencyEdge) *Graph {
	g := &Graph{
		items:      make(map[string]types.WorkItem, len(items)),
		order:      make([]string, 0, len(items)),
		prereqs:    make(map[string][]string),
		dependents: make(map[string][]string),
		waitsOn:    make(map[string][]string),
		inCycle:    make(map[string]bool),
	}

	for _, item := range items {
		if _, dup := g.items[item.ID]; dup {
			g.warnings = append(g.warnings, fmt.Sprintf("duplicate item id %s: keeping first declaration", item.ID))
			continue
		}
		g.items[item.ID] = item
		g.order = append(g.order, item.ID)
	}

	g.edges = g.dedupe(edges)

	for _, e := range g.edges {
		switch {
		case e.Kind.Ordering():
			g.prereqs[e.SourceID] = append(g.prereqs[e.SourceID], e.TargetID)
			g.dependents[e.TargetID] = append(g.dependents[e.TargetID], e.SourceID)
			g.waitsOn[e.SourceID] = append(g.waitsOn[e.SourceID], e.TargetID)
		case e.Kind == types.DepBlocks:
			// target waits on source
			g.waitsOn[e.TargetID] = append(g.waitsOn[e.TargetID], e.SourceID)
		}
	}

	g.detectCycles()
	g.computeCriticalPath()
	return g
}

// dedupe drops edges that reference unknown items and collapses
// duplicate (source, target) pairs, keeping the highest confidence.
// Earlier declarations win ties so output order tracks input order.
func (g *Graph) dedupe(edges []types.DependencyEdge) []types.DependencyEdge {
	type key struct{ src, dst string }
	seen := make(map[key]int) // key -> index into kept
	kept := make([]types.DependencyEdge, 0, len(edges))

	for _, e := range edges {
		if _, ok := g.items[e.SourceID]; !ok {
			g.droppedEdges++
			g.warnings = append(g.warnings, fmt.Sprintf("dropped edge %s -> %s (%s): unknown item %s", e.SourceID, e.TargetID, e.Kind, e.SourceID))
			continue
		}
		if _, ok := g.items[e.TargetID]; !ok {
			g.droppedEdges++
			g.warnings = append(g.warnings, fmt.Sprintf("dropped edge %s -> %s (%s): unknown item %s", e.SourceID, e.TargetID, e.Kind, e.TargetID))
			continue
		}

		k := key{e.SourceID, e.TargetID}
		if idx, ok := seen[k]; ok {
			if e.Confidence > kept[idx].Confidence {
				kept[idx] = e
			}
			continue
		}
		seen[k] = len(kept)
		kept = append(kept, e)
	}
	return kept
}

// Items returns the known work items in input order.
func (g *Graph) Items() []types.WorkItem {
	out := make([]types.WorkItem, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.items[id])
	}
	return out
}

// Item looks up a work item by id.
func (g *Graph) Item(id string) (types.WorkItem, bool) {
	item, ok := g.items[id]
	return item, ok
}

// Size returns the number of known items.
func (g *Graph) Size() int { return len(g.order) }

// Edges returns the deduplicated edges in input order.
func (g *Graph) Edges() []types.DependencyEdge {
	out := make([]types.DependencyEdge, len(g.edges))
	copy(out, g.edges)
	return out
}

// PrerequisitesOf returns the ids the given item must wait for before it
// can be scheduled (requires and blocked_by targets).
func (g *Graph) PrerequisitesOf(id string) []string {
	return append([]string(nil), g.prereqs[id]...)
}

// DependentsOf returns the ids that wait on the given item.
func (g *Graph) DependentsOf(id string) []string {
	return append([]string(nil), g.dependents[id]...)
}

// DependentCount returns how many items wait on the given item.
func (g *Graph) DependentCount(id string) int {
	return len(g.dependents[id])
}

// Cycles returns the detected dependency cycles.
func (g *Graph) Cycles() []Cycle {
	out := make([]Cycle, len(g.cycles))
	copy(out, g.cycles)
	return out
}

// HasCycles reports whether any dependency cycle was detected.
func (g *Graph) HasCycles() bool { return len(g.cycles) > 0 }

// InCycle reports whether the given item participates in a cycle.
func (g *Graph) InCycle(id string) bool { return g.inCycle[id] }

// CriticalPath returns the longest weighted dependency chain, ordered
// prerequisite first. Items inside cycles are excluded.
func (g *Graph) CriticalPath() []string {
	return append([]string(nil), g.criticalPath...)
}

// OnCriticalPath reports whether the given item sits on the critical path.
func (g *Graph) OnCriticalPath(id string) bool {
	for _, p := range g.criticalPath {
		if p == id {
			return true
		}
	}
	return false
}

// Warnings returns structural problems absorbed during the build.
func (g *Graph) Warnings() []string {
	return append([]string(nil), g.warnings...)
}

// DroppedEdgeCount returns how many declared edges referenced unknown items.
func (g *Graph) DroppedEdgeCount() int { return g.droppedEdges }
