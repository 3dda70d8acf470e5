package depgraph

import (
	"fmt"
	"sort"

	"github.com/railyardhq/railyard/internal/types"
)

// detectCycles finds every knot of ordering dependencies. Kahn's
// algorithm peels the acyclic bulk first; strongly connected components
// of the residue are the actual cycles. Runs once at build time.
func (g *Graph) detectCycles() {
	residue := g.kahnResidue()
	if len(residue) == 0 {
		return
	}

	for _, component := range g.stronglyConnected(residue) {
		if len(component) < 2 {
			continue
		}
		g.cycles = append(g.cycles, g.describeCycle(component))
		for _, id := range component {
			g.inCycle[id] = true
		}
	}
}

// kahnResidue returns the nodes that never reach in-degree zero when
// repeatedly removing items with no unresolved prerequisites. The residue
// contains every cycle member (plus anything waiting on a cycle).
func (g *Graph) kahnResidue() map[string]bool {
	pending := make(map[string]int, len(g.order))
	for _, id := range g.order {
		pending[id] = len(g.waitsOn[id])
	}

	// reverse adjacency of waitsOn: prerequisite -> waiting nodes
	waiters := make(map[string][]string)
	for _, id := range g.order {
		for _, pre := range g.waitsOn[id] {
			waiters[pre] = append(waiters[pre], id)
		}
	}

	queue := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	removed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		removed++
		for _, w := range waiters[id] {
			pending[w]--
			if pending[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	if removed == len(g.order) {
		return nil
	}

	residue := make(map[string]bool)
	for id, n := range pending {
		if n > 0 {
			residue[id] = true
		}
	}
	return residue
}

// stronglyConnected runs Tarjan's algorithm over the residue subgraph.
// Components come back with members in input order, components ordered by
// their earliest member, so reports are stable across runs.
func (g *Graph) stronglyConnected(residue map[string]bool) [][]string {
	index := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	next := 0
	var components [][]string

	var strongconnect func(string)
	strongconnect = func(v string) {
		index[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.waitsOn[v] {
			if !residue[w] {
				continue
			}
			if _, seen := index[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var component []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			components = append(components, component)
		}
	}

	for _, id := range g.order {
		if residue[id] {
			if _, seen := index[id]; !seen {
				strongconnect(id)
			}
		}
	}

	inputPos := make(map[string]int, len(g.order))
	for i, id := range g.order {
		inputPos[id] = i
	}
	for _, c := range components {
		sort.Slice(c, func(i, j int) bool { return inputPos[c[i]] < inputPos[c[j]] })
	}
	sort.Slice(components, func(i, j int) bool {
		return inputPos[components[i][0]] < inputPos[components[j][0]]
	})
	return components
}

// describeCycle assembles the report for one component: a representative
// loop ordering, the internal edges, a severity grade, and resolutions.
func (g *Graph) describeCycle(component []string) Cycle {
	member := make(map[string]bool, len(component))
	for _, id := range component {
		member[id] = true
	}

	var edges []types.DependencyEdge
	for _, e := range g.edges {
		if !member[e.SourceID] || !member[e.TargetID] {
			continue
		}
		if e.Kind.Ordering() || e.Kind == types.DepBlocks {
			edges = append(edges, e)
		}
	}

	return Cycle{
		Items:       g.loopOrder(component, member),
		Edges:       edges,
		Severity:    cycleSeverity(edges),
		Suggestions: cycleSuggestions(component, edges),
	}
}

// loopOrder walks a representative loop through the component using DFS
// with a recursion stack, then appends any members off the loop. Every
// component member appears exactly once.
func (g *Graph) loopOrder(component []string, member map[string]bool) []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	var path []string
	var loop []string

	var dfs func(string) bool
	dfs = func(node string) bool {
		visited[node] = true
		recStack[node] = true
		path = append(path, node)

		for _, neighbor := range g.waitsOn[node] {
			if !member[neighbor] {
				continue
			}
			if !visited[neighbor] {
				if dfs(neighbor) {
					return true
				}
			} else if recStack[neighbor] {
				// Found the loop - keep the path from its first visit
				start := 0
				for i, p := range path {
					if p == neighbor {
						start = i
						break
					}
				}
				loop = append(loop, path[start:]...)
				return true
			}
		}

		recStack[node] = false
		path = path[:len(path)-1]
		return false
	}

	dfs(component[0])

	onLoop := make(map[string]bool, len(loop))
	for _, id := range loop {
		onLoop[id] = true
	}
	out := append([]string(nil), loop...)
	for _, id := range component {
		if !onLoop[id] {
			out = append(out, id)
		}
	}
	return out
}

// cycleSeverity grades a cycle: critical when any member edge is hard or
// a blocks declaration, warning when the knot spans more than two edges,
// info otherwise.
func cycleSeverity(edges []types.DependencyEdge) types.CycleSeverity {
	for _, e := range edges {
		if e.Strength == types.StrengthHard || e.Kind == types.DepBlocks {
			return types.CycleCritical
		}
	}
	if len(edges) > 2 {
		return types.CycleWarning
	}
	return types.CycleInfo
}

// cycleSuggestions proposes concrete ways to break the knot.
func cycleSuggestions(component []string, edges []types.DependencyEdge) []string {
	var out []string

	// The weakest declared edge is the cheapest one to cut.
	weakest := -1
	for i, e := range edges {
		if weakest == -1 || edgeWeight(e) < edgeWeight(edges[weakest]) {
			weakest = i
		}
	}
	if weakest >= 0 {
		e := edges[weakest]
		out = append(out, fmt.Sprintf("downgrade %s -> %s (%s, %s) to related to break the loop", e.SourceID, e.TargetID, e.Kind, e.Strength))
	}

	if len(component) == 2 {
		out = append(out, fmt.Sprintf("merge %s and %s if they describe one deliverable", component[0], component[1]))
	} else {
		out = append(out, fmt.Sprintf("split one of %d entangled items so the returning dependency lands in a later slice", len(component)))
	}
	return out
}

// edgeWeight orders edges from easiest to hardest to remove.
func edgeWeight(e types.DependencyEdge) float64 {
	w := e.Confidence
	switch e.Strength {
	case types.StrengthHard:
		w += 2
	case types.StrengthSoft:
		w += 1
	}
	return w
}
