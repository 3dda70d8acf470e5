package depgraph

// computeCriticalPath finds the longest weighted chain of ordering
// dependencies, weighting each node by its story points. Items caught in
// cycles are left out entirely so the walk stays on a DAG. Runs once at
// build time, after cycle detection.
func (g *Graph) computeCriticalPath() {
	free := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if !g.inCycle[id] {
			free = append(free, id)
		}
	}
	if len(free) == 0 {
		return
	}

	// pending counts each node's cycle-free prerequisites; Kahn order
	// guarantees prerequisites are scored before their dependents.
	pending := make(map[string]int, len(free))
	waiters := make(map[string][]string)
	for _, id := range free {
		n := 0
		for _, pre := range g.waitsOn[id] {
			if g.inCycle[pre] {
				continue
			}
			n++
			waiters[pre] = append(waiters[pre], id)
		}
		pending[id] = n
	}

	queue := make([]string, 0, len(free))
	for _, id := range free {
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	score := make(map[string]int, len(free))
	best := make(map[string]string, len(free))
	order := make([]string, 0, len(free))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		s := g.items[id].Points
		for _, pre := range g.waitsOn[id] {
			if g.inCycle[pre] {
				continue
			}
			if score[pre]+g.items[id].Points > s {
				s = score[pre] + g.items[id].Points
				best[id] = pre
			}
		}
		score[id] = s

		for _, w := range waiters[id] {
			pending[w]--
			if pending[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	var end string
	for _, id := range order {
		if end == "" || score[id] > score[end] {
			end = id
		}
	}
	if end == "" {
		return
	}

	var reversed []string
	for id := end; id != ""; id = best[id] {
		reversed = append(reversed, id)
	}
	path := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	g.criticalPath = path
}
