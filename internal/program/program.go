// Package program loads program-increment documents: the YAML description
// of a planning horizon, the teams on the train, the work items, and the
// dependencies between them. Loading applies intake defaults and fails on
// referential problems; softer input issues (unknown edge endpoints,
// oversized stories) are left for the planning stages to report.
package program

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/railyardhq/railyard/internal/capacity"
	"github.com/railyardhq/railyard/internal/timeline"
	"github.com/railyardhq/railyard/internal/types"
)

// Increment is a fully resolved planning input: validated teams, items,
// and edges, plus the iteration timeline generated from the horizon.
type Increment struct {
	Name       string                 `json:"name"`
	Teams      []types.Team           `json:"teams"`
	Items      []types.WorkItem       `json:"items"`
	Edges      []types.DependencyEdge `json:"edges"`
	Iterations []types.Iteration      `json:"iterations"`
	Factors    capacity.Factors       `json:"factors"`
}

// Load reads and resolves a program document from disk.
func Load(path string) (*Increment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program document: %w", err)
	}
	inc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inc, nil
}

// Parse resolves a program document from raw YAML. Derating factors
// absent from the document keep their defaults, so a document may
// override a single factor without restating the rest.
func Parse(data []byte) (*Increment, error) {
	factors := capacity.DefaultFactors()
	doc := Document{Factors: &factors}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse program document: %w", err)
	}
	return resolve(&doc)
}

func resolve(doc *Document) (*Increment, error) {
	if strings.TrimSpace(doc.Name) == "" {
		return nil, fmt.Errorf("program document needs a name")
	}
	if len(doc.Teams) == 0 {
		return nil, fmt.Errorf("program document needs at least one team")
	}

	teams := make([]types.Team, 0, len(doc.Teams))
	teamIDs := make(map[string]bool, len(doc.Teams))
	for i := range doc.Teams {
		team := doc.Teams[i].resolve()
		if err := team.Validate(); err != nil {
			return nil, fmt.Errorf("team %d: %w", i+1, err)
		}
		if teamIDs[team.ID] {
			return nil, fmt.Errorf("duplicate team id %s", team.ID)
		}
		teamIDs[team.ID] = true
		teams = append(teams, team)
	}

	items := make([]types.WorkItem, 0, len(doc.Items))
	itemIDs := make(map[string]bool, len(doc.Items))
	for i := range doc.Items {
		item := doc.Items[i].resolve()
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if itemIDs[item.ID] {
			return nil, fmt.Errorf("duplicate work item id %s", item.ID)
		}
		itemIDs[item.ID] = true
		items = append(items, item)
	}

	for _, id := range doc.Horizon.Teams {
		if !teamIDs[id] {
			return nil, fmt.Errorf("horizon references unknown team %s", id)
		}
	}

	edges := make([]types.DependencyEdge, 0, len(doc.Edges))
	for i := range doc.Edges {
		edge := doc.Edges[i].resolve()
		if err := edge.Validate(); err != nil {
			return nil, fmt.Errorf("dependency %d: %w", i+1, err)
		}
		edges = append(edges, edge)
	}

	if doc.Factors == nil {
		factors := capacity.DefaultFactors()
		doc.Factors = &factors
	}
	if err := doc.Factors.Validate(); err != nil {
		return nil, fmt.Errorf("capacity factors: %w", err)
	}

	iterations, err := doc.Horizon.generate()
	if err != nil {
		return nil, err
	}

	return &Increment{
		Name:       doc.Name,
		Teams:      teams,
		Items:      items,
		Edges:      edges,
		Iterations: iterations,
		Factors:    *doc.Factors,
	}, nil
}

// generate slices the horizon into iterations. An end date and a fixed
// iteration count are mutually exclusive; with neither, the default
// horizon length applies.
func (h *Horizon) generate() ([]types.Iteration, error) {
	if strings.TrimSpace(h.Start) == "" {
		return nil, fmt.Errorf("horizon start is required (YYYY-MM-DD)")
	}
	start, err := parseDate(h.Start)
	if err != nil {
		return nil, fmt.Errorf("horizon start: %w", err)
	}
	if h.End != "" && h.Iterations > 0 {
		return nil, fmt.Errorf("horizon end and iteration count are mutually exclusive")
	}
	if h.End != "" {
		end, err := parseDate(h.End)
		if err != nil {
			return nil, fmt.Errorf("horizon end: %w", err)
		}
		return timeline.Generate(start, end, h.IterationDays, h.Teams)
	}
	return timeline.GenerateCount(start, h.Iterations, h.IterationDays, h.Teams)
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}
