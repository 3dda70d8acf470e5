package program

import (
	"github.com/railyardhq/railyard/internal/capacity"
	"github.com/railyardhq/railyard/internal/types"
)

// DefaultTeamMembers is assumed when a team arrives without a headcount.
// Members only weight confidence, never capacity, so the assumption is
// safe for planning math.
const DefaultTeamMembers = 5

// Document is the YAML shape of a program-increment file.
type Document struct {
	Name    string            `yaml:"name"`
	Horizon Horizon           `yaml:"horizon"`
	Teams   []TeamSpec        `yaml:"teams"`
	Items   []ItemSpec        `yaml:"items"`
	Edges   []EdgeSpec        `yaml:"dependencies"`
	Factors *capacity.Factors `yaml:"factors"`
}

// Horizon describes the planning window. Give an end date or an iteration
// count, not both. An optional team list restricts every iteration to the
// named teams; empty admits all.
type Horizon struct {
	Start         string   `yaml:"start"`
	End           string   `yaml:"end"`
	Iterations    int      `yaml:"iterations"`
	IterationDays int      `yaml:"iteration_days"`
	Teams         []string `yaml:"teams"`
}

// TeamSpec is the document form of a delivery team.
type TeamSpec struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Velocity       float64  `yaml:"velocity"`
	CapacityFactor float64  `yaml:"capacity_factor"`
	Members        int      `yaml:"members"`
	Specialties    []string `yaml:"specialties"`
}

func (t *TeamSpec) resolve() types.Team {
	team := types.Team{
		ID:              t.ID,
		Name:            t.Name,
		AverageVelocity: t.Velocity,
		CapacityFactor:  t.CapacityFactor,
		Members:         t.Members,
		Specialties:     t.Specialties,
	}
	if team.Name == "" {
		team.Name = team.ID
	}
	if team.CapacityFactor == 0 {
		team.CapacityFactor = 1.0
	}
	if team.Members <= 0 {
		team.Members = DefaultTeamMembers
	}
	return team
}

// ItemSpec is the document form of a work item. Type defaults to story
// and a missing estimate defaults to the standard point count.
type ItemSpec struct {
	ID                 string   `yaml:"id"`
	Type               string   `yaml:"type"`
	Title              string   `yaml:"title"`
	Description        string   `yaml:"description"`
	Points             int      `yaml:"points"`
	Priority           int      `yaml:"priority"`
	Parent             string   `yaml:"parent"`
	AcceptanceCriteria string   `yaml:"acceptance_criteria"`
	Tags               []string `yaml:"tags"`
}

func (i *ItemSpec) resolve() types.WorkItem {
	item := types.WorkItem{
		ID:                 i.ID,
		Type:               types.WorkItemType(i.Type),
		Title:              i.Title,
		Description:        i.Description,
		Points:             i.Points,
		Priority:           i.Priority,
		ParentID:           i.Parent,
		AcceptanceCriteria: i.AcceptanceCriteria,
		Tags:               i.Tags,
	}
	if item.Type == "" {
		item.Type = types.TypeStory
	}
	if item.Points == 0 {
		item.Points = types.DefaultPoints
	}
	return item
}

// EdgeSpec is the document form of a dependency. Kind defaults to
// requires, strength to hard, confidence to certain; mark a guessed edge
// with a small confidence rather than zero.
type EdgeSpec struct {
	Source     string  `yaml:"source"`
	Target     string  `yaml:"target"`
	Kind       string  `yaml:"kind"`
	Strength   string  `yaml:"strength"`
	Confidence float64 `yaml:"confidence"`
	Detail     string  `yaml:"detail"`
}

func (e *EdgeSpec) resolve() types.DependencyEdge {
	edge := types.DependencyEdge{
		SourceID:   e.Source,
		TargetID:   e.Target,
		Kind:       types.DependencyKind(e.Kind),
		Strength:   types.EdgeStrength(e.Strength),
		Confidence: e.Confidence,
		Detail:     e.Detail,
	}
	if edge.Kind == "" {
		edge.Kind = types.DepRequires
	}
	if edge.Strength == "" {
		edge.Strength = types.StrengthHard
	}
	if edge.Confidence == 0 {
		edge.Confidence = 1.0
	}
	return edge
}
