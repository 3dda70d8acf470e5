package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railyardhq/railyard/internal/capacity"
	"github.com/railyardhq/railyard/internal/types"
)

func TestLoad_ResolvesDocument(t *testing.T) {
	doc := `
name: PI-2026.2
horizon:
  start: 2026-03-02
  end: 2026-04-13
  iteration_days: 14
teams:
  - id: alpha
    name: Alpha
    velocity: 28
    members: 6
  - id: bravo
    velocity: 21
    capacity_factor: 0.8
items:
  - id: ry-1
    title: Login page polish
    points: 5
    acceptance_criteria: Renders on mobile
  - id: ry-2
    type: enabler
    title: Schema migration
dependencies:
  - source: ry-1
    target: ry-2
    strength: soft
    confidence: 0.7
`
	path := filepath.Join(t.TempDir(), "pi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	inc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "PI-2026.2", inc.Name)

	require.Len(t, inc.Teams, 2)
	assert.Equal(t, "Alpha", inc.Teams[0].Name)
	assert.Equal(t, 1.0, inc.Teams[0].CapacityFactor)
	assert.Equal(t, "bravo", inc.Teams[1].Name) // name falls back to id
	assert.Equal(t, DefaultTeamMembers, inc.Teams[1].Members)

	require.Len(t, inc.Items, 2)
	assert.Equal(t, types.TypeStory, inc.Items[0].Type)
	assert.Equal(t, 5, inc.Items[0].Points)
	assert.Equal(t, types.TypeEnabler, inc.Items[1].Type)
	assert.Equal(t, types.DefaultPoints, inc.Items[1].Points)

	require.Len(t, inc.Edges, 1)
	assert.Equal(t, types.DepRequires, inc.Edges[0].Kind)
	assert.Equal(t, types.StrengthSoft, inc.Edges[0].Strength)
	assert.InDelta(t, 0.7, inc.Edges[0].Confidence, 1e-9)

	require.Len(t, inc.Iterations, 3)
	assert.Equal(t, 14, inc.Iterations[0].Days)
	assert.Equal(t, capacity.DefaultFactors(), inc.Factors)
}

func TestParse_IterationCountHorizon(t *testing.T) {
	doc := `
name: PI-2026.3
horizon:
  start: 2026-06-01
  iterations: 4
  iteration_days: 7
  teams: [alpha]
teams:
  - id: alpha
    velocity: 20
`
	inc, err := Parse([]byte(doc))
	require.NoError(t, err)

	require.Len(t, inc.Iterations, 4)
	assert.Equal(t, 2, inc.Iterations[1].Number)
	assert.Equal(t, 7, inc.Iterations[1].Days)
	assert.Equal(t, []string{"alpha"}, inc.Iterations[0].Teams)
}

func TestParse_DefaultHorizonLength(t *testing.T) {
	doc := `
name: PI
horizon:
  start: 2026-06-01
teams:
  - id: alpha
    velocity: 20
`
	inc, err := Parse([]byte(doc))
	require.NoError(t, err)

	require.Len(t, inc.Iterations, 5)
	assert.Equal(t, 14, inc.Iterations[4].Days)
}

func TestParse_FactorsOverride(t *testing.T) {
	doc := `
name: PI
horizon:
  start: 2026-03-02
  iterations: 2
teams:
  - id: alpha
    velocity: 20
factors:
  max_utilization: 0.7
  buffer: 0.2
`
	inc, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.InDelta(t, 0.7, inc.Factors.MaxUtilization, 1e-9)
	assert.InDelta(t, 0.2, inc.Factors.Buffer, 1e-9)
	// factors absent from the document keep their defaults
	assert.InDelta(t, capacity.DefaultFactors().Focus, inc.Factors.Focus, 1e-9)
}

func TestParse_UnknownEdgeEndpointsSurviveIntake(t *testing.T) {
	// Endpoints outside the item set are dropped by the graph stage with
	// a warning, not rejected at intake.
	doc := `
name: PI
horizon:
  start: 2026-03-02
  iterations: 2
teams:
  - id: alpha
    velocity: 20
items:
  - id: ry-1
    title: Login page polish
dependencies:
  - source: ry-1
    target: ghost
`
	inc, err := Parse([]byte(doc))
	require.NoError(t, err)

	require.Len(t, inc.Edges, 1)
	assert.Equal(t, types.DepRequires, inc.Edges[0].Kind)
	assert.Equal(t, types.StrengthHard, inc.Edges[0].Strength)
	assert.InDelta(t, 1.0, inc.Edges[0].Confidence, 1e-9)
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing name",
			doc: `
horizon: {start: 2026-03-02, iterations: 2}
teams: [{id: alpha, velocity: 20}]
`,
			want: "needs a name",
		},
		{
			name: "no teams",
			doc: `
name: PI
horizon: {start: 2026-03-02, iterations: 2}
`,
			want: "at least one team",
		},
		{
			name: "zero velocity",
			doc: `
name: PI
horizon: {start: 2026-03-02, iterations: 2}
teams: [{id: alpha}]
`,
			want: "velocity must be positive",
		},
		{
			name: "duplicate team id",
			doc: `
name: PI
horizon: {start: 2026-03-02, iterations: 2}
teams:
  - {id: alpha, velocity: 20}
  - {id: alpha, velocity: 10}
`,
			want: "duplicate team id",
		},
		{
			name: "duplicate item id",
			doc: `
name: PI
horizon: {start: 2026-03-02, iterations: 2}
teams: [{id: alpha, velocity: 20}]
items:
  - {id: ry-1, title: First}
  - {id: ry-1, title: Second}
`,
			want: "duplicate work item id",
		},
		{
			name: "unknown horizon team",
			doc: `
name: PI
horizon: {start: 2026-03-02, iterations: 2, teams: [ghost]}
teams: [{id: alpha, velocity: 20}]
`,
			want: "unknown team ghost",
		},
		{
			name: "bad edge kind",
			doc: `
name: PI
horizon: {start: 2026-03-02, iterations: 2}
teams: [{id: alpha, velocity: 20}]
dependencies: [{source: a, target: b, kind: sorta}]
`,
			want: "invalid dependency kind",
		},
		{
			name: "self edge",
			doc: `
name: PI
horizon: {start: 2026-03-02, iterations: 2}
teams: [{id: alpha, velocity: 20}]
dependencies: [{source: a, target: a}]
`,
			want: "its own source",
		},
		{
			name: "bad factors",
			doc: `
name: PI
horizon: {start: 2026-03-02, iterations: 2}
teams: [{id: alpha, velocity: 20}]
factors: {max_utilization: 1.5}
`,
			want: "max utilization",
		},
		{
			name: "end and count both set",
			doc: `
name: PI
horizon: {start: 2026-03-02, end: 2026-04-13, iterations: 3}
teams: [{id: alpha, velocity: 20}]
`,
			want: "mutually exclusive",
		},
		{
			name: "missing start",
			doc: `
name: PI
horizon: {iterations: 2}
teams: [{id: alpha, velocity: 20}]
`,
			want: "horizon start is required",
		},
		{
			name: "bad start date",
			doc: `
name: PI
horizon: {start: next-tuesday, iterations: 2}
teams: [{id: alpha, velocity: 20}]
`,
			want: "invalid date",
		},
		{
			name: "end before start",
			doc: `
name: PI
horizon: {start: 2026-03-02, end: 2026-02-01}
teams: [{id: alpha, velocity: 20}]
`,
			want: "must be after start",
		},
		{
			name: "negative points",
			doc: `
name: PI
horizon: {start: 2026-03-02, iterations: 2}
teams: [{id: alpha, velocity: 20}]
items: [{id: ry-1, title: Login, points: -2}]
`,
			want: "points cannot be negative",
		},
		{
			name: "malformed yaml",
			doc:  "{{",
			want: "failed to parse program document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read program document")
}
