package capacity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railyardhq/railyard/internal/types"
)

func testTeam() types.Team {
	return types.Team{
		ID:              "payments",
		Name:            "Payments",
		AverageVelocity: 30,
		CapacityFactor:  0.85,
		Members:         7,
		Specialties:     []string{"backend"},
	}
}

func testIterations(n int) []types.Iteration {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	out := make([]types.Iteration, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, types.Iteration{
			ID:     "it",
			Number: i + 1,
			Start:  start.AddDate(0, 0, i*14),
			End:    start.AddDate(0, 0, (i+1)*14),
			Days:   14,
		})
	}
	return out
}

func TestComputeDeratingChain(t *testing.T) {
	result, err := Compute(context.Background(), []types.Team{testTeam()}, testIterations(1), DefaultFactors())
	require.NoError(t, err)

	entry, ok := result.Lookup("payments", 1)
	require.True(t, ok)

	// 30 * 0.85 * (14/14) * 0.95 * 0.90 * 0.85 * 0.80 * (1 - 0.10)
	assert.InDelta(t, 13.343, entry.Available, 0.001)
	assert.Equal(t, 30.0, entry.Velocity)
	assert.Equal(t, 7, entry.Members)
}

func TestComputeScalesTruncatedIterations(t *testing.T) {
	iterations := testIterations(2)
	iterations[1].Days = 7 // horizon cut the final iteration short

	result, err := Compute(context.Background(), []types.Team{testTeam()}, iterations, DefaultFactors())
	require.NoError(t, err)

	full, ok := result.Lookup("payments", 1)
	require.True(t, ok)
	half, ok := result.Lookup("payments", 2)
	require.True(t, ok)

	assert.InDelta(t, full.Available/2, half.Available, 0.001)
}

func TestComputeRespectsEligibility(t *testing.T) {
	iterations := testIterations(2)
	iterations[0].Teams = []string{"platform"}

	platform := testTeam()
	platform.ID = "platform"

	result, err := Compute(context.Background(), []types.Team{testTeam(), platform}, iterations, DefaultFactors())
	require.NoError(t, err)

	_, ok := result.Lookup("payments", 1)
	assert.False(t, ok, "payments is not eligible for iteration 1")
	_, ok = result.Lookup("payments", 2)
	assert.True(t, ok)
	_, ok = result.Lookup("platform", 1)
	assert.True(t, ok)

	assert.Len(t, result.ForIteration(1), 1)
	assert.Len(t, result.ForIteration(2), 2)
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	iterations := testIterations(1)

	tests := []struct {
		name    string
		mutate  func(*types.Team, *Factors)
		wantErr string
	}{
		{
			name:    "zero velocity",
			mutate:  func(tm *types.Team, _ *Factors) { tm.AverageVelocity = 0 },
			wantErr: "velocity",
		},
		{
			name:    "capacity factor above one",
			mutate:  func(tm *types.Team, _ *Factors) { tm.CapacityFactor = 1.2 },
			wantErr: "capacity factor",
		},
		{
			name:    "zero members",
			mutate:  func(tm *types.Team, _ *Factors) { tm.Members = 0 },
			wantErr: "members",
		},
		{
			name:    "buffer at one",
			mutate:  func(_ *types.Team, f *Factors) { f.Buffer = 1.0 },
			wantErr: "buffer",
		},
		{
			name:    "zero ceiling",
			mutate:  func(_ *types.Team, f *Factors) { f.MaxUtilization = 0 },
			wantErr: "max utilization",
		},
		{
			name:    "negative focus",
			mutate:  func(_ *types.Team, f *Factors) { f.Focus = -0.5 },
			wantErr: "focus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team := testTeam()
			factors := DefaultFactors()
			tt.mutate(&team, &factors)

			_, err := Compute(context.Background(), []types.Team{team}, iterations, factors)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestComputeRejectsDuplicateTeams(t *testing.T) {
	_, err := Compute(context.Background(), []types.Team{testTeam(), testTeam()}, testIterations(1), DefaultFactors())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate team")
}

func TestComputeRejectsEmptyPlan(t *testing.T) {
	_, err := Compute(context.Background(), nil, testIterations(1), DefaultFactors())
	assert.Error(t, err)

	_, err = Compute(context.Background(), []types.Team{testTeam()}, nil, DefaultFactors())
	assert.Error(t, err)
}

func TestTeamConfidencePenalties(t *testing.T) {
	tests := []struct {
		name string
		team types.Team
		want float64
	}{
		{
			name: "healthy team",
			team: types.Team{ID: "a", AverageVelocity: 30, CapacityFactor: 0.85, Members: 7, Specialties: []string{"backend"}},
			want: 0.9,
		},
		{
			name: "very small team",
			team: types.Team{ID: "b", AverageVelocity: 30, CapacityFactor: 0.85, Members: 3, Specialties: []string{"backend"}},
			want: 0.7,
		},
		{
			name: "very large team",
			team: types.Team{ID: "c", AverageVelocity: 30, CapacityFactor: 0.85, Members: 14, Specialties: []string{"backend"}},
			want: 0.8,
		},
		{
			name: "no specialties",
			team: types.Team{ID: "d", AverageVelocity: 30, CapacityFactor: 0.85, Members: 7},
			want: 0.8,
		},
		{
			name: "low velocity",
			team: types.Team{ID: "e", AverageVelocity: 8, CapacityFactor: 0.85, Members: 7, Specialties: []string{"backend"}},
			want: 0.75,
		},
		{
			name: "everything stacked",
			team: types.Team{ID: "f", AverageVelocity: 8, CapacityFactor: 0.85, Members: 2},
			want: 0.45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, teamConfidence(tt.team), 0.0001)
		})
	}
}

func TestComputeDeterminism(t *testing.T) {
	teams := []types.Team{testTeam()}
	second := testTeam()
	second.ID = "platform"
	second.AverageVelocity = 22
	teams = append(teams, second)

	a, err := Compute(context.Background(), teams, testIterations(3), DefaultFactors())
	require.NoError(t, err)
	b, err := Compute(context.Background(), teams, testIterations(3), DefaultFactors())
	require.NoError(t, err)

	assert.Equal(t, a.TotalAvailable(), b.TotalAvailable())
	for it := 1; it <= 3; it++ {
		assert.Equal(t, a.ForIteration(it), b.ForIteration(it))
	}
}
