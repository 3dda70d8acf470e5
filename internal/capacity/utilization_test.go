package capacity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railyardhq/railyard/internal/types"
)

func allocated(id, team string, iteration, points int) types.AllocatedWorkItem {
	return types.AllocatedWorkItem{
		Item:      types.WorkItem{ID: id, Type: types.TypeStory, Title: id, Points: points},
		TeamID:    team,
		Iteration: iteration,
		Points:    points,
	}
}

func TestUtilizationRatios(t *testing.T) {
	result, err := Compute(context.Background(), []types.Team{testTeam()}, testIterations(2), DefaultFactors())
	require.NoError(t, err)

	available, _ := result.Lookup("payments", 1)

	utilization := result.Utilization([]types.AllocatedWorkItem{
		allocated("a", "payments", 1, 5),
		allocated("b", "payments", 1, 3),
	})
	require.Len(t, utilization, 2)

	first := utilization[0]
	assert.Equal(t, 1, first.Iteration)
	assert.Equal(t, 8.0, first.Allocated)
	assert.InDelta(t, 8.0/available.Available, first.Ratio, 0.0001)

	second := utilization[1]
	assert.Equal(t, 2, second.Iteration)
	assert.Zero(t, second.Allocated)
	assert.False(t, second.OverAllocated)
}

func TestUtilizationFlagsOverAllocation(t *testing.T) {
	result, err := Compute(context.Background(), []types.Team{testTeam()}, testIterations(1), DefaultFactors())
	require.NoError(t, err)

	// Available is ~13.3; 13 points sits above the 0.85 ceiling.
	utilization := result.Utilization([]types.AllocatedWorkItem{
		allocated("a", "payments", 1, 13),
	})
	require.Len(t, utilization, 1)
	assert.True(t, utilization[0].OverAllocated)

	assert.Equal(t, []int{1}, OverAllocatedIterations(utilization))
}

func TestSummarize(t *testing.T) {
	utilization := []Utilization{
		{Ratio: 0.2},
		{Ratio: 0.4},
		{Ratio: 0.6},
		{Ratio: 0.8},
		{Ratio: 1.0},
	}

	dist := Summarize(utilization)
	assert.InDelta(t, 0.6, dist.Mean, 0.0001)
	assert.InDelta(t, 0.6, dist.Median, 0.0001)
	assert.InDelta(t, 0.2, dist.Min, 0.0001)
	assert.InDelta(t, 1.0, dist.Max, 0.0001)
	assert.Equal(t, 5, dist.Count)
	assert.Greater(t, dist.StdDev, 0.0)
	assert.Equal(t, 1.0, dist.P95)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Distribution{}, Summarize(nil))
}
