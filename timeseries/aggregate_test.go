package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2021, time.May, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregateCountsTwoStage(t *testing.T) {
	// User u1 calls three times in one day, u2 once. The per-user mean is
	// taken first, so u1's volume does not drag the daily average around.
	samples := []Sample{
		{UserID: "u1", Category: "NonTollFree", Date: day(1), Values: map[string]float64{"avg_duration": 10}, Count: 1},
		{UserID: "u1", Category: "NonTollFree", Date: day(1), Values: map[string]float64{"avg_duration": 20}, Count: 1},
		{UserID: "u1", Category: "NonTollFree", Date: day(1), Values: map[string]float64{"avg_duration": 30}, Count: 1},
		{UserID: "u2", Category: "NonTollFree", Date: day(1), Values: map[string]float64{"avg_duration": 100}, Count: 1},
	}

	out := AggregateCounts(samples)
	require.Len(t, out, 1)

	// mean(mean(10,20,30), 100) = mean(20, 100) = 60, not the naive 40.
	assert.Equal(t, "NonTollFree", out[0].Category)
	assert.InDelta(t, 60, out[0].Values["avg_duration"], 1e-9)
	assert.InDelta(t, 2, out[0].Count, 1e-9) // one unit per user-day
	assert.Empty(t, out[0].UserID)
}

func TestAggregateCountsSortsByDateThenCategory(t *testing.T) {
	samples := []Sample{
		{UserID: "u1", Category: "B", Date: day(2), Count: 1},
		{UserID: "u2", Category: "A", Date: day(2), Count: 1},
		{UserID: "u3", Category: "A", Date: day(1), Count: 1},
	}

	out := AggregateCounts(samples)
	require.Len(t, out, 3)
	assert.Equal(t, day(1), out[0].Date)
	assert.Equal(t, "A", out[1].Category)
	assert.Equal(t, "B", out[2].Category)
}

func TestAggregateCountsIdempotent(t *testing.T) {
	samples := []Sample{
		{UserID: "u1", Category: "X", Date: day(1), Values: map[string]float64{"avg_duration": 10}, Count: 1},
		{UserID: "u2", Category: "X", Date: day(1), Values: map[string]float64{"avg_duration": 30}, Count: 1},
		{UserID: "u1", Category: "Y", Date: day(2), Values: map[string]float64{"avg_duration": 50}, Count: 1},
		{UserID: "u3", Category: "X", Date: day(2), Values: map[string]float64{"avg_duration": 70}, Count: 1},
	}

	once := AggregateCounts(samples)
	twice := AggregateCounts(once)
	assert.Equal(t, once, twice)
}

func TestRollingMeanBoundary(t *testing.T) {
	// Fewer observations than the window: every position stays missing,
	// never a partial-window average.
	out := RollingMean([]float64{1, 2, 3}, DefaultWindow)
	require.Len(t, out, 3)
	for _, v := range out {
		assert.Nil(t, v)
	}
}

func TestRollingMeanTrailing(t *testing.T) {
	out := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, out, 5)
	assert.Nil(t, out[0])
	assert.Nil(t, out[1])
	require.NotNil(t, out[2])
	assert.InDelta(t, 2, *out[2], 1e-9)
	require.NotNil(t, out[4])
	assert.InDelta(t, 4, *out[4], 1e-9)
}

func TestRollingMeanExactWindow(t *testing.T) {
	values := make([]float64, DefaultWindow)
	for i := range values {
		values[i] = float64(i + 1)
	}

	out := RollingMean(values, DefaultWindow)
	for i := 0; i < DefaultWindow-1; i++ {
		assert.Nil(t, out[i])
	}
	require.NotNil(t, out[DefaultWindow-1])
	assert.InDelta(t, 7.5, *out[DefaultWindow-1], 1e-9)
}
