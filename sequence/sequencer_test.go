package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartflow/api/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ev(user, step string, ts time.Time, tollFree string) models.FlowEvent {
	return models.FlowEvent{
		UserID:            user,
		SessionID:         user + "-s1",
		TimeEvent:         ts,
		Step:              step,
		TollFree:          tollFree,
		SessionDurationMs: 1000,
	}
}

// walk emits one event per step for a user, one minute apart, starting at
// 9am on the given day.
func walk(user string, day time.Time, tollFree string, steps ...string) []models.FlowEvent {
	events := make([]models.FlowEvent, 0, len(steps))
	at := day.Add(9 * time.Hour)
	for i, step := range steps {
		events = append(events, ev(user, step, at.Add(time.Duration(i)*time.Minute), tollFree))
	}
	return events
}

func testMaster() []models.FlowEvent {
	var master []models.FlowEvent
	master = append(master, walk("a", date(2021, 1, 10), models.CategoryNonTollFree, "Start", "Menu", "Agent")...)
	master = append(master, walk("b", date(2021, 1, 11), models.CategoryNonTollFree, "Start", "Menu", "Agent")...)
	master = append(master, walk("c", date(2021, 1, 12), models.CategoryTollFree, "Start", "Hangup")...)
	return master
}

func TestDeriveRanksPathsByFrequency(t *testing.T) {
	seq, err := Derive(testMaster(), date(2021, 1, 1), date(2021, 2, 1), true)
	require.NoError(t, err)
	require.Len(t, seq.Rows, 8)

	// Two users share Start > Menu > Agent, so it takes rank 1.
	assert.Equal(t, []string{"Start", "Menu", "Agent"}, seq.Paths["1-Path_Freq_Rank"])
	assert.Equal(t, []string{"Start", "Hangup"}, seq.Paths["2-Path_Freq_Rank"])

	for _, r := range seq.Rows {
		switch r.UserID {
		case "a", "b":
			assert.Equal(t, "1-Path_Freq_Rank", r.PathNickname)
		case "c":
			assert.Equal(t, "2-Path_Freq_Rank", r.PathNickname)
		}
	}
}

func TestDeriveStrictBounds(t *testing.T) {
	day := date(2021, 3, 5)
	master := []models.FlowEvent{
		ev("a", "Start", day, models.CategoryNonTollFree),                     // exactly at the lower bound
		ev("b", "Start", day.Add(time.Minute), models.CategoryNonTollFree),    // inside
		ev("c", "Start", date(2021, 3, 6), models.CategoryNonTollFree),        // exactly at the upper bound
		ev("d", "Start", date(2021, 3, 6).Add(time.Hour), models.CategoryNonTollFree), // past the window
	}

	seq, err := Derive(master, day, date(2021, 3, 6), true)
	require.NoError(t, err)
	require.Len(t, seq.Rows, 1)
	assert.Equal(t, "b", seq.Rows[0].UserID)
}

func TestDeriveTollFreeToggleShrinks(t *testing.T) {
	master := testMaster()
	withTollFree, err := Derive(master, date(2021, 1, 1), date(2021, 2, 1), true)
	require.NoError(t, err)
	withoutTollFree, err := Derive(master, date(2021, 1, 1), date(2021, 2, 1), false)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(withoutTollFree.Rows), len(withTollFree.Rows))
	for _, r := range withoutTollFree.Rows {
		assert.Equal(t, models.CategoryNonTollFree, r.TollFree)
	}
}

func TestDeriveInvalidDateRange(t *testing.T) {
	_, err := Derive(testMaster(), date(2021, 2, 1), date(2021, 1, 1), true)
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)
}

func TestDeriveDoesNotMutateMaster(t *testing.T) {
	master := testMaster()
	before := make([]models.FlowEvent, len(master))
	copy(before, master)

	_, err := Derive(master, date(2021, 1, 1), date(2021, 2, 1), false)
	require.NoError(t, err)
	assert.Equal(t, before, master)
}

func TestPercentileDateEndpoints(t *testing.T) {
	master := testMaster()

	start, err := PercentileDate(master, 0)
	require.NoError(t, err)
	assert.Equal(t, date(2021, 1, 10), start)

	end, err := PercentileDate(master, 100)
	require.NoError(t, err)
	assert.Equal(t, date(2021, 1, 12), end)
}

func TestPercentileDateMidpoint(t *testing.T) {
	master := []models.FlowEvent{
		ev("a", "Start", date(2020, 1, 1), models.CategoryNonTollFree),
		ev("b", "Start", date(2020, 12, 31), models.CategoryNonTollFree),
	}

	mid, err := PercentileDate(master, 50)
	require.NoError(t, err)
	assert.InDelta(t, float64(date(2020, 7, 1).Unix()), float64(mid.Unix()), float64((24 * time.Hour).Seconds()))
}

func TestPercentileDateValidation(t *testing.T) {
	master := testMaster()

	_, err := PercentileDate(master, -1)
	assert.ErrorIs(t, err, models.ErrInvalidPercentage)

	_, err = PercentileDate(master, 101)
	assert.ErrorIs(t, err, models.ErrInvalidPercentage)

	_, err = PercentileDate(nil, 50)
	assert.ErrorIs(t, err, models.ErrMissingMasterDataset)
}
