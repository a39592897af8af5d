package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartflow/api/models"
	"smartflow/api/sequence"
)

func panelSequence(t *testing.T) *sequence.PathSequence {
	t.Helper()
	var master []models.FlowEvent
	at := time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		tollFree := models.CategoryNonTollFree
		if i%2 == 0 {
			tollFree = models.CategoryTollFree
		}
		master = append(master, models.FlowEvent{
			UserID:            string(rune('a' + i)),
			SessionID:         string(rune('a'+i)) + "-s",
			TimeEvent:         at.Add(time.Duration(i) * 24 * time.Hour),
			Step:              "Start",
			TollFree:          tollFree,
			SessionDurationMs: float64(100 * (i + 1)),
			DaysSinceLastCall: float64(i),
		})
	}

	seq, err := sequence.Derive(master,
		time.Date(2021, 5, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 7, 31, 0, 0, 0, 0, time.UTC), true)
	require.NoError(t, err)
	return seq
}

func TestCallbackAnalysisShape(t *testing.T) {
	fig := CallbackAnalysis(panelSequence(t))

	require.NotNil(t, fig.Layout.Grid)
	assert.Equal(t, 2, fig.Layout.Grid.Rows)
	assert.Equal(t, 2, fig.Layout.Grid.Columns)
	assert.Len(t, fig.Layout.Annotations, 4)

	// Two toll-free categories, four subplots each.
	assert.Len(t, fig.Data, 8)
	names := make(map[string]bool)
	for _, tr := range fig.Data {
		names[tr.Name] = true
	}
	assert.True(t, names[models.CategoryTollFree])
	assert.True(t, names[models.CategoryNonTollFree])
}

func TestTopPathsLimitsCategories(t *testing.T) {
	// 20 users each walk a distinct single-step path, producing 20 distinct
	// nicknames; only the top 10 may appear.
	var master []models.FlowEvent
	at := time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		master = append(master, models.FlowEvent{
			UserID:            string(rune('a' + i)),
			SessionID:         "s",
			TimeEvent:         at.Add(time.Duration(i) * time.Hour),
			Step:              string(rune('A' + i)),
			TollFree:          models.CategoryNonTollFree,
			SessionDurationMs: 100,
		})
	}
	seq, err := sequence.Derive(master,
		time.Date(2021, 5, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC), true)
	require.NoError(t, err)

	fig := TopPaths(seq, 10)

	categories := make(map[string]bool)
	for _, tr := range fig.Data {
		categories[tr.Name] = true
	}
	assert.LessOrEqual(t, len(categories), 10)
}

func TestTotalsShadesActiveRange(t *testing.T) {
	seq := panelSequence(t)
	start := time.Date(2021, 6, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)

	var master []models.FlowEvent
	for _, r := range seq.Rows {
		master = append(master, r.FlowEvent)
	}

	fig := Totals(master, "Customer Service", start, end)

	var bands int
	for _, tr := range fig.Data {
		if tr.Fill == "tozeroy" {
			bands++
			assert.Equal(t, []string{"2021-06-05", "2021-06-15"}, tr.X)
		}
	}
	assert.Equal(t, 2, bands) // one per subplot
	assert.Equal(t, "white", fig.Layout.PlotBGColor)
}

func TestTotalsBandVisibleOnShortDataset(t *testing.T) {
	// Fewer days than the rolling window: the rolling series is all missing,
	// so the band on that subplot falls back to the raw series height.
	var master []models.FlowEvent
	at := time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)
	for day := 0; day < 5; day++ {
		master = append(master, models.FlowEvent{
			UserID:    "u1",
			SessionID: "s1",
			TimeEvent: at.Add(time.Duration(day) * 24 * time.Hour),
			Step:      "Start",
		})
	}

	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 6, 5, 0, 0, 0, 0, time.UTC)
	fig := Totals(master, "Customer Service", start, end)

	for _, tr := range fig.Data {
		if tr.Fill != "tozeroy" {
			continue
		}
		require.NotEmpty(t, tr.Y)
		require.NotNil(t, tr.Y[0])
		assert.Greater(t, *tr.Y[0], 0.0)
	}
}
