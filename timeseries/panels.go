// api/timeseries/panels.go
package timeseries

import (
	"fmt"
	"sort"
	"time"

	"smartflow/api/models"
	"smartflow/api/sequence"
	"smartflow/api/utils"
)

// TopPathCount is the number of path nicknames shown in the top-paths panel.
const TopPathCount = 10

// series is one category's date-ordered aggregate values within a panel.
type series struct {
	category string
	dates    []string
	metrics  map[string][]float64
}

// splitByCategory regroups aggregated samples into per-category series,
// preserving first-appearance order so trace colors stay stable.
func splitByCategory(samples []Sample) []series {
	var out []series
	index := make(map[string]int)
	for _, s := range samples {
		i, ok := index[s.Category]
		if !ok {
			i = len(out)
			index[s.Category] = i
			out = append(out, series{category: s.Category, metrics: make(map[string][]float64)})
		}
		out[i].dates = append(out[i].dates, utils.FormatDate(s.Date))
		for name, v := range s.Values {
			out[i].metrics[name] = append(out[i].metrics[name], v)
		}
		out[i].metrics["count"] = append(out[i].metrics["count"], s.Count)
	}
	return out
}

// axisRefs returns the Plotly axis anchors for a 1-based subplot index.
func axisRefs(subplot int) (string, string) {
	if subplot == 1 {
		return "x", "y"
	}
	return fmt.Sprintf("x%d", subplot), fmt.Sprintf("y%d", subplot)
}

func toPtrs(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}

// scatterTrace layers one category's line onto a subplot, colored by the
// category's ordinal in the panel.
func scatterTrace(s series, y []*float64, ordinal, subplot int) models.Trace {
	xa, ya := axisRefs(subplot)
	return models.Trace{
		Type:   "scatter",
		Mode:   "lines",
		Name:   s.category,
		X:      s.dates,
		Y:      y,
		Marker: &models.Marker{Color: models.PaletteColor(ordinal)},
		XAxis:  xa,
		YAxis:  ya,
	}
}

// bandTrace shades the active date range at the series' maximum height. It
// marks the window visually and carries no data.
func bandTrace(start, end time.Time, yMax float64, subplot int) models.Trace {
	xa, ya := axisRefs(subplot)
	return models.Trace{
		Type:  "scatter",
		Mode:  "lines",
		X:     []string{utils.FormatDate(start), utils.FormatDate(end)},
		Y:     toPtrs([]float64{yMax, yMax}),
		Fill:  "tozeroy",
		XAxis: xa,
		YAxis: ya,
	}
}

// subplotTitles pins one annotation above each cell of a rows*cols grid.
func subplotTitles(titles []string, rows, cols int) []models.Annotation {
	out := make([]models.Annotation, 0, len(titles))
	for i, title := range titles {
		r := i / cols
		c := i % cols
		out = append(out, models.Annotation{
			Text: title,
			X:    (float64(c) + 0.5) / float64(cols),
			Y:    1 - float64(r)/float64(rows),
			XRef: "paper",
			YRef: "paper",
		})
	}
	return out
}

func maxOf(values []float64) float64 {
	var max float64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

// CallbackAnalysis builds the 2x2 callback panel: callback counts, the
// average gap between a call and its predecessor, and 14-day rolling averages
// of the previous and current call durations, one trace per toll-free
// category.
func CallbackAnalysis(seq *sequence.PathSequence) models.Figure {
	samples := make([]Sample, 0, len(seq.Rows))
	for _, r := range seq.Rows {
		samples = append(samples, Sample{
			UserID:   r.UserID,
			Category: r.TollFree,
			Date:     r.Date,
			Values: map[string]float64{
				"avg_duration":             r.SessionDurationMs,
				"avg_previous_duration":    r.PreviousDurationMs,
				"avg_days_since_last_call": r.DaysSinceLastCall,
			},
			Count: 1,
		})
	}

	fig := models.Figure{
		Layout: models.Layout{
			Grid: &models.Grid{Rows: 2, Columns: 2, Pattern: "independent"},
			Annotations: subplotTitles([]string{
				"Count of Callbacks",
				"Average Days Between This Call and Previous",
				"14 Day Rolling Average Duration of Previous Call",
				"14 Day Rolling Average Duration of This Call",
			}, 2, 2),
		},
	}

	for i, s := range splitByCategory(AggregateCounts(samples)) {
		fig.Data = append(fig.Data,
			scatterTrace(s, toPtrs(s.metrics["count"]), i, 1),
			scatterTrace(s, toPtrs(s.metrics["avg_days_since_last_call"]), i, 2),
			scatterTrace(s, RollingMean(s.metrics["avg_previous_duration"], DefaultWindow), i, 3),
			scatterTrace(s, RollingMean(s.metrics["avg_duration"], DefaultWindow), i, 4),
		)
	}

	models.StandardLayout(&fig)
	return fig
}

// TopPaths builds the user-path breakdown panel: for the topN most frequent
// path nicknames, the daily callback count and average duration, each with
// its 14-day rolling average on the row above the raw series.
func TopPaths(seq *sequence.PathSequence, topN int) models.Figure {
	if topN <= 0 {
		topN = TopPathCount
	}

	occurrences := make(map[string]int)
	for _, r := range seq.Rows {
		occurrences[r.PathNickname]++
	}
	nicknames := make([]string, 0, len(occurrences))
	for name := range occurrences {
		nicknames = append(nicknames, name)
	}
	sort.Slice(nicknames, func(i, j int) bool {
		if occurrences[nicknames[i]] != occurrences[nicknames[j]] {
			return occurrences[nicknames[i]] > occurrences[nicknames[j]]
		}
		return nicknames[i] < nicknames[j]
	})
	if len(nicknames) > topN {
		nicknames = nicknames[:topN]
	}
	target := make(map[string]bool, len(nicknames))
	for _, name := range nicknames {
		target[name] = true
	}

	var samples []Sample
	for _, r := range seq.Rows {
		if !target[r.PathNickname] {
			continue
		}
		samples = append(samples, Sample{
			UserID:   r.UserID,
			Category: r.PathNickname,
			Date:     r.Date,
			Values:   map[string]float64{"avg_duration": r.SessionDurationMs},
			Count:    1,
		})
	}

	metrics := []string{"count", "avg_duration"}
	titles := make([]string, 2*len(metrics))
	for i, m := range metrics {
		titles[i] = fmt.Sprintf("14 Day Rolling Average %s", m)
		titles[i+len(metrics)] = m
	}

	fig := models.Figure{
		Layout: models.Layout{
			Grid:        &models.Grid{Rows: 2, Columns: len(metrics), Pattern: "independent"},
			Annotations: subplotTitles(titles, 2, len(metrics)),
		},
	}

	for i, s := range splitByCategory(AggregateCounts(samples)) {
		for col, m := range metrics {
			fig.Data = append(fig.Data,
				scatterTrace(s, RollingMean(s.metrics[m], DefaultWindow), i, col+1),
				scatterTrace(s, toPtrs(s.metrics[m]), i, len(metrics)+col+1),
			)
		}
	}

	models.StandardLayout(&fig)
	return fig
}

// Totals builds the totals-over-time panel: daily distinct session counts
// across the full master dataset with the active date range shaded, plus the
// 14-day rolling average of the same series.
func Totals(master []models.FlowEvent, flowName string, startDate, endDate time.Time) models.Figure {
	samples := make([]Sample, 0, len(master))
	for _, ev := range master {
		// Keyed by session so stage one collapses repeat events and stage
		// two sums to a distinct session count per day.
		samples = append(samples, Sample{
			UserID:   ev.SessionID,
			Category: flowName,
			Date:     ev.Date(),
			Count:    1,
		})
	}

	fig := models.Figure{
		Layout: models.Layout{
			Grid: &models.Grid{Rows: 2, Columns: 1, Pattern: "independent"},
			Annotations: subplotTitles([]string{
				"14 Day Rolling Average count",
				"count",
			}, 2, 1),
		},
	}

	for i, s := range splitByCategory(AggregateCounts(samples)) {
		rolling := RollingMean(s.metrics["count"], DefaultWindow)
		fig.Data = append(fig.Data, scatterTrace(s, rolling, i, 1))

		var rollingMax float64
		for _, v := range rolling {
			if v != nil && *v > rollingMax {
				rollingMax = *v
			}
		}
		if rollingMax == 0 {
			// Fewer points than the window leaves the rolling series empty;
			// size the band off the raw series so it stays visible.
			rollingMax = maxOf(s.metrics["count"])
		}
		fig.Data = append(fig.Data, bandTrace(startDate, endDate, rollingMax, 1))

		fig.Data = append(fig.Data, scatterTrace(s, toPtrs(s.metrics["count"]), i, 2))
		fig.Data = append(fig.Data, bandTrace(startDate, endDate, maxOf(s.metrics["count"]), 2))
	}

	models.StandardLayout(&fig)
	return fig
}
