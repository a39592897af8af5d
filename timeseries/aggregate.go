// api/timeseries/aggregate.go
package timeseries

import (
	"sort"
	"time"
)

// Sample is one observation fed into AggregateCounts: a user's metrics for a
// single day and category. Aggregated output reuses the same shape with an
// empty UserID. Count carries the unit weight of the row; raw events carry 1.
type Sample struct {
	UserID   string
	Category string
	Date     time.Time
	Values   map[string]float64
	Count    float64
}

type groupKey struct {
	user     string
	category string
	date     time.Time
}

type accumulator struct {
	sums   map[string]float64
	n      int
	counts float64
	order  int
}

// AggregateCounts collapses samples in two stages: first to one row per
// (user, date, category) taking the mean of every metric, then across users
// per (date, category) taking the mean of the per-user means and the sum of
// counts. Averaging per user first keeps heavy users from dominating the
// daily figures. Output rows are sorted by date, then category.
func AggregateCounts(samples []Sample) []Sample {
	stage1 := reduce(samples, func(s Sample) groupKey {
		return groupKey{user: s.UserID, category: s.Category, date: s.Date}
	}, meanCount)

	stage2 := reduce(stage1, func(s Sample) groupKey {
		return groupKey{category: s.Category, date: s.Date}
	}, sumCount)

	sort.SliceStable(stage2, func(i, j int) bool {
		if !stage2[i].Date.Equal(stage2[j].Date) {
			return stage2[i].Date.Before(stage2[j].Date)
		}
		return stage2[i].Category < stage2[j].Category
	})
	return stage2
}

const (
	meanCount = iota
	sumCount
)

func reduce(samples []Sample, key func(Sample) groupKey, countMode int) []Sample {
	groups := make(map[groupKey]*accumulator)
	for i, s := range samples {
		k := key(s)
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{sums: make(map[string]float64), order: i}
			groups[k] = acc
		}
		for name, v := range s.Values {
			acc.sums[name] += v
		}
		acc.n++
		acc.counts += s.Count
	}

	out := make([]Sample, 0, len(groups))
	for k, acc := range groups {
		values := make(map[string]float64, len(acc.sums))
		for name, sum := range acc.sums {
			values[name] = sum / float64(acc.n)
		}
		count := acc.counts
		if countMode == meanCount {
			count = acc.counts / float64(acc.n)
		}
		out = append(out, Sample{
			UserID:   k.user,
			Category: k.category,
			Date:     k.date,
			Values:   values,
			Count:    count,
		})
	}

	// Map iteration order is random; restore input order before the caller
	// applies its own sort.
	sort.SliceStable(out, func(i, j int) bool {
		return groups[keyOf(out[i])].order < groups[keyOf(out[j])].order
	})
	return out
}

func keyOf(s Sample) groupKey {
	return groupKey{user: s.UserID, category: s.Category, date: s.Date}
}
