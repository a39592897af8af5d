// api/timeseries/rolling.go
package timeseries

// DefaultWindow is the trailing window used by the dashboard's rolling
// averages.
const DefaultWindow = 14

// RollingMean computes a trailing moving average over values, which must be
// in date order for one category. Positions before a full window are nil,
// never a partial-window average.
func RollingMean(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window <= 0 || len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			avg := sum / float64(window)
			out[i] = &avg
		}
	}
	return out
}
