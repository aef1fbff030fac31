package indicators

import "math"

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per index; the first
// entry has no previous close and uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	n := minLen(highs, lows, closes)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR returns the Wilder-smoothed average true range seeded with the mean of the first
// period true ranges. Entries before period-1 are zero.
func ATR(highs, lows, closes []float64, period int) []float64 {
	tr := TrueRange(highs, lows, closes)
	if period <= 0 || len(tr) < period {
		return []float64{}
	}
	out := make([]float64, len(tr))
	out[period-1] = mean(tr[:period])
	p := float64(period)
	for i := period; i < len(tr); i++ {
		out[i] = (out[i-1]*(p-1) + tr[i]) / p
	}
	return out
}

func minLen(series ...[]float64) int {
	if len(series) == 0 {
		return 0
	}
	n := len(series[0])
	for _, s := range series[1:] {
		if len(s) < n {
			n = len(s)
		}
	}
	return n
}
