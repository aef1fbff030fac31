// Package indicators holds pure technical-analysis functions over float64 series.
//
// Series variants return a slice aligned to the input with zeros where the look-back
// window has not filled yet. Too short an input yields 0 or an empty slice, never a panic.
package indicators

// EMA returns the last value of the exponential moving average of prices, seeded with
// the simple average of the first period values. It returns 0 when len(prices) < period.
func EMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}
	k := 2 / float64(period+1)
	ema := mean(prices[:period])
	for _, p := range prices[period:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}

// EMASeries is EMA keeping every step. The first period-1 entries are zero.
func EMASeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}
	out := make([]float64, len(prices))
	k := 2 / float64(period+1)
	ema := mean(prices[:period])
	out[period-1] = ema
	for i := period; i < len(prices); i++ {
		ema = prices[i]*k + ema*(1-k)
		out[i] = ema
	}
	return out
}

// SMA returns the simple average of the last period values, or 0 when there are fewer.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	return mean(values[len(values)-period:])
}

// SMASeries returns the rolling simple average, zero for the first period-1 entries.
// Each window is summed from scratch so results do not drift on long series.
func SMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return []float64{}
	}
	out := make([]float64, len(values))
	for i := period - 1; i < len(values); i++ {
		out[i] = mean(values[i-period+1 : i+1])
	}
	return out
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}
