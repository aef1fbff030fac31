package indicators

// StochasticResult holds the slowed %K line and its %D signal line.
type StochasticResult struct {
	K []float64
	D []float64
}

// Stochastic computes raw %K over kPeriod (a flat range reads 50), slows it with a
// simple average over slowing and derives %D as the simple average of %K over dPeriod.
// Warm-up entries are zero.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod, slowing int) StochasticResult {
	n := minLen(highs, lows, closes)
	res := StochasticResult{K: make([]float64, n), D: make([]float64, n)}
	if kPeriod <= 0 || dPeriod <= 0 || slowing <= 0 || n < kPeriod {
		return res
	}

	raw := make([]float64, n)
	for i := kPeriod - 1; i < n; i++ {
		highest, lowest := highs[i], lows[i]
		for j := 1; j < kPeriod; j++ {
			if highs[i-j] > highest {
				highest = highs[i-j]
			}
			if lows[i-j] < lowest {
				lowest = lows[i-j]
			}
		}
		rng := highest - lowest
		if rng == 0 {
			raw[i] = 50
			continue
		}
		raw[i] = (closes[i] - lowest) / rng * 100
	}

	kStart := kPeriod + slowing - 2
	for i := kStart; i < n; i++ {
		res.K[i] = mean(raw[i-slowing+1 : i+1])
	}
	dStart := kStart + dPeriod - 1
	for i := dStart; i < n; i++ {
		res.D[i] = mean(res.K[i-dPeriod+1 : i+1])
	}
	return res
}
