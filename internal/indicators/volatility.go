package indicators

import "math"

// Volatility returns the population standard deviation of simple returns, in percent.
// Fewer than two prices, or a non-positive price, yield 0.
func Volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			return 0
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	m := mean(returns)
	var variance float64
	for _, r := range returns {
		variance += (r - m) * (r - m)
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance) * 100
}
