package indicators

// lossEpsilon keeps RS finite when the average loss is zero.
const lossEpsilon = 1e-10

// RSI returns the latest Wilder relative strength index. It returns 0 when there are
// fewer than period+1 prices and 100 when the average loss is zero.
func RSI(prices []float64, period int) float64 {
	s := RSISeries(prices, period)
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// RSISeries returns the Wilder RSI for every index from period onwards; earlier entries are zero.
func RSISeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return []float64{}
	}
	out := make([]float64, len(prices))

	var gains, losses float64
	for i := 1; i <= period; i++ {
		diff := prices[i] - prices[i-1]
		if diff >= 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		diff := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss <= lossEpsilon {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
