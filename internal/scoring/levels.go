package scoring

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/pam-pakkiri/coinpree/pkg/models"
)

const significantDigits = 8

// Levels is a trade plan. Prices are not rounded; see RoundPrice.
type Levels struct {
	Entry      float64
	StopLoss   float64
	TakeProfit float64
}

// RiskReward returns |tp-entry| / |entry-sl|, or 0 when the risk is zero.
func RiskReward(entry, stopLoss, takeProfit float64) float64 {
	risk := math.Abs(entry - stopLoss)
	if risk == 0 || math.IsNaN(risk) {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}

func (l Levels) RiskReward() float64 {
	return RiskReward(l.Entry, l.StopLoss, l.TakeProfit)
}

// PercentLevels places SL and TP at fixed percentage offsets from entry.
func PercentLevels(dir models.Direction, entry, slPct, tpPct float64) Levels {
	if dir == models.Buy {
		return Levels{Entry: entry, StopLoss: entry * (1 - slPct/100), TakeProfit: entry * (1 + tpPct/100)}
	}
	return Levels{Entry: entry, StopLoss: entry * (1 + slPct/100), TakeProfit: entry * (1 - tpPct/100)}
}

// ATRLevels places SL and TP at ATR multiples from base. Entry is set to base; callers
// trading from a later price overwrite it.
func ATRLevels(dir models.Direction, base, atr, slMult, tpMult float64) Levels {
	if dir == models.Buy {
		return Levels{Entry: base, StopLoss: base - atr*slMult, TakeProfit: base + atr*tpMult}
	}
	return Levels{Entry: base, StopLoss: base + atr*slMult, TakeProfit: base - atr*tpMult}
}

// SweepLevels is the short plan under a liquidity-sweep candle: enter on the break of its
// low, stop above its high, target twice its range below the low.
func SweepLevels(c models.Candle) Levels {
	rng := c.High - c.Low
	return Levels{Entry: c.Low, StopLoss: c.High, TakeProfit: c.Low - 2*rng}
}

// Hit reports whether price has already reached the stop or the target of the plan.
func (l Levels) Hit(dir models.Direction, price float64) bool {
	if dir == models.Buy {
		return price <= l.StopLoss || price >= l.TakeProfit
	}
	return price >= l.StopLoss || price <= l.TakeProfit
}

// RoundPrice rounds v to 8 significant digits.
func RoundPrice(v float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	digits := int(math.Floor(math.Log10(math.Abs(v)))) + 1
	f, _ := decimal.NewFromFloat(v).Round(int32(significantDigits - digits)).Float64()
	return f
}

// RoundRatio rounds a risk/reward ratio to two decimals.
func RoundRatio(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
