package detect

import (
	"github.com/pam-pakkiri/coinpree/internal/indicators"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

type SwingKind string

const (
	SwingHigh SwingKind = "HIGH"
	SwingLow  SwingKind = "LOW"
)

type SwingPoint struct {
	Index int
	Price float64
	Kind  SwingKind
}

// SwingHighs returns indices whose high is strictly above the lookback candles on each
// side. The last lookback candles lack a right-hand window and are never confirmed.
func SwingHighs(candles []models.Candle, lookback int) []SwingPoint {
	return swings(candles, lookback, SwingHigh)
}

// SwingLows mirrors SwingHighs on lows.
func SwingLows(candles []models.Candle, lookback int) []SwingPoint {
	return swings(candles, lookback, SwingLow)
}

func swings(candles []models.Candle, lookback int, kind SwingKind) []SwingPoint {
	var out []SwingPoint
	if lookback < 1 {
		return out
	}
	for i := lookback; i < len(candles)-lookback; i++ {
		price := candles[i].High
		if kind == SwingLow {
			price = candles[i].Low
		}
		isSwing := true
		for j := 1; j <= lookback && isSwing; j++ {
			if kind == SwingHigh {
				isSwing = price > candles[i-j].High && price > candles[i+j].High
			} else {
				isSwing = price < candles[i-j].Low && price < candles[i+j].Low
			}
		}
		if isSwing {
			out = append(out, SwingPoint{Index: i, Price: price, Kind: kind})
		}
	}
	return out
}

// FairValueGap is a three-candle imbalance; Bottom..Top is the untraded price range.
type FairValueGap struct {
	Index     int
	Direction models.Direction
	Top       float64
	Bottom    float64
}

func FairValueGaps(candles []models.Candle) []FairValueGap {
	var out []FairValueGap
	for i := 2; i < len(candles); i++ {
		switch {
		case candles[i].Low > candles[i-2].High:
			out = append(out, FairValueGap{Index: i, Direction: models.Buy, Top: candles[i].Low, Bottom: candles[i-2].High})
		case candles[i].High < candles[i-2].Low:
			out = append(out, FairValueGap{Index: i, Direction: models.Sell, Top: candles[i-2].Low, Bottom: candles[i].High})
		}
	}
	return out
}

const (
	bosVolumePeriod     = 20
	bosVolumeMultiplier = 1.5
)

// StructureBreak is a close through the most recent confirmed swing.
type StructureBreak struct {
	Direction   models.Direction
	Swing       SwingPoint
	Close       float64
	Trend       float64
	VolumeRatio float64
}

// BreakOfStructure checks the last candle against the latest confirmed swing high (bullish)
// and swing low (bearish). The previous close must not already be beyond the level, the
// close must be on the trend side of trend[last] and volume must exceed 1.5x the mean of
// the previous 20 candles.
func BreakOfStructure(candles []models.Candle, trend []float64, swingLookback int) (StructureBreak, bool) {
	n := len(candles)
	if n < bosVolumePeriod+2 || len(trend) != n || trend[n-1] == 0 {
		return StructureBreak{}, false
	}
	last, prev := candles[n-1], candles[n-2]
	avgVol := indicators.SMA(models.Volumes(candles[:n-1]), bosVolumePeriod)
	if avgVol <= 0 || last.Volume <= avgVol*bosVolumeMultiplier {
		return StructureBreak{}, false
	}
	ratio := last.Volume / avgVol

	if highs := SwingHighs(candles, swingLookback); len(highs) > 0 {
		s := highs[len(highs)-1]
		if last.Close > s.Price && prev.Close <= s.Price && last.Close > trend[n-1] {
			return StructureBreak{Direction: models.Buy, Swing: s, Close: last.Close, Trend: trend[n-1], VolumeRatio: ratio}, true
		}
	}
	if lows := SwingLows(candles, swingLookback); len(lows) > 0 {
		s := lows[len(lows)-1]
		if last.Close < s.Price && prev.Close >= s.Price && last.Close < trend[n-1] {
			return StructureBreak{Direction: models.Sell, Swing: s, Close: last.Close, Trend: trend[n-1], VolumeRatio: ratio}, true
		}
	}
	return StructureBreak{}, false
}
