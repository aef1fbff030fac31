package detect

import (
	"math"

	"github.com/pam-pakkiri/coinpree/pkg/models"
)

func BullishEngulfing(prev, cur models.Candle) bool {
	return cur.Bullish() && prev.Bearish() && cur.Close > prev.Open && cur.Open < prev.Close
}

func BearishEngulfing(prev, cur models.Candle) bool {
	return cur.Bearish() && prev.Bullish() && cur.Close < prev.Open && cur.Open > prev.Close
}

// BullishPinBar is a candle whose lower wick is more than twice the body while the upper
// wick stays smaller than the body.
func BullishPinBar(c models.Candle) bool {
	body, upper, lower := anatomy(c)
	return lower > body*2 && upper < body
}

func BearishPinBar(c models.Candle) bool {
	body, upper, lower := anatomy(c)
	return upper > body*2 && lower < body
}

// ReversalPattern reports an engulfing or pin bar pattern at cur agreeing with dir.
func ReversalPattern(dir models.Direction, prev, cur models.Candle) bool {
	if dir == models.Buy {
		return BullishEngulfing(prev, cur) || BullishPinBar(cur)
	}
	return BearishEngulfing(prev, cur) || BearishPinBar(cur)
}

func anatomy(c models.Candle) (body, upper, lower float64) {
	body = math.Abs(c.Close - c.Open)
	upper = c.High - math.Max(c.Open, c.Close)
	lower = math.Min(c.Open, c.Close) - c.Low
	return body, upper, lower
}
