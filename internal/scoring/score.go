// Package scoring turns detector output into 0..100 confidence scores and trade levels.
package scoring

import (
	"fmt"
	"math"

	"github.com/pam-pakkiri/coinpree/pkg/models"
)

const Base = 50

// Clamp rounds score and clamps it to [0, 100].
func Clamp(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	r := math.Round(score)
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return int(r)
}

// Card accumulates points and the reasons behind them, starting at Base.
type Card struct {
	points  float64
	reasons []string
}

func NewCard() *Card {
	return &Card{points: Base, reasons: []string{}}
}

// Add adjusts the score; an empty reason records nothing.
func (c *Card) Add(points float64, reason string) {
	c.points += points
	if reason != "" {
		c.reasons = append(c.reasons, reason)
	}
}

// Note records a reason without changing the score.
func (c *Card) Note(reason string) { c.Add(0, reason) }

func (c *Card) Score() int { return Clamp(c.points) }

func (c *Card) Reasons() []string {
	out := make([]string, len(c.reasons))
	copy(out, c.reasons)
	return out
}

// CrossoverInput describes a fresh EMA cross on one symbol.
type CrossoverInput struct {
	Direction     models.Direction
	CandlesAgo    int
	Change24h     float64 // percent
	GapPct        float64 // |fast-slow| / slow at the last candle, percent
	QuoteVolume   float64
	Rank          int // market-cap rank, 0 when unknown
	VolatilityPct float64
}

// ScoreCrossover applies the crossover table: freshness, 24h trend alignment, gap
// magnitude, liquidity tier, market-cap rank and a volatility penalty.
func ScoreCrossover(in CrossoverInput) *Card {
	card := NewCard()
	switch in.CandlesAgo {
	case 0:
		card.Add(30, "Fresh cross")
	case 1:
		card.Add(20, "Cross 1 candle ago")
	case 2:
		card.Add(10, "Cross 2 candles ago")
	default:
		card.Note(fmt.Sprintf("Cross %d candles ago", in.CandlesAgo))
	}

	aligned := (in.Direction == models.Buy && in.Change24h > 0) || (in.Direction == models.Sell && in.Change24h < 0)
	diverging := (in.Direction == models.Buy && in.Change24h < -5) || (in.Direction == models.Sell && in.Change24h > 5)
	switch {
	case aligned:
		card.Add(10, "24h trend aligned")
	case diverging:
		card.Add(-10, "24h trend diverging")
	}

	card.Add(tiers(in.GapPct, []float64{0.5, 1, 2}, []float64{3, 3, 4}), "")
	card.Add(tiers(in.QuoteVolume, []float64{100e6, 500e6, 1e9}, []float64{3, 3, 4}), "")
	if in.QuoteVolume > 1e9 {
		card.Note("Volume > $1B")
	}

	switch {
	case in.Rank > 0 && in.Rank <= 50:
		card.Add(5, fmt.Sprintf("Top 50 market cap (#%d)", in.Rank))
	case in.Rank > 0 && in.Rank <= 100:
		card.Add(3, fmt.Sprintf("Top 100 market cap (#%d)", in.Rank))
	}

	if penalty := tiers(in.VolatilityPct, []float64{5, 10, 15}, []float64{3, 5, 7}); penalty > 0 {
		card.Add(-penalty, fmt.Sprintf("Volatility %.1f%%", in.VolatilityPct))
	}
	return card
}

// tiers sums points[i] for every threshold[i] strictly below v.
func tiers(v float64, thresholds, points []float64) float64 {
	total := 0.0
	for i, th := range thresholds {
		if v > th {
			total += points[i]
		}
	}
	return total
}
