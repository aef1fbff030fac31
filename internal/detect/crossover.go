// Package detect finds trade setups in candle series: moving-average crossovers,
// market-structure breaks, liquidity sweeps and reversal candle patterns.
package detect

import (
	"math"

	"github.com/pam-pakkiri/coinpree/pkg/models"
)

// CrossoverEvent is a fast/slow moving-average cross at Index.
type CrossoverEvent struct {
	Direction  models.Direction
	Index      int
	CandlesAgo int
	FastAt     float64
	SlowAt     float64
	FastPrev   float64
	SlowPrev   float64
}

// Crossover returns the most recent cross within the last lookback candles. The scan
// covers indices len-1 down to max(len-lookback-1, slowPeriod); ok is false when no
// index qualifies.
func Crossover(fast, slow []float64, slowPeriod, lookback int) (CrossoverEvent, bool) {
	var found CrossoverEvent
	ok := false
	scanCrossovers(fast, slow, slowPeriod, lookback, func(ev CrossoverEvent) bool {
		found, ok = ev, true
		return false
	})
	return found, ok
}

// CrossoverAll returns every cross in the same window as Crossover, most recent first.
func CrossoverAll(fast, slow []float64, slowPeriod, lookback int) []CrossoverEvent {
	var out []CrossoverEvent
	scanCrossovers(fast, slow, slowPeriod, lookback, func(ev CrossoverEvent) bool {
		out = append(out, ev)
		return true
	})
	return out
}

func scanCrossovers(fast, slow []float64, slowPeriod, lookback int, yield func(CrossoverEvent) bool) {
	n := len(fast)
	if len(slow) < n {
		n = len(slow)
	}
	if n < 2 || lookback < 0 {
		return
	}
	stop := n - lookback - 1
	if stop < slowPeriod {
		stop = slowPeriod
	}
	if stop < 1 {
		stop = 1
	}
	for i := n - 1; i >= stop; i-- {
		fPrev, sPrev, fAt, sAt := fast[i-1], slow[i-1], fast[i], slow[i]
		if !usable(fPrev) || !usable(sPrev) || !usable(fAt) || !usable(sAt) {
			continue
		}
		var dir models.Direction
		switch {
		case fPrev <= sPrev && fAt > sAt:
			dir = models.Buy
		case fPrev >= sPrev && fAt < sAt:
			dir = models.Sell
		default:
			continue
		}
		ev := CrossoverEvent{
			Direction:  dir,
			Index:      i,
			CandlesAgo: n - 1 - i,
			FastAt:     fAt,
			SlowAt:     sAt,
			FastPrev:   fPrev,
			SlowPrev:   sPrev,
		}
		if !yield(ev) {
			return
		}
	}
}

func usable(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
