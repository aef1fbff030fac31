package detect

import (
	"math"

	"github.com/pam-pakkiri/coinpree/internal/indicators"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

type Setup string

const (
	SetupConfirmed Setup = "CONFIRMED"
	SetupPotential Setup = "POTENTIAL"
)

// SweepConfig tunes the liquidity-sweep detector.
type SweepConfig struct {
	SwingLookback   int
	Window          int     // trailing candles searched for the sweep, newest first
	MaxSwingAge     int     // swings older than this many candles are ignored
	MinMovePct      float64 // (high-low)/low in percent
	MinVolumeRatio  float64 // volume / SMA20
	MinUpperWickPct float64 // upper wick as percent of range
}

func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		SwingLookback:   10,
		Window:          3,
		MaxSwingAge:     300,
		MinMovePct:      0.5,
		MinVolumeRatio:  0.8,
		MinUpperWickPct: 30,
	}
}

// Sweep is a candle that ran above a confirmed swing high and closed back below it.
type Sweep struct {
	Index        int
	Setup        Setup
	Swing        SwingPoint
	UpperWickPct float64
	BodyPct      float64
	MovePct      float64
	VolumeRatio  float64
	EMA50        float64
	EMA200       float64
}

// LiquiditySweep returns the most recent qualifying sweep in the trailing window. A sweep
// is CONFIRMED when its body is bearish or a later candle traded below its low.
func LiquiditySweep(candles []models.Candle, cfg SweepConfig) (Sweep, bool) {
	n := len(candles)
	if n < 20 || cfg.Window < 1 {
		return Sweep{}, false
	}
	highs := SwingHighs(candles, cfg.SwingLookback)
	if len(highs) == 0 {
		return Sweep{}, false
	}
	closes := models.Closes(candles)
	volSMA := indicators.SMASeries(models.Volumes(candles), 20)
	ema50 := indicators.EMASeries(closes, 50)
	ema200 := indicators.EMASeries(closes, 200)

	stop := n - cfg.Window
	if stop < 20 {
		stop = 20
	}
	for idx := n - 1; idx >= stop; idx-- {
		c := candles[idx]
		swing, ok := sweptSwing(highs, c, idx, cfg)
		if !ok {
			continue
		}
		rng := c.High - c.Low
		if rng <= 0 {
			continue
		}
		movePct := rng / c.Low * 100
		if movePct < cfg.MinMovePct {
			continue
		}
		avgVol := volSMA[idx]
		if avgVol <= 0 || c.Volume < avgVol*cfg.MinVolumeRatio {
			continue
		}
		wickPct := (c.High - math.Max(c.Open, c.Close)) / rng * 100
		if wickPct < cfg.MinUpperWickPct {
			continue
		}

		setup := SetupPotential
		if c.Bearish() || brokeLow(candles[idx+1:], c.Low) {
			setup = SetupConfirmed
		}
		return Sweep{
			Index:        idx,
			Setup:        setup,
			Swing:        swing,
			UpperWickPct: wickPct,
			BodyPct:      math.Abs(c.Close-c.Open) / rng * 100,
			MovePct:      movePct,
			VolumeRatio:  c.Volume / avgVol,
			EMA50:        at(ema50, idx),
			EMA200:       at(ema200, idx),
		}, true
	}
	return Sweep{}, false
}

// sweptSwing picks the most recent swing confirmed before idx that c ran through.
func sweptSwing(highs []SwingPoint, c models.Candle, idx int, cfg SweepConfig) (SwingPoint, bool) {
	for k := len(highs) - 1; k >= 0; k-- {
		s := highs[k]
		if s.Index+cfg.SwingLookback >= idx {
			continue
		}
		if cfg.MaxSwingAge > 0 && idx-s.Index > cfg.MaxSwingAge {
			break
		}
		if c.High > s.Price && c.Close < s.Price {
			return s, true
		}
	}
	return SwingPoint{}, false
}

func brokeLow(later []models.Candle, low float64) bool {
	for _, c := range later {
		if c.Low < low {
			return true
		}
	}
	return false
}

func at(series []float64, i int) float64 {
	if i < len(series) {
		return series[i]
	}
	return 0
}
