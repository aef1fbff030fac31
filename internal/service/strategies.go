package service

import (
	"context"
	"fmt"
	"math"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/detect"
	"github.com/pam-pakkiri/coinpree/internal/exchanges"
	"github.com/pam-pakkiri/coinpree/internal/indicators"
	"github.com/pam-pakkiri/coinpree/internal/scoring"
	"github.com/pam-pakkiri/coinpree/internal/util"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

const (
	advancedFast     = 5
	advancedSlow     = 12
	advancedTrend    = 50
	advancedLookback = 24
	advancedLimit    = 200
	htfLimit         = 150
	atrPeriod        = 14
	rsiPeriod        = 14
	stochK           = 5
	stochD           = 3
	stochSlowing     = 3
	volumePeriod     = 20
	atrStopMult      = 1.5
	atrTargetMult    = 2.0

	crossoverFast     = 7
	crossoverSlow     = 99
	crossoverLookback = 3
	crossoverLimit    = 500
	volatilityWindow  = 30
	crossoverStopPct  = 3
	crossoverTakePct  = 6

	reversalLimit = 250

	structureFast     = 9
	structureSlow     = 21
	structureTrend    = 200
	structureLimit    = 300
	structureSwing    = 5
	structureFVGRange = 10
	structureATRMult  = 3
)

// analyzeAdvanced validates EMA 5/12 crosses among the last 24 closed candles, newest
// first, and emits the first one that survives the filters. Entry is the live price.
func (e *Engine) analyzeAdvanced(ex exchanges.Exchange, tf models.Timeframe) analyzer {
	return func(ctx context.Context, t models.Ticker) Outcome {
		candles, err := ex.FetchKlines(ctx, t.Symbol, tf, advancedLimit)
		if err != nil {
			return skip(skipForError(err))
		}
		n := len(candles)
		closed := candles[:n-1]
		live := candles[n-1]

		closes := models.Closes(closed)
		highs, lows := models.Highs(closed), models.Lows(closed)
		fast := indicators.EMASeries(closes, advancedFast)
		slow := indicators.EMASeries(closes, advancedSlow)
		trend := indicators.EMASeries(closes, advancedTrend)
		if len(trend) != len(closes) {
			return skip(common.SkipInsufficientData)
		}

		minHistory := advancedTrend + 2
		events := detect.CrossoverAll(fast, slow, minHistory, advancedLookback)
		if len(events) == 0 {
			return skip(common.SkipNoSignal)
		}

		htfAligned := e.htfTrend(ctx, ex, t.Symbol, tf)
		atr := indicators.ATR(highs, lows, closes, atrPeriod)
		rsi := indicators.RSISeries(closes, rsiPeriod)
		stoch := indicators.Stochastic(highs, lows, closes, stochK, stochD, stochSlowing)
		volumes := models.Volumes(closed)

		for _, ev := range events {
			i := ev.Index
			buy := ev.Direction == models.Buy
			aligned := (buy && fast[i] > slow[i] && slow[i] > trend[i]) || (!buy && fast[i] < slow[i] && slow[i] < trend[i])
			card, ok := scoring.ScoreAdvanced(scoring.AdvancedInput{
				Direction:    ev.Direction,
				TrendAligned: aligned,
				HTFAligned:   htfAligned == ev.Direction,
				VolumeRatio:  volumeRatio(volumes, i, volumePeriod),
				RSI:          at(rsi, i),
				StochK:       at(stoch.K, i),
				Pattern:      detect.ReversalPattern(ev.Direction, closed[i-1], closed[i]),
			})
			if !ok {
				continue
			}

			levels := scoring.ATRLevels(ev.Direction, closes[i], at(atr, i), atrStopMult, atrTargetMult)
			if levels.Hit(ev.Direction, live.Close) {
				continue
			}
			levels.Entry = live.Close
			rr := levels.RiskReward()
			if card.Score() < scoring.AdvancedMinScore || rr < scoring.AdvancedMinRR {
				continue
			}
			return emit(newSignal(ex, t.Symbol, ev.Direction, levels, card, closed[i].Time, ev.CandlesAgo+1, models.StatusActive))
		}
		return skip(common.SkipFiltered)
	}
}

// htfTrend returns the direction of a fully stacked EMA 5/12/50 on the higher timeframe,
// or "" when it is mixed or unavailable.
func (e *Engine) htfTrend(ctx context.Context, ex exchanges.Exchange, symbol string, tf models.Timeframe) models.Direction {
	candles, err := ex.FetchKlines(ctx, symbol, tf.Higher(), htfLimit)
	if err != nil {
		return ""
	}
	closes := models.Closes(candles)
	f := indicators.EMA(closes, advancedFast)
	s := indicators.EMA(closes, advancedSlow)
	tr := indicators.EMA(closes, advancedTrend)
	switch {
	case tr == 0:
		return ""
	case f > s && s > tr:
		return models.Buy
	case f < s && s < tr:
		return models.Sell
	}
	return ""
}

// analyzeCrossover reports an EMA 7/99 cross within the last 3 candles, scored against
// 24h change, liquidity, market-cap rank and recent volatility.
func (e *Engine) analyzeCrossover(ex exchanges.Exchange, tf models.Timeframe, ranks map[string]int) analyzer {
	return func(ctx context.Context, t models.Ticker) Outcome {
		candles, err := ex.FetchKlines(ctx, t.Symbol, tf, crossoverLimit)
		if err != nil {
			return skip(skipForError(err))
		}
		closes := models.Closes(candles)
		fast := indicators.EMASeries(closes, crossoverFast)
		slow := indicators.EMASeries(closes, crossoverSlow)
		if len(fast) != len(closes) || len(slow) != len(closes) {
			return skip(common.SkipInsufficientData)
		}
		ev, ok := detect.Crossover(fast, slow, crossoverSlow, crossoverLookback)
		if !ok {
			return skip(common.SkipNoSignal)
		}

		n := len(closes)
		f, s := fast[n-1], slow[n-1]
		gap := math.Abs(f-s) / s * 100
		recent := closes
		if len(recent) > volatilityWindow {
			recent = recent[len(recent)-volatilityWindow:]
		}
		card := scoring.ScoreCrossover(scoring.CrossoverInput{
			Direction:     ev.Direction,
			CandlesAgo:    ev.CandlesAgo,
			Change24h:     t.PriceChangePercent,
			GapPct:        gap,
			QuoteVolume:   t.QuoteVolume,
			Rank:          ranks[util.BaseAsset(t.Symbol)],
			VolatilityPct: indicators.Volatility(recent),
		})
		card.Note(fmt.Sprintf("EMA(%d)=%.6g EMA(%d)=%.6g Gap=%.2f%%", crossoverFast, f, crossoverSlow, s, gap))

		entry := t.LastPrice
		if entry <= 0 {
			entry = closes[n-1]
		}
		levels := scoring.PercentLevels(ev.Direction, entry, crossoverStopPct, crossoverTakePct)
		return emit(newSignal(ex, t.Symbol, ev.Direction, levels, card, candles[ev.Index].Time, ev.CandlesAgo, models.StatusActive))
	}
}

// analyzeReversal reports a liquidity sweep above a prior swing high as a short setup.
func (e *Engine) analyzeReversal(ex exchanges.Exchange, tf models.Timeframe) analyzer {
	return func(ctx context.Context, t models.Ticker) Outcome {
		candles, err := ex.FetchKlines(ctx, t.Symbol, tf, reversalLimit)
		if err != nil {
			return skip(skipForError(err))
		}
		sw, ok := detect.LiquiditySweep(candles, detect.DefaultSweepConfig())
		if !ok {
			return skip(common.SkipNoSignal)
		}
		c := candles[sw.Index]
		status := models.StatusPending
		if sw.Setup == detect.SetupConfirmed {
			status = models.StatusActive
		}
		card := scoring.ScoreSweep(sw.Setup == detect.SetupConfirmed, sw.VolumeRatio, sw.UpperWickPct)
		card.Note(fmt.Sprintf("Swept swing high %.6g", sw.Swing.Price))

		sig := newSignal(ex, t.Symbol, models.Sell, scoring.SweepLevels(c), card, c.Time, len(candles)-1-sw.Index, status)
		sig.Exhaustion = &models.ExhaustionCandle{
			Candle:       c,
			Setup:        string(sw.Setup),
			UpperWickPct: scoring.RoundRatio(sw.UpperWickPct),
			BodyPct:      scoring.RoundRatio(sw.BodyPct),
			MovePct:      scoring.RoundRatio(sw.MovePct),
			VolumeRatio:  scoring.RoundRatio(sw.VolumeRatio),
			EMA50:        scoring.RoundPrice(sw.EMA50),
			EMA200:       scoring.RoundPrice(sw.EMA200),
		}
		return emit(sig)
	}
}

// analyzeStructure reports a break of the latest swing with the stop at the opposing
// swing and the target at 3 ATR.
func (e *Engine) analyzeStructure(ex exchanges.Exchange, tf models.Timeframe) analyzer {
	return func(ctx context.Context, t models.Ticker) Outcome {
		candles, err := ex.FetchKlines(ctx, t.Symbol, tf, structureLimit)
		if err != nil {
			return skip(skipForError(err))
		}
		closes := models.Closes(candles)
		trend := indicators.EMASeries(closes, structureTrend)
		if len(trend) != len(closes) {
			return skip(common.SkipInsufficientData)
		}
		brk, ok := detect.BreakOfStructure(candles, trend, structureSwing)
		if !ok {
			return skip(common.SkipNoSignal)
		}

		n := len(candles)
		entry := candles[n-1].Close
		stop, ok := protectiveSwing(candles, brk.Direction, entry)
		if !ok {
			return skip(common.SkipFiltered)
		}
		atr := indicators.ATR(models.Highs(candles), models.Lows(candles), closes, atrPeriod)
		target := entry + structureATRMult*at(atr, n-1)
		if brk.Direction == models.Sell {
			target = entry - structureATRMult*at(atr, n-1)
		}
		levels := scoring.Levels{Entry: entry, StopLoss: stop, TakeProfit: target}

		fast := indicators.EMA(closes, structureFast)
		slow := indicators.EMA(closes, structureSlow)
		card := scoring.ScoreStructure(scoring.StructureInput{
			Direction:   brk.Direction,
			EMAStacked:  (brk.Direction == models.Buy && fast > slow) || (brk.Direction == models.Sell && fast < slow),
			VolumeRatio: brk.VolumeRatio,
			FVG:         recentGap(candles, brk.Direction, structureFVGRange),
			RSI:         indicators.RSI(closes, rsiPeriod),
		})
		if card.Score() < scoring.StructureMinScore || levels.RiskReward() < scoring.StructureMinRR {
			return skip(common.SkipFiltered)
		}
		return emit(newSignal(ex, t.Symbol, brk.Direction, levels, card, candles[n-1].Time, 0, models.StatusActive))
	}
}

// protectiveSwing is the latest confirmed swing low below entry for a BUY, or swing high
// above entry for a SELL.
func protectiveSwing(candles []models.Candle, dir models.Direction, entry float64) (float64, bool) {
	var points []detect.SwingPoint
	if dir == models.Buy {
		points = detect.SwingLows(candles, structureSwing)
	} else {
		points = detect.SwingHighs(candles, structureSwing)
	}
	for k := len(points) - 1; k >= 0; k-- {
		p := points[k].Price
		if (dir == models.Buy && p < entry) || (dir == models.Sell && p > entry) {
			return p, true
		}
	}
	return 0, false
}

func recentGap(candles []models.Candle, dir models.Direction, within int) bool {
	gaps := detect.FairValueGaps(candles)
	for k := len(gaps) - 1; k >= 0; k-- {
		if gaps[k].Index < len(candles)-within {
			break
		}
		if gaps[k].Direction == dir {
			return true
		}
	}
	return false
}

func newSignal(ex exchanges.Exchange, symbol string, dir models.Direction, levels scoring.Levels, card *scoring.Card, ts int64, candlesAgo int, status models.Status) models.Signal {
	return models.Signal{
		Symbol:          util.BaseAsset(symbol),
		Direction:       dir,
		EntryPrice:      scoring.RoundPrice(levels.Entry),
		StopLoss:        scoring.RoundPrice(levels.StopLoss),
		TakeProfit:      scoring.RoundPrice(levels.TakeProfit),
		RiskRewardRatio: scoring.RoundRatio(levels.RiskReward()),
		Score:           card.Score(),
		Reasons:         card.Reasons(),
		Timestamp:       ts,
		Status:          status,
		SourceLink:      ex.Link(symbol),
		CandlesAgo:      candlesAgo,
	}
}

// volumeRatio divides volume[i] by the mean of the period volumes ending at i.
func volumeRatio(volumes []float64, i, period int) float64 {
	if i+1 < period {
		return 0
	}
	avg := indicators.SMA(volumes[:i+1], period)
	if avg <= 0 {
		return 0
	}
	return volumes[i] / avg
}

func at(series []float64, i int) float64 {
	if i >= 0 && i < len(series) {
		return series[i]
	}
	return 0
}
