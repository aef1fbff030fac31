package service

import (
	"context"
	"math"
	"testing"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-4 }

// advancedSeries oscillates around a rising line on 15m candles so EMA5 crosses EMA12
// upward two closed candles before the live one, on doubled volume.
func advancedSeries(live float64) []models.Candle {
	out := make([]models.Candle, 0, 200)
	prev := 100.0
	for i := 0; i < 199; i++ {
		c := 100 + 0.3*float64(i) + 3*math.Sin(2*math.Pi*float64(i)/20)
		v := 100.0
		if i == 197 {
			v = 200
		}
		out = append(out, models.Candle{Time: int64(i) * 900000, Open: prev, High: math.Max(prev, c) + 1, Low: math.Min(prev, c) - 1, Close: c, Volume: v})
		prev = c
	}
	return append(out, models.Candle{Time: 199 * 900000, Open: prev, High: math.Max(prev, live) + 1, Low: math.Min(prev, live) - 1, Close: live, Volume: 100})
}

// flatSeries is n hourly candles pinned at 100.
func flatSeries(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Time: int64(i) * 3600000, Open: 100, High: 101, Low: 99, Close: 100, Volume: 100}
	}
	return out
}

// sweepSeries has one swing high at 110 and ends on last, which runs through it.
func sweepSeries(last models.Candle) []models.Candle {
	out := flatSeries(250)
	out[200].High = 110
	last.Time = out[249].Time
	out[249] = last
	return out
}

func futuresWith(symbol string, quoteVolume float64, candles []models.Candle) *fakeExchange {
	return &fakeExchange{
		id:      common.ExchangeBinanceFutures,
		tickers: []models.Ticker{{Symbol: symbol, QuoteVolume: quoteVolume}},
		klines:  map[string][]models.Candle{symbol: candles},
	}
}

func TestAdvancedSignal(t *testing.T) {
	ex := futuresWith("SOLUSDT", 1e8, advancedSeries(157))
	e := newTestEngine(t, ex)

	got := e.GetSignals(context.Background(), common.ExchangeBinanceFutures, "15m")
	if len(got) != 1 {
		t.Fatalf("got %d signals: %+v", len(got), got)
	}
	s := got[0]
	if s.Symbol != "SOL" || s.Direction != models.Buy || s.Status != models.StatusActive || s.Strategy != common.StrategyAdvanced {
		t.Fatalf("signal = %+v", s)
	}
	if s.Score != 85 || s.CandlesAgo != 2 || s.Timestamp != 197*900000 {
		t.Fatalf("score %d candlesAgo %d timestamp %d", s.Score, s.CandlesAgo, s.Timestamp)
	}
	if s.EntryPrice != 157 || !near(s.StopLoss, 152.86401) || !near(s.TakeProfit, 161.75153) || s.RiskRewardRatio != 1.15 {
		t.Fatalf("levels = %v %v %v rr %v", s.EntryPrice, s.StopLoss, s.TakeProfit, s.RiskRewardRatio)
	}
}

func TestAdvancedDiscardsHitLevels(t *testing.T) {
	tests := []struct {
		name string
		live float64
	}{
		{"above target", 170},
		{"below stop", 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, futuresWith("SOLUSDT", 1e8, advancedSeries(tt.live)))
			if got := e.GetSignals(context.Background(), common.ExchangeBinanceFutures, "15m"); len(got) != 0 {
				t.Fatalf("live %v: got %+v", tt.live, got)
			}
		})
	}
}

func TestAdvancedUniverseFloor(t *testing.T) {
	ex := futuresWith("SOLUSDT", 1e6, advancedSeries(157))
	e := newTestEngine(t, ex)
	if got := e.GetSignals(context.Background(), common.ExchangeBinanceFutures, "15m"); len(got) != 0 {
		t.Fatalf("illiquid symbol scanned: %+v", got)
	}
	if ex.klineCalls.Load() != 0 {
		t.Fatalf("fetched klines below the volume floor")
	}
}

func TestStructureSignal(t *testing.T) {
	candles := flatSeries(300)
	candles[290].High = 104
	candles[292].Low = 98.5
	candles[299] = models.Candle{Time: candles[299].Time, Open: 101.5, High: 106, Low: 101.5, Close: 105, Volume: 300}
	e := newTestEngine(t, futuresWith("AVAXUSDT", 5e7, candles))

	got := e.GetStructureSignals(context.Background(), common.ExchangeBinanceFutures, "1h")
	if len(got) != 1 {
		t.Fatalf("got %d signals: %+v", len(got), got)
	}
	s := got[0]
	if s.Direction != models.Buy || s.Status != models.StatusActive || s.CandlesAgo != 0 || s.Timestamp != candles[299].Time {
		t.Fatalf("signal = %+v", s)
	}
	if s.Score != 80 {
		t.Fatalf("score = %d, reasons %v", s.Score, s.Reasons)
	}
	if s.EntryPrice != 105 || s.StopLoss != 98.5 || !near(s.TakeProfit, 112.25087) || s.RiskRewardRatio != 1.12 {
		t.Fatalf("levels = %v %v %v rr %v", s.EntryPrice, s.StopLoss, s.TakeProfit, s.RiskRewardRatio)
	}
}

func TestStructureNeedsVolume(t *testing.T) {
	candles := flatSeries(300)
	candles[290].High = 104
	candles[292].Low = 98.5
	candles[299] = models.Candle{Time: candles[299].Time, Open: 101.5, High: 106, Low: 101.5, Close: 105, Volume: 120}
	e := newTestEngine(t, futuresWith("AVAXUSDT", 5e7, candles))
	if got := e.GetStructureSignals(context.Background(), common.ExchangeBinanceFutures, "1h"); len(got) != 0 {
		t.Fatalf("low-volume break emitted: %+v", got)
	}
}

func TestReversalSignal(t *testing.T) {
	tests := []struct {
		name   string
		last   models.Candle
		setup  string
		status models.Status
		score  int
		wick   float64
	}{
		{
			name:   "bearish close confirms",
			last:   models.Candle{Open: 108, High: 112, Low: 104, Close: 105, Volume: 300},
			setup:  "CONFIRMED",
			status: models.StatusActive,
			score:  85,
			wick:   50,
		},
		{
			name:   "bullish close stays potential",
			last:   models.Candle{Open: 104.5, High: 112, Low: 104, Close: 105, Volume: 300},
			setup:  "POTENTIAL",
			status: models.StatusPending,
			score:  75,
			wick:   87.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, futuresWith("DOGEUSDT", 1e7, sweepSeries(tt.last)))
			got := e.GetShortReversalSignals(context.Background(), "1h", common.ExchangeBinanceAlias, 5)
			if len(got) != 1 {
				t.Fatalf("got %d signals: %+v", len(got), got)
			}
			s := got[0]
			if s.Direction != models.Sell || s.Status != tt.status || s.Score != tt.score || s.CandlesAgo != 0 {
				t.Fatalf("direction %s status %s score %d candlesAgo %d", s.Direction, s.Status, s.Score, s.CandlesAgo)
			}
			if s.EntryPrice != 104 || s.StopLoss != 112 || s.TakeProfit != 88 || s.RiskRewardRatio != 2 {
				t.Fatalf("levels = %v %v %v rr %v", s.EntryPrice, s.StopLoss, s.TakeProfit, s.RiskRewardRatio)
			}
			x := s.Exhaustion
			if x == nil || x.Setup != tt.setup || x.UpperWickPct != tt.wick || x.VolumeRatio != 2.73 || x.High != 112 {
				t.Fatalf("exhaustion = %+v", x)
			}
		})
	}
}

func TestReversalOrdersConfirmedFirst(t *testing.T) {
	ex := &fakeExchange{
		id: common.ExchangeBinanceFutures,
		tickers: []models.Ticker{
			{Symbol: "AAAUSDT", QuoteVolume: 3e7},
			{Symbol: "BBBUSDT", QuoteVolume: 2e7},
			{Symbol: "CCCUSDT", QuoteVolume: 1e7},
		},
		klines: map[string][]models.Candle{
			// Potential sweep on heavy volume with a long wick: score 75.
			"AAAUSDT": sweepSeries(models.Candle{Open: 104.5, High: 112, Low: 104, Close: 105, Volume: 300}),
			// Confirmed sweep on average volume: score 70.
			"BBBUSDT": sweepSeries(models.Candle{Open: 108, High: 112, Low: 104, Close: 105, Volume: 90}),
			// Confirmed sweep on heavy volume: score 85.
			"CCCUSDT": sweepSeries(models.Candle{Open: 108, High: 112, Low: 104, Close: 105, Volume: 300}),
		},
	}
	e := newTestEngine(t, ex)

	got := e.GetShortReversalSignals(context.Background(), "1h", common.ExchangeBinanceFutures, 5)
	if len(got) != 3 {
		t.Fatalf("got %d signals: %+v", len(got), got)
	}
	want := []struct {
		symbol string
		score  int
	}{{"CCC", 85}, {"BBB", 70}, {"AAA", 75}}
	for i, w := range want {
		if got[i].Symbol != w.symbol || got[i].Score != w.score {
			t.Fatalf("position %d = %s score %d, want %s score %d", i, got[i].Symbol, got[i].Score, w.symbol, w.score)
		}
	}
}

func TestSortReversals(t *testing.T) {
	signals := []models.Signal{
		{Symbol: "P", Status: models.StatusPending, Score: 90, Exhaustion: &models.ExhaustionCandle{VolumeRatio: 5}},
		{Symbol: "B", Status: models.StatusActive, Score: 60, Exhaustion: &models.ExhaustionCandle{VolumeRatio: 1.2}},
		{Symbol: "A", Status: models.StatusActive, Score: 60, Exhaustion: &models.ExhaustionCandle{VolumeRatio: 1.2}},
		{Symbol: "C", Status: models.StatusActive, Score: 50, Exhaustion: &models.ExhaustionCandle{VolumeRatio: 3}},
		{Symbol: "N", Status: models.StatusActive, Score: 99},
	}
	SortReversals(signals)
	want := []string{"C", "A", "B", "N", "P"}
	for i, w := range want {
		if signals[i].Symbol != w {
			t.Fatalf("position %d = %s, want %s", i, signals[i].Symbol, w)
		}
	}
}
