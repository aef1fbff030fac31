package scoring

import (
	"math"
	"testing"

	"github.com/pam-pakkiri/coinpree/pkg/models"
)

func TestClamp(t *testing.T) {
	cases := map[float64]int{
		-20:   0,
		0:     0,
		49.4:  49,
		49.5:  50,
		100:   100,
		100.4: 100,
		180:   100,
	}
	for in, want := range cases {
		if got := Clamp(in); got != want {
			t.Fatalf("Clamp(%v) = %d, want %d", in, got, want)
		}
	}
	if Clamp(math.NaN()) != 0 {
		t.Fatalf("NaN should clamp to 0")
	}
}

func TestRiskReward(t *testing.T) {
	if got := RiskReward(100, 95, 110); got != 2.0 {
		t.Fatalf("RR = %v, want 2", got)
	}
	if got := RiskReward(100, 105, 90); got != 2.0 {
		t.Fatalf("short RR = %v, want 2", got)
	}
	if got := RiskReward(100, 100, 110); got != 0 {
		t.Fatalf("zero risk RR = %v, want 0", got)
	}
}

func TestPercentLevels(t *testing.T) {
	l := PercentLevels(models.Buy, 100, 3, 6)
	if l.StopLoss != 97 || l.TakeProfit != 106 {
		t.Fatalf("buy levels = %+v", l)
	}
	s := PercentLevels(models.Sell, 100, 3, 6)
	if s.StopLoss != 103 || s.TakeProfit != 94 {
		t.Fatalf("sell levels = %+v", s)
	}
	if math.Abs(l.RiskReward()-2) > 1e-9 {
		t.Fatalf("RR = %v", l.RiskReward())
	}
}

func TestATRLevelsAndHit(t *testing.T) {
	l := ATRLevels(models.Buy, 100, 2, 1.5, 2)
	if l.StopLoss != 97 || l.TakeProfit != 104 {
		t.Fatalf("levels = %+v", l)
	}
	for price, hit := range map[float64]bool{96.9: true, 97: true, 100: false, 104: true} {
		if l.Hit(models.Buy, price) != hit {
			t.Fatalf("Hit(%v) = %v", price, !hit)
		}
	}
	s := ATRLevels(models.Sell, 100, 2, 1.5, 2)
	if s.StopLoss != 103 || s.TakeProfit != 96 || s.Hit(models.Sell, 99) || !s.Hit(models.Sell, 103.5) {
		t.Fatalf("sell levels = %+v", s)
	}
}

func TestSweepLevels(t *testing.T) {
	l := SweepLevels(models.Candle{Open: 102, High: 106, Low: 100, Close: 101})
	if l.Entry != 100 || l.StopLoss != 106 || l.TakeProfit != 88 {
		t.Fatalf("levels = %+v", l)
	}
	if l.RiskReward() != 2 {
		t.Fatalf("RR = %v", l.RiskReward())
	}
}

func TestRoundPrice(t *testing.T) {
	cases := map[float64]float64{
		123.456789012:   123.45679,
		0.000123456789:  0.00012345679,
		65432.123456789: 65432.123,
		0:               0,
		-1.234567891:    -1.2345679,
	}
	for in, want := range cases {
		if got := RoundPrice(in); got != want {
			t.Fatalf("RoundPrice(%v) = %v, want %v", in, got, want)
		}
	}
	if RoundRatio(1.23456) != 1.23 {
		t.Fatalf("RoundRatio = %v", RoundRatio(1.23456))
	}
}

func TestScoreCrossover(t *testing.T) {
	card := ScoreCrossover(CrossoverInput{
		Direction:     models.Buy,
		CandlesAgo:    0,
		Change24h:     3,
		GapPct:        1.5,
		QuoteVolume:   2e9,
		Rank:          10,
		VolatilityPct: 6,
	})
	// 50 + 30 + 10 + 6 + 10 + 5 - 3
	if card.Score() != 100 {
		t.Fatalf("score = %d, want 100 (clamped from 108)", card.Score())
	}

	weak := ScoreCrossover(CrossoverInput{
		Direction:     models.Sell,
		CandlesAgo:    3,
		Change24h:     8,
		VolatilityPct: 20,
	})
	// 50 - 10 - 15
	if weak.Score() != 25 {
		t.Fatalf("weak score = %d, want 25", weak.Score())
	}
	if len(weak.Reasons()) == 0 {
		t.Fatalf("expected reasons")
	}
}

func TestScoreAlwaysClamped(t *testing.T) {
	for ago := 0; ago < 5; ago++ {
		for _, chg := range []float64{-50, -6, 0, 6, 50} {
			for _, vol := range []float64{0, 7, 12, 40} {
				for _, dir := range []models.Direction{models.Buy, models.Sell} {
					s := ScoreCrossover(CrossoverInput{Direction: dir, CandlesAgo: ago, Change24h: chg, VolatilityPct: vol, GapPct: 3, QuoteVolume: 5e9, Rank: 1}).Score()
					if s < 0 || s > 100 {
						t.Fatalf("score %d out of range", s)
					}
				}
			}
		}
	}
}

func TestScoreAdvanced(t *testing.T) {
	if _, ok := ScoreAdvanced(AdvancedInput{Direction: models.Buy, RSI: 75, StochK: 50}); ok {
		t.Fatalf("overbought RSI must filter a BUY")
	}
	if _, ok := ScoreAdvanced(AdvancedInput{Direction: models.Sell, RSI: 50, StochK: 10}); ok {
		t.Fatalf("oversold stochastic must filter a SELL")
	}

	card, ok := ScoreAdvanced(AdvancedInput{
		Direction:    models.Buy,
		TrendAligned: true,
		HTFAligned:   true,
		VolumeRatio:  1.5,
		RSI:          55,
		StochK:       60,
		Pattern:      true,
	})
	if !ok || card.Score() != 100 {
		t.Fatalf("score = %v %v", card, ok)
	}
	want := []string{"HTF Bullish", "High Volume", "Bullish Pattern"}
	got := card.Reasons()
	if len(got) != len(want) {
		t.Fatalf("reasons = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reasons = %v, want %v", got, want)
		}
	}

	counter, _ := ScoreAdvanced(AdvancedInput{Direction: models.Sell, RSI: 50, StochK: 50})
	if counter.Score() >= AdvancedMinScore {
		t.Fatalf("counter-trend setup without confirmation should score below %d, got %d", AdvancedMinScore, counter.Score())
	}
}

func TestScoreStructure(t *testing.T) {
	good := ScoreStructure(StructureInput{Direction: models.Buy, EMAStacked: true, VolumeRatio: 3, FVG: true, RSI: 60})
	if good.Score() != 90 {
		t.Fatalf("score = %d, want 90", good.Score())
	}
	bad := ScoreStructure(StructureInput{Direction: models.Sell, VolumeRatio: 1.6, RSI: 20})
	if bad.Score() >= StructureMinScore {
		t.Fatalf("score = %d, want below %d", bad.Score(), StructureMinScore)
	}
}

func TestScoreSweep(t *testing.T) {
	if s := ScoreSweep(true, 2.5, 70).Score(); s != 95 {
		t.Fatalf("score = %d, want 95", s)
	}
	if s := ScoreSweep(false, 0.9, 35).Score(); s != 50 {
		t.Fatalf("score = %d, want 50", s)
	}
}
