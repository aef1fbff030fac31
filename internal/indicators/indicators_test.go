package indicators

import (
	"math"
	"testing"

	"github.com/markcheno/go-talib"
)

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/7) + 0.1*float64(i)
	}
	return out
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Abs(b))
}

func TestEMAInsufficientData(t *testing.T) {
	prices := []float64{1, 2, 3}
	if got := EMA(prices, 5); got != 0 {
		t.Fatalf("EMA = %v, want 0", got)
	}
	if got := EMASeries(prices, 5); len(got) != 0 {
		t.Fatalf("EMASeries len = %d, want 0", len(got))
	}
	if got := EMASeries(nil, 3); len(got) != 0 {
		t.Fatalf("EMASeries(nil) len = %d", len(got))
	}
	if got := EMA(prices, 0); got != 0 {
		t.Fatalf("EMA with zero period = %v", got)
	}
}

func TestEMASeriesShape(t *testing.T) {
	prices := wave(50)
	s := EMASeries(prices, 10)
	if len(s) != len(prices) {
		t.Fatalf("len = %d, want %d", len(s), len(prices))
	}
	for i := 0; i < 9; i++ {
		if s[i] != 0 {
			t.Fatalf("s[%d] = %v, want zero padding", i, s[i])
		}
	}
	if !near(s[9], mean(prices[:10]), 1e-12) {
		t.Fatalf("seed = %v, want SMA %v", s[9], mean(prices[:10]))
	}
	if s[len(s)-1] != EMA(prices, 10) {
		t.Fatalf("last series value %v != EMA %v", s[len(s)-1], EMA(prices, 10))
	}
}

func TestEMASeriesDeterministic(t *testing.T) {
	prices := wave(300)
	a := EMASeries(prices, 99)
	b := EMASeries(prices, 99)
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Fatalf("index %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEMAMatchesTalib(t *testing.T) {
	prices := wave(250)
	for _, period := range []int{5, 7, 12, 50, 99} {
		ours := EMASeries(prices, period)
		ref := talib.Ema(prices, period)
		for i := period - 1; i < len(prices); i++ {
			if !near(ours[i], ref[i], 1e-9) {
				t.Fatalf("period %d index %d: %v vs talib %v", period, i, ours[i], ref[i])
			}
		}
	}
}

func TestSMA(t *testing.T) {
	v := []float64{1, 2, 3, 4, 5}
	if got := SMA(v, 2); got != 4.5 {
		t.Fatalf("SMA = %v", got)
	}
	s := SMASeries(v, 3)
	want := []float64{0, 0, 2, 3, 4}
	for i := range want {
		if s[i] != want[i] {
			t.Fatalf("SMASeries[%d] = %v, want %v", i, s[i], want[i])
		}
	}
	if len(SMASeries(v, 6)) != 0 || SMA(v, 6) != 0 {
		t.Fatalf("short input should be empty")
	}
}

func TestRSIEdges(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if got := RSI(up, 14); got != 100 {
		t.Fatalf("RSI of rising series = %v, want 100", got)
	}
	down := make([]float64, len(up))
	for i := range up {
		down[i] = up[len(up)-1-i]
	}
	if got := RSI(down, 14); got != 0 {
		t.Fatalf("RSI of falling series = %v, want 0", got)
	}
	if got := RSI(up[:14], 14); got != 0 {
		t.Fatalf("RSI with len == period = %v, want 0", got)
	}
	flat := []float64{5, 5, 5, 5, 5, 5}
	if got := RSI(flat, 3); got != 100 {
		t.Fatalf("RSI of flat series = %v, want 100 (zero loss)", got)
	}
}

func TestRSIMatchesTalib(t *testing.T) {
	prices := wave(200)
	ours := RSISeries(prices, 14)
	ref := talib.Rsi(prices, 14)
	for i := 14; i < len(prices); i++ {
		if !near(ours[i], ref[i], 1e-8) {
			t.Fatalf("index %d: %v vs talib %v", i, ours[i], ref[i])
		}
	}
}

func TestATR(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 102
		lows[i] = 98
		closes[i] = 100
	}
	atr := ATR(highs, lows, closes, 14)
	if len(atr) != n {
		t.Fatalf("len = %d", len(atr))
	}
	if atr[12] != 0 {
		t.Fatalf("warm-up value = %v", atr[12])
	}
	for i := 13; i < n; i++ {
		if !near(atr[i], 4, 1e-12) {
			t.Fatalf("atr[%d] = %v, want 4", i, atr[i])
		}
	}
	if len(ATR(highs[:5], lows[:5], closes[:5], 14)) != 0 {
		t.Fatalf("short input should be empty")
	}
}

func TestTrueRangeGap(t *testing.T) {
	tr := TrueRange([]float64{10, 15}, []float64{9, 14}, []float64{9.5, 14.5})
	if tr[0] != 1 || tr[1] != 5.5 {
		t.Fatalf("true range = %v", tr)
	}
}

func TestStochastic(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		lows[i] = float64(i)
		highs[i] = float64(i) + 2
		closes[i] = highs[i]
	}
	res := Stochastic(highs, lows, closes, 5, 3, 3)
	if len(res.K) != n || len(res.D) != n {
		t.Fatalf("lengths %d %d", len(res.K), len(res.D))
	}
	last := n - 1
	if !near(res.K[last], 100, 1e-12) || !near(res.D[last], 100, 1e-12) {
		t.Fatalf("close at the high should read 100, got K=%v D=%v", res.K[last], res.D[last])
	}
	if res.K[5] != 0 || res.K[6] == 0 {
		t.Fatalf("unexpected warm-up boundary: K[5]=%v K[6]=%v", res.K[5], res.K[6])
	}

	flat := make([]float64, 10)
	for i := range flat {
		flat[i] = 1
	}
	fr := Stochastic(flat, flat, flat, 3, 2, 2)
	if fr.K[9] != 50 || fr.D[9] != 50 {
		t.Fatalf("flat range should read 50, got K=%v D=%v", fr.K[9], fr.D[9])
	}
}

func TestVolatility(t *testing.T) {
	if got := Volatility([]float64{100, 100, 100}); got != 0 {
		t.Fatalf("flat volatility = %v", got)
	}
	if got := Volatility([]float64{100}); got != 0 {
		t.Fatalf("single price volatility = %v", got)
	}
	if got := Volatility([]float64{100, 110, 99}); !near(got, 10, 1e-9) {
		t.Fatalf("volatility = %v, want 10", got)
	}
}
