package service

import (
	"testing"

	"github.com/pam-pakkiri/coinpree/pkg/models"
)

func TestMergeAndDedup(t *testing.T) {
	futures := []models.Signal{
		{Symbol: "BTC", Direction: models.Buy, Score: 70, Exchange: "binance_futures"},
		{Symbol: "SOL", Direction: models.Sell, Score: 55},
	}
	spot := []models.Signal{
		{Symbol: "BTC", Direction: models.Buy, Score: 85, Exchange: "binance_spot"},
		{Symbol: "SOL", Direction: models.Buy, Score: 60},
	}

	merged := Merge(futures, spot)
	if len(merged) != 4 || merged[0].Score != 85 {
		t.Fatalf("merged = %+v", merged)
	}

	bySymbol := Dedup(merged, DedupBySymbol)
	if len(bySymbol) != 2 {
		t.Fatalf("by symbol = %+v", bySymbol)
	}
	if bySymbol[0].Symbol != "BTC" || bySymbol[0].Exchange != "binance_spot" {
		t.Fatalf("higher scored BTC not kept: %+v", bySymbol[0])
	}
	if bySymbol[1].Direction != models.Buy {
		t.Fatalf("SOL kept the lower score")
	}

	if got := Dedup(merged, DedupBySymbolDirection); len(got) != 3 {
		t.Fatalf("by symbol+direction = %d, want 3", len(got))
	}
}

func TestSortSignalsTieBreaks(t *testing.T) {
	s := []models.Signal{
		{Symbol: "ETH", Score: 60, CandlesAgo: 2},
		{Symbol: "BTC", Score: 60, CandlesAgo: 2},
		{Symbol: "XRP", Score: 60, CandlesAgo: 0},
		{Symbol: "ADA", Score: 90, CandlesAgo: 5},
	}
	SortSignals(s)
	want := []string{"ADA", "XRP", "BTC", "ETH"}
	for i, sym := range want {
		if s[i].Symbol != sym {
			t.Fatalf("position %d = %s, want %s", i, s[i].Symbol, sym)
		}
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	for i := 0; i < 40; i++ {
		h.Publish(Snapshot{ScanID: "x"})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffer holds %d of %d", len(ch), cap(ch))
	}
	cancel()
	cancel()
	if h.Subscribers() != 0 {
		t.Fatalf("subscriber not removed")
	}
	h.Publish(Snapshot{})
}
