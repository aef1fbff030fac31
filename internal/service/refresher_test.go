package service

import (
	"context"
	"testing"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
)

func TestRefresherRunOnceWarmsCache(t *testing.T) {
	futures, spot := binancePair()
	e := newTestEngine(t, futures, spot)
	r := NewRefresher(e, config.RefreshConfig{
		Exchanges:  []string{common.ExchangeBinanceFutures},
		Timeframes: []string{"15m", "1h"},
	})

	r.RunOnce(context.Background())
	if futures.universeCalls.Load() == 0 || spot.klineCalls.Load() == 0 {
		t.Fatalf("refresh did not scan: universe %d spot klines %d", futures.universeCalls.Load(), spot.klineCalls.Load())
	}

	calls := spot.klineCalls.Load()
	if got := e.GetCrossoverSignals(context.Background(), ""); len(got) != 2 {
		t.Fatalf("warmed crossover result = %d signals", len(got))
	}
	if spot.klineCalls.Load() != calls {
		t.Fatalf("crossover scan was not served from the warmed cache")
	}
}

func TestRefresherRejectsBadSchedule(t *testing.T) {
	futures, spot := binancePair()
	r := NewRefresher(newTestEngine(t, futures, spot), config.RefreshConfig{})
	if err := r.Start("not a schedule"); err == nil {
		t.Fatalf("expected schedule error")
	}
	r.Stop()
}

func TestRefresherStartStop(t *testing.T) {
	futures, spot := binancePair()
	r := NewRefresher(newTestEngine(t, futures, spot), config.RefreshConfig{})
	if err := r.Start("@every 1h"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start("@every 1h"); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	r.Stop()
	r.Stop()
}

func TestRefresherRestart(t *testing.T) {
	futures, spot := binancePair()
	r := NewRefresher(newTestEngine(t, futures, spot), config.RefreshConfig{})
	if err := r.Start("@every 1h"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := r.ctx
	r.Stop()
	if first.Err() == nil {
		t.Fatalf("Stop left the job context live")
	}

	if err := r.Start("@every 1h"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer r.Stop()
	if err := r.ctx.Err(); err != nil {
		t.Fatalf("restarted job context is done: %v", err)
	}
	if n := len(r.cron.Entries()); n != 1 {
		t.Fatalf("restarted scheduler has %d entries, want 1", n)
	}
}
