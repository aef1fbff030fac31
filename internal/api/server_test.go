package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pam-pakkiri/coinpree/internal/service"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

type call struct {
	method, exchange, timeframe string
	limit                       int
}

type fakeScanner struct {
	hub     *service.Hub
	calls   []call
	cleared bool
	signals []models.Signal
}

func (f *fakeScanner) GetSignals(ctx context.Context, ex, tf string) []models.Signal {
	f.calls = append(f.calls, call{"advanced", ex, tf, 0})
	return f.signals
}

func (f *fakeScanner) GetCrossoverSignals(ctx context.Context, tf string) []models.Signal {
	f.calls = append(f.calls, call{"crossover", "", tf, 0})
	return f.signals
}

func (f *fakeScanner) GetShortReversalSignals(ctx context.Context, tf, ex string, limit int) []models.Signal {
	f.calls = append(f.calls, call{"reversal", ex, tf, limit})
	return f.signals
}

func (f *fakeScanner) GetStructureSignals(ctx context.Context, ex, tf string) []models.Signal {
	f.calls = append(f.calls, call{"structure", ex, tf, 0})
	return nil
}

func (f *fakeScanner) ClearCache() { f.cleared = true }
func (f *fakeScanner) Hub() *service.Hub { return f.hub }

func newFake() *fakeScanner {
	return &fakeScanner{
		hub:     service.NewHub(),
		signals: []models.Signal{{Symbol: "BTC", Direction: models.Buy, Score: 80}},
	}
}

func TestSignalRoutes(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		want   call
		status int
		count  int
	}{
		{"advanced", "/api/v1/signals?exchange=bybit&timeframe=4h", call{"advanced", "bybit", "4h", 0}, 200, 1},
		{"crossover", "/api/v1/signals/crossover?timeframe=1d", call{"crossover", "", "1d", 0}, 200, 1},
		{"reversal", "/api/v1/signals/reversal?exchange=binance&timeframe=1h&limit=20", call{"reversal", "binance", "1h", 20}, 200, 1},
		{"structure nil becomes empty", "/api/v1/signals/structure?exchange=bitget", call{"structure", "bitget", "", 0}, 200, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFake()
			srv := httptest.NewServer(NewServer(f).Routes())
			defer srv.Close()

			resp, err := http.Get(srv.URL + tc.path)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			var body struct {
				Signals []models.Signal `json:"signals"`
				Count   int             `json:"count"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Signals == nil || body.Count != tc.count || len(body.Signals) != tc.count {
				t.Fatalf("body = %+v", body)
			}
			if len(f.calls) != 1 || f.calls[0] != tc.want {
				t.Fatalf("calls = %+v, want %+v", f.calls, tc.want)
			}
		})
	}
}

func TestReversalRejectsBadLimit(t *testing.T) {
	f := newFake()
	rec := httptest.NewRecorder()
	NewServer(f).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/signals/reversal?limit=abc", nil))
	if rec.Code != http.StatusBadRequest || len(f.calls) != 0 {
		t.Fatalf("code = %d calls = %d", rec.Code, len(f.calls))
	}
}

func TestClearCacheAndHealth(t *testing.T) {
	f := newFake()
	h := NewServer(f).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/cache", nil))
	if rec.Code != http.StatusNoContent || !f.cleared {
		t.Fatalf("clear: code %d cleared %v", rec.Code, f.cleared)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestWebSocketPushesSnapshots(t *testing.T) {
	f := newFake()
	srv := httptest.NewServer(NewServer(f).Routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?strategy=crossover"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.hub.Publish(service.Snapshot{ScanID: "skip-me", Strategy: "advanced"})
	f.hub.Publish(service.Snapshot{ScanID: "s1", Strategy: "crossover", Signals: f.signals})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap service.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.ScanID != "s1" || len(snap.Signals) != 1 || snap.Signals[0].Symbol != "BTC" {
		t.Fatalf("snapshot = %+v", snap)
	}
}
