package exchanges

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
	"github.com/pam-pakkiri/coinpree/internal/util"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

const (
	bybitBaseURL  = "https://api.bybit.com"
	bybitMaxLimit = 1000
)

var bybitIntervals = map[models.Timeframe]string{
	models.TF5m:  "5",
	models.TF15m: "15",
	models.TF30m: "30",
	models.TF1h:  "60",
	models.TF2h:  "120",
	models.TF4h:  "240",
	models.TF1d:  "D",
	models.TF1w:  "W",
}

// Bybit is the Bybit USDT linear perpetual market (v5 API).
type Bybit struct {
	rest       *restClient
	maxSymbols int
}

func NewBybit(cfg config.ExchangeConfig) *Bybit {
	base := cfg.BaseURL
	if base == "" {
		base = bybitBaseURL
	}
	return &Bybit{rest: newRESTClient(base, cfg.GetRequestTimeout()), maxSymbols: cfg.GetMaxSymbols()}
}

func (b *Bybit) ID() string { return common.ExchangeBybit }

func (b *Bybit) Link(symbol string) string {
	return "https://www.bybit.com/trade/usdt/" + symbol
}

// bybitEnvelope is the v5 response wrapper; any retCode other than 0 is an error.
type bybitEnvelope[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []T `json:"list"`
	} `json:"result"`
}

type bybitTicker struct {
	Symbol       string `json:"symbol"`
	LastPrice    string `json:"lastPrice"`
	Turnover24h  string `json:"turnover24h"`
	Price24hPcnt string `json:"price24hPcnt"`
}

func (b *Bybit) get(ctx context.Context, path string, query url.Values, out interface{ code() (int, string) }) error {
	if err := b.rest.getJSON(ctx, path, query, out); err != nil {
		return err
	}
	if code, msg := out.code(); code != 0 {
		return fmt.Errorf("retCode %d %s: %w", code, msg, ErrNoData)
	}
	return nil
}

func (e *bybitEnvelope[T]) code() (int, string) { return e.RetCode, e.RetMsg }

func (b *Bybit) FetchSymbolUniverse(ctx context.Context, minQuoteVolume float64) ([]models.Ticker, error) {
	var env bybitEnvelope[bybitTicker]
	if err := b.get(ctx, "/v5/market/tickers", url.Values{"category": {"linear"}}, &env); err != nil {
		return nil, fmt.Errorf("bybit tickers: %w", err)
	}
	tickers := make([]models.Ticker, 0, len(env.Result.List))
	for _, t := range env.Result.List {
		if !isUSDTPair(t.Symbol) {
			continue
		}
		qv, ok := util.ParseFloat(t.Turnover24h)
		if !ok {
			continue
		}
		last, _ := util.ParseFloat(t.LastPrice)
		change, _ := util.ParseFloat(t.Price24hPcnt)
		tickers = append(tickers, models.Ticker{
			Symbol:             t.Symbol,
			LastPrice:          last,
			QuoteVolume:        qv,
			PriceChangePercent: change * 100,
		})
	}
	return rankTickers(tickers, minQuoteVolume, b.maxSymbols), nil
}

// FetchKlines reads [start, open, high, low, close, volume, turnover] string rows, newest first.
func (b *Bybit) FetchKlines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	interval, ok := bybitIntervals[tf]
	if !ok {
		return nil, fmt.Errorf("bybit %s: %w", tf, ErrUnsupportedTimeframe)
	}
	symbol = strings.ToUpper(symbol)
	query := url.Values{
		"category": {"linear"},
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(clampLimit(limit, bybitMaxLimit))},
	}
	var env bybitEnvelope[[]string]
	if err := b.get(ctx, "/v5/market/kline", query, &env); err != nil {
		return nil, fmt.Errorf("bybit klines %s: %w", symbol, err)
	}
	raw := parseStringRows(env.Result.List)
	reverseCandles(raw)
	return finalize(common.ExchangeBybit, symbol, raw, limit)
}

// parseStringRows converts [ts, open, high, low, close, volume, ...] rows; short or
// malformed rows are dropped.
func parseStringRows(rows [][]string) []models.Candle {
	out := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		if len(r) < 6 {
			continue
		}
		ts, err := strconv.ParseInt(r[0], 10, 64)
		if err != nil {
			continue
		}
		if c, ok := parseKline(ts, r[1], r[2], r[3], r[4], r[5]); ok {
			out = append(out, c)
		}
	}
	return out
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
