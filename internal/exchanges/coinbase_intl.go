package exchanges

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pam-pakkiri/coinpree/internal/aggregator"
	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

const coinbaseIntlBaseURL = "https://api.international.coinbase.com"

type intlGranularity struct {
	name     string
	duration time.Duration
	factor   int
}

// 4h is served by SIX_HOUR, the closest native size.
var coinbaseIntlIntervals = map[models.Timeframe]intlGranularity{
	models.TF5m:  {"FIVE_MINUTE", 5 * time.Minute, 1},
	models.TF15m: {"FIFTEEN_MINUTE", 15 * time.Minute, 1},
	models.TF30m: {"THIRTY_MINUTE", 30 * time.Minute, 1},
	models.TF1h:  {"ONE_HOUR", time.Hour, 1},
	models.TF2h:  {"TWO_HOUR", 2 * time.Hour, 1},
	models.TF4h:  {"SIX_HOUR", 6 * time.Hour, 1},
	models.TF1d:  {"ONE_DAY", 24 * time.Hour, 1},
	models.TF1w:  {"ONE_DAY", 24 * time.Hour, 7},
}

// CoinbaseIntl is the Coinbase International perpetual futures venue. Its payloads vary
// between an {"aggregations": [...]} envelope and a bare array, so they are read with gjson.
type CoinbaseIntl struct {
	rest       *restClient
	maxSymbols int
	now        func() time.Time
}

func NewCoinbaseIntl(cfg config.ExchangeConfig) *CoinbaseIntl {
	base := cfg.BaseURL
	if base == "" {
		base = coinbaseIntlBaseURL
	}
	return &CoinbaseIntl{
		rest:       newRESTClient(base, cfg.GetRequestTimeout()),
		maxSymbols: cfg.GetMaxSymbols(),
		now:        time.Now,
	}
}

func (c *CoinbaseIntl) ID() string { return common.ExchangeCoinbaseIntl }

func (c *CoinbaseIntl) Link(symbol string) string {
	return "https://international.coinbase.com/trade/" + symbol
}

// FetchSymbolUniverse lists active perpetual instruments ranked by 24h notional.
func (c *CoinbaseIntl) FetchSymbolUniverse(ctx context.Context, minQuoteVolume float64) ([]models.Ticker, error) {
	body, err := c.rest.getRaw(ctx, "/api/v1/instruments", nil)
	if err != nil {
		return nil, fmt.Errorf("coinbase intl instruments: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("coinbase intl instruments: malformed json: %w", ErrNoData)
	}
	list := gjson.ParseBytes(body)
	if !list.IsArray() {
		return nil, fmt.Errorf("coinbase intl instruments: not a list: %w", ErrNoData)
	}

	var tickers []models.Ticker
	list.ForEach(func(_, item gjson.Result) bool {
		if item.Get("type").String() != "PERPETUAL" || !intlActive(item) {
			return true
		}
		id := item.Get("instrument_id").String()
		if id == "" {
			id = item.Get("symbol").String()
		}
		if id == "" {
			return true
		}
		tickers = append(tickers, models.Ticker{
			Symbol:      id,
			LastPrice:   firstFloat(item, "quote.mark_price", "mark_price", "index_price"),
			QuoteVolume: firstFloat(item, "notional_24hr", "quote_volume_24h"),
		})
		return true
	})
	return rankTickers(tickers, minQuoteVolume, c.maxSymbols), nil
}

func intlActive(item gjson.Result) bool {
	if s := item.Get("trading_state"); s.Exists() {
		return s.String() == "TRADING"
	}
	if s := item.Get("status"); s.Exists() {
		return s.String() == "ACTIVE"
	}
	return true
}

func firstFloat(item gjson.Result, paths ...string) float64 {
	for _, p := range paths {
		if v := item.Get(p); v.Exists() {
			return v.Float()
		}
	}
	return 0
}

func (c *CoinbaseIntl) FetchKlines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	g, ok := coinbaseIntlIntervals[tf]
	if !ok {
		return nil, fmt.Errorf("coinbase intl %s: %w", tf, ErrUnsupportedTimeframe)
	}
	span := time.Duration(limit*g.factor+1) * g.duration
	query := url.Values{
		"granularity": {g.name},
		"start":       {c.now().Add(-span).UTC().Format(time.RFC3339)},
	}
	body, err := c.rest.getRaw(ctx, "/api/v1/instruments/"+strings.ToUpper(symbol)+"/candles", query)
	if err != nil {
		return nil, fmt.Errorf("coinbase intl klines %s: %w", symbol, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("coinbase intl klines %s: malformed json: %w", symbol, ErrNoData)
	}

	rows := gjson.GetBytes(body, "aggregations")
	if !rows.Exists() {
		rows = gjson.ParseBytes(body)
	}
	if !rows.IsArray() {
		return nil, fmt.Errorf("coinbase intl klines %s: unexpected payload: %w", symbol, ErrNoData)
	}

	var raw []models.Candle
	rows.ForEach(func(_, r gjson.Result) bool {
		start, err := time.Parse(time.RFC3339, r.Get("start").String())
		if err != nil {
			return true
		}
		raw = append(raw, models.Candle{
			Time:   start.UnixMilli(),
			Open:   r.Get("open").Float(),
			High:   r.Get("high").Float(),
			Low:    r.Get("low").Float(),
			Close:  r.Get("close").Float(),
			Volume: r.Get("volume").Float(),
		})
		return true
	})
	if len(raw) > 1 && raw[0].Time > raw[len(raw)-1].Time {
		reverseCandles(raw)
	}

	if g.factor > 1 {
		raw = aggregator.Resample(normalize(raw), time.Duration(g.factor)*g.duration)
	}
	return finalize(common.ExchangeCoinbaseIntl, symbol, raw, limit)
}
