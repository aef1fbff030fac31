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
	bitgetBaseURL     = "https://api.bitget.com"
	bitgetMaxLimit    = 1000
	bitgetProductType = "USDT-FUTURES"
	bitgetSuccess     = "00000"
)

var bitgetIntervals = map[models.Timeframe]string{
	models.TF5m:  "5m",
	models.TF15m: "15m",
	models.TF30m: "30m",
	models.TF1h:  "1H",
	models.TF2h:  "2H",
	models.TF4h:  "4H",
	models.TF1d:  "1D",
	models.TF1w:  "1W",
}

// Bitget is the Bitget USDT-M futures market (v2 mix API).
type Bitget struct {
	rest       *restClient
	maxSymbols int
}

func NewBitget(cfg config.ExchangeConfig) *Bitget {
	base := cfg.BaseURL
	if base == "" {
		base = bitgetBaseURL
	}
	return &Bitget{rest: newRESTClient(base, cfg.GetRequestTimeout()), maxSymbols: cfg.GetMaxSymbols()}
}

func (b *Bitget) ID() string { return common.ExchangeBitget }

func (b *Bitget) Link(symbol string) string {
	return "https://www.bitget.com/futures/usdt/" + symbol
}

type bitgetEnvelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

type bitgetTicker struct {
	Symbol      string `json:"symbol"`
	LastPr      string `json:"lastPr"`
	UsdtVolume  string `json:"usdtVolume"`
	QuoteVolume string `json:"quoteVolume"`
	Change24h   string `json:"change24h"`
}

func getBitget[T any](ctx context.Context, rest *restClient, path string, query url.Values) ([]T, error) {
	var env bitgetEnvelope[T]
	if err := rest.getJSON(ctx, path, query, &env); err != nil {
		return nil, err
	}
	if env.Code != bitgetSuccess {
		return nil, fmt.Errorf("code %s %s: %w", env.Code, env.Msg, ErrNoData)
	}
	return env.Data, nil
}

func (b *Bitget) FetchSymbolUniverse(ctx context.Context, minQuoteVolume float64) ([]models.Ticker, error) {
	data, err := getBitget[bitgetTicker](ctx, b.rest, "/api/v2/mix/market/tickers", url.Values{"productType": {bitgetProductType}})
	if err != nil {
		return nil, fmt.Errorf("bitget tickers: %w", err)
	}
	tickers := make([]models.Ticker, 0, len(data))
	for _, t := range data {
		if !isUSDTPair(t.Symbol) {
			continue
		}
		qv, ok := util.ParseFloat(t.UsdtVolume)
		if !ok {
			if qv, ok = util.ParseFloat(t.QuoteVolume); !ok {
				continue
			}
		}
		last, _ := util.ParseFloat(t.LastPr)
		change, _ := util.ParseFloat(t.Change24h)
		tickers = append(tickers, models.Ticker{
			Symbol:             t.Symbol,
			LastPrice:          last,
			QuoteVolume:        qv,
			PriceChangePercent: change * 100,
		})
	}
	return rankTickers(tickers, minQuoteVolume, b.maxSymbols), nil
}

// FetchKlines reads [ts, open, high, low, close, baseVolume, quoteVolume] string rows.
func (b *Bitget) FetchKlines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	granularity, ok := bitgetIntervals[tf]
	if !ok {
		return nil, fmt.Errorf("bitget %s: %w", tf, ErrUnsupportedTimeframe)
	}
	symbol = strings.ToUpper(symbol)
	query := url.Values{
		"symbol":      {symbol},
		"granularity": {granularity},
		"limit":       {strconv.Itoa(clampLimit(limit, bitgetMaxLimit))},
		"productType": {bitgetProductType},
	}
	rows, err := getBitget[[]string](ctx, b.rest, "/api/v2/mix/market/candles", query)
	if err != nil {
		return nil, fmt.Errorf("bitget klines %s: %w", symbol, err)
	}
	return finalize(common.ExchangeBitget, symbol, parseStringRows(rows), limit)
}
