package exchanges

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pam-pakkiri/coinpree/internal/aggregator"
	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
	"github.com/pam-pakkiri/coinpree/internal/util"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

const coinbaseBaseURL = "https://api.exchange.coinbase.com"

var defaultCoinbaseProducts = []string{
	"BTC-USD", "ETH-USD", "SOL-USD", "DOGE-USD", "XRP-USD",
	"ADA-USD", "AVAX-USD", "LINK-USD", "LTC-USD", "SHIB-USD",
}

// coinbaseGranularity is a native candle size in seconds plus how many native candles
// make one requested candle.
type coinbaseGranularity struct {
	seconds int
	factor  int
}

// 4h is served by the native 6h candle, the closest size Coinbase offers.
var coinbaseIntervals = map[models.Timeframe]coinbaseGranularity{
	models.TF5m:  {300, 1},
	models.TF15m: {900, 1},
	models.TF30m: {900, 2},
	models.TF1h:  {3600, 1},
	models.TF2h:  {3600, 2},
	models.TF4h:  {21600, 1},
	models.TF1d:  {86400, 1},
	models.TF1w:  {86400, 7},
}

// Coinbase is the Coinbase Exchange spot market.
type Coinbase struct {
	rest       *restClient
	products   []string
	maxSymbols int
}

func NewCoinbase(cfg config.ExchangeConfig) *Coinbase {
	base := cfg.BaseURL
	if base == "" {
		base = coinbaseBaseURL
	}
	products := cfg.Products
	if len(products) == 0 {
		products = defaultCoinbaseProducts
	}
	return &Coinbase{
		rest:       newRESTClient(base, cfg.GetRequestTimeout()),
		products:   products,
		maxSymbols: cfg.GetMaxSymbols(),
	}
}

func (c *Coinbase) ID() string { return common.ExchangeCoinbase }

func (c *Coinbase) Link(symbol string) string {
	return "https://www.coinbase.com/advanced-trade/spot/" + symbol
}

type coinbaseStats struct {
	Open   string `json:"open"`
	Last   string `json:"last"`
	Volume string `json:"volume"`
}

// FetchSymbolUniverse ranks the configured products by 24h quote volume. A product whose
// stats cannot be read is left out; the universe fails only when no product answers.
func (c *Coinbase) FetchSymbolUniverse(ctx context.Context, minQuoteVolume float64) ([]models.Ticker, error) {
	tickers := make([]models.Ticker, 0, len(c.products))
	var lastErr error
	for _, product := range c.products {
		var stats coinbaseStats
		if err := c.rest.getJSON(ctx, "/products/"+product+"/stats", nil, &stats); err != nil {
			lastErr = err
			continue
		}
		last, ok1 := util.ParseFloat(stats.Last)
		volume, ok2 := util.ParseFloat(stats.Volume)
		if !ok1 || !ok2 {
			continue
		}
		t := models.Ticker{Symbol: product, LastPrice: last, QuoteVolume: last * volume}
		if open, ok := util.ParseFloat(stats.Open); ok && open > 0 {
			t.PriceChangePercent = (last - open) / open * 100
		}
		tickers = append(tickers, t)
	}
	if len(tickers) == 0 && lastErr != nil {
		return nil, fmt.Errorf("coinbase products: %w", lastErr)
	}
	return rankTickers(tickers, minQuoteVolume, c.maxSymbols), nil
}

// FetchKlines reads [time, low, high, open, close, volume] rows, newest first.
func (c *Coinbase) FetchKlines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	g, ok := coinbaseIntervals[tf]
	if !ok {
		return nil, fmt.Errorf("coinbase %s: %w", tf, ErrUnsupportedTimeframe)
	}
	query := url.Values{"granularity": {strconv.Itoa(g.seconds)}}

	var rows [][]float64
	if err := c.rest.getJSON(ctx, "/products/"+strings.ToUpper(symbol)+"/candles", query, &rows); err != nil {
		return nil, fmt.Errorf("coinbase klines %s: %w", symbol, err)
	}
	raw := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		if len(r) < 6 {
			continue
		}
		raw = append(raw, models.Candle{
			Time:   int64(r[0]) * 1000,
			Low:    r[1],
			High:   r[2],
			Open:   r[3],
			Close:  r[4],
			Volume: r[5],
		})
	}
	reverseCandles(raw)

	if g.factor > 1 {
		raw = aggregator.Resample(normalize(raw), time.Duration(g.seconds*g.factor)*time.Second)
	}
	return finalize(common.ExchangeCoinbase, symbol, raw, limit)
}
