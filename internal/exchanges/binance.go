package exchanges

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
	"github.com/pam-pakkiri/coinpree/internal/util"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

// spotMinChangePercent excludes spot pairs that dumped more than half in 24h.
const spotMinChangePercent = -50

var binanceIntervals = map[models.Timeframe]string{
	models.TF5m:  "5m",
	models.TF15m: "15m",
	models.TF30m: "30m",
	models.TF1h:  "1h",
	models.TF2h:  "2h",
	models.TF4h:  "4h",
	models.TF1d:  "1d",
	models.TF1w:  "1w",
}

// Binance serves both the USDT-M futures and the spot market through go-binance.
type Binance struct {
	id         string
	spot       *binance.Client
	futures    *futures.Client
	maxSymbols int
}

func NewBinanceFutures(cfg config.ExchangeConfig) *Binance {
	c := futures.NewClient("", "")
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	c.HTTPClient = &http.Client{Timeout: cfg.GetRequestTimeout()}
	return &Binance{id: common.ExchangeBinanceFutures, futures: c, maxSymbols: cfg.GetMaxSymbols()}
}

func NewBinanceSpot(cfg config.ExchangeConfig) *Binance {
	c := binance.NewClient("", "")
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	c.HTTPClient = &http.Client{Timeout: cfg.GetRequestTimeout()}
	return &Binance{id: common.ExchangeBinanceSpot, spot: c, maxSymbols: cfg.GetMaxSymbols()}
}

func (b *Binance) ID() string { return b.id }

func (b *Binance) Link(symbol string) string {
	if b.futures != nil {
		return "https://www.binance.com/en/futures/" + symbol
	}
	return "https://www.binance.com/en/trade/" + util.SymbolToBinanceSpotPath(symbol)
}

func (b *Binance) FetchSymbolUniverse(ctx context.Context, minQuoteVolume float64) ([]models.Ticker, error) {
	var tickers []models.Ticker
	if b.futures != nil {
		stats, err := b.futures.NewListPriceChangeStatsService().Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance futures tickers: %v: %w", err, ErrNoData)
		}
		for _, s := range stats {
			if t, ok := binanceTicker(s.Symbol, s.LastPrice, s.QuoteVolume, s.PriceChangePercent); ok {
				tickers = append(tickers, t)
			}
		}
	} else {
		stats, err := b.spot.NewListPriceChangeStatsService().Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance spot tickers: %v: %w", err, ErrNoData)
		}
		for _, s := range stats {
			t, ok := binanceTicker(s.Symbol, s.LastPrice, s.QuoteVolume, s.PriceChangePercent)
			if ok && t.PriceChangePercent >= spotMinChangePercent {
				tickers = append(tickers, t)
			}
		}
	}
	return rankTickers(tickers, minQuoteVolume, b.maxSymbols), nil
}

func binanceTicker(symbol, last, quoteVolume, changePct string) (models.Ticker, bool) {
	if !isUSDTPair(symbol) {
		return models.Ticker{}, false
	}
	qv, ok := util.ParseFloat(quoteVolume)
	if !ok {
		return models.Ticker{}, false
	}
	price, _ := util.ParseFloat(last)
	change, _ := util.ParseFloat(changePct)
	return models.Ticker{Symbol: symbol, LastPrice: price, QuoteVolume: qv, PriceChangePercent: change}, true
}

func (b *Binance) FetchKlines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	interval, ok := binanceIntervals[tf]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", b.id, tf, ErrUnsupportedTimeframe)
	}
	symbol = strings.ToUpper(symbol)

	var raw []models.Candle
	if b.futures != nil {
		klines, err := b.futures.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s klines %s: %v: %w", b.id, symbol, err, ErrNoData)
		}
		raw = make([]models.Candle, 0, len(klines))
		for _, k := range klines {
			if c, ok := parseKline(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume); ok {
				raw = append(raw, c)
			}
		}
	} else {
		klines, err := b.spot.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s klines %s: %v: %w", b.id, symbol, err, ErrNoData)
		}
		raw = make([]models.Candle, 0, len(klines))
		for _, k := range klines {
			if c, ok := parseKline(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume); ok {
				raw = append(raw, c)
			}
		}
	}
	return finalize(b.id, symbol, raw, limit)
}

// parseKline converts string OHLCV fields; any malformed field drops the row.
func parseKline(openTime int64, open, high, low, close, volume string) (models.Candle, bool) {
	fields := [5]float64{}
	for i, s := range []string{open, high, low, close, volume} {
		v, ok := util.ParseFloat(s)
		if !ok {
			return models.Candle{}, false
		}
		fields[i] = v
	}
	return models.Candle{
		Time:   openTime,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, true
}
