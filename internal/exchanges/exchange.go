package exchanges

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

var (
	// ErrNoData covers non-2xx responses, malformed payloads, exchange error envelopes
	// and series shorter than common.MinCandles.
	ErrNoData = errors.New("no data")
	// ErrUnsupportedTimeframe is returned for a timeframe the exchange cannot serve.
	ErrUnsupportedTimeframe = errors.New("unsupported timeframe")
	// ErrInsufficientData marks a valid response with too short a series. It matches
	// ErrNoData under errors.Is.
	ErrInsufficientData = fmt.Errorf("insufficient data: %w", ErrNoData)
)

// Exchange is a read-only market data source.
type Exchange interface {
	ID() string
	// FetchSymbolUniverse lists tradable symbols with at least minQuoteVolume of 24h
	// quote volume, most liquid first.
	FetchSymbolUniverse(ctx context.Context, minQuoteVolume float64) ([]models.Ticker, error)
	// FetchKlines returns at most limit ascending, validated candles.
	FetchKlines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error)
	// Link returns the exchange trade page for symbol.
	Link(symbol string) string
}

// New builds the adapter for an exchange id.
func New(id string, cfg config.ExchangeConfig) (Exchange, error) {
	switch id {
	case common.ExchangeBinanceFutures:
		return NewBinanceFutures(cfg), nil
	case common.ExchangeBinanceSpot:
		return NewBinanceSpot(cfg), nil
	case common.ExchangeCoinbase:
		return NewCoinbase(cfg), nil
	case common.ExchangeCoinbaseIntl:
		return NewCoinbaseIntl(cfg), nil
	case common.ExchangeBybit:
		return NewBybit(cfg), nil
	case common.ExchangeBitget:
		return NewBitget(cfg), nil
	}
	return nil, fmt.Errorf("unknown exchange %q", id)
}

// finalize validates and orders raw candles and enforces the minimum series length.
func finalize(exchange, symbol string, raw []models.Candle, limit int) ([]models.Candle, error) {
	candles := normalize(raw)
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	if len(candles) < common.MinCandles {
		return nil, fmt.Errorf("%s klines %s: %d candles: %w", exchange, symbol, len(candles), ErrInsufficientData)
	}
	return candles, nil
}

// normalize drops invalid candles and returns the rest in ascending time order with
// one candle per timestamp.
func normalize(raw []models.Candle) []models.Candle {
	out := make([]models.Candle, 0, len(raw))
	for _, c := range raw {
		if c.Valid() {
			out = append(out, c)
		}
	}
	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].Time < out[j].Time }) {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	}
	deduped := out[:0]
	for i, c := range out {
		if i > 0 && c.Time == deduped[len(deduped)-1].Time {
			deduped[len(deduped)-1] = c
			continue
		}
		deduped = append(deduped, c)
	}
	return deduped
}

// reverseCandles flips newest-first responses in place.
func reverseCandles(c []models.Candle) {
	for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
		c[i], c[j] = c[j], c[i]
	}
}

// rankTickers keeps tickers at or above minQuoteVolume, sorted by quote volume descending
// and capped at max when max > 0.
func rankTickers(tickers []models.Ticker, minQuoteVolume float64, max int) []models.Ticker {
	out := make([]models.Ticker, 0, len(tickers))
	for _, t := range tickers {
		if t.QuoteVolume >= minQuoteVolume {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].QuoteVolume != out[j].QuoteVolume {
			return out[i].QuoteVolume > out[j].QuoteVolume
		}
		return out[i].Symbol < out[j].Symbol
	})
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func isUSDTPair(symbol string) bool {
	return strings.HasSuffix(symbol, "USDT") && len(symbol) > len("USDT")
}
