package common

import "time"

const (
	DefaultConfigPath = "./configs/config.yml"
	DefaultEnvPath    = ".env"
	DefaultCacheDir   = ".cache"
	DefaultHTTPAddr   = ":8080"
	DefaultGRPCPort   = 50051

	ExchangeBinanceFutures = "binance_futures"
	ExchangeBinanceSpot    = "binance_spot"
	ExchangeCoinbase       = "coinbase"
	ExchangeCoinbaseIntl   = "coinbase_intl"
	ExchangeBybit          = "bybit"
	ExchangeBitget         = "bitget"

	// ExchangeBinanceAlias is accepted by the reversal scanner for Binance Futures.
	ExchangeBinanceAlias = "binance"

	StrategyAdvanced  = "advanced"
	StrategyCrossover = "crossover"
	StrategyReversal  = "reversal"
	StrategyStructure = "structure"

	// MinCandles is the shortest series an adapter returns; a 99-period EMA needs it to settle.
	MinCandles = 100

	DefaultRequestTimeout = 10 * time.Second
	DefaultBatchSize      = 20
	DefaultBatchDelay     = 100 * time.Millisecond
	DefaultUniverseTTL    = time.Minute
	DefaultSignalsTTL     = 30 * time.Second
	DefaultReversalTTL    = time.Minute
	DefaultRankTTL        = 5 * time.Minute
	DefaultRefreshSpec    = "@every 60s"
	DefaultReversalLimit  = 80
	DefaultScanTimeout    = 2 * time.Minute

	ListenerChannelSize = 16
	MaxGRPCMessageSize  = 1024 * 1024 * 10 // 10MB
)

// Exchanges lists every supported exchange id.
var Exchanges = []string{
	ExchangeBinanceFutures,
	ExchangeBinanceSpot,
	ExchangeCoinbase,
	ExchangeCoinbaseIntl,
	ExchangeBybit,
	ExchangeBitget,
}
