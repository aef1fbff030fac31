// Package service runs signal scans across exchanges and serves the results in-process,
// over gRPC and to streaming subscribers.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pam-pakkiri/coinpree/internal/cache"
	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
	"github.com/pam-pakkiri/coinpree/internal/exchanges"
	"github.com/pam-pakkiri/coinpree/internal/util"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

// RankSource resolves market-cap ranks by upper-case base asset.
type RankSource interface {
	FetchRanks(ctx context.Context) (map[string]int, error)
}

type Engine struct {
	config    *config.Config
	exchanges map[string]exchanges.Exchange
	ranks     RankSource
	cache     *cache.Cache
	hub       *Hub
	log       *util.Logger

	scanTimeout time.Duration

	newID func() string
}

// NewEngine builds an adapter for every supported exchange from cfg.
func NewEngine(cfg *config.Config, c *cache.Cache) *Engine {
	exs := make(map[string]exchanges.Exchange, len(common.Exchanges))
	logger := util.NewLogger("component", "engine")
	for _, id := range common.Exchanges {
		ecfg, _ := cfg.GetExchangeConfig(id)
		ex, err := exchanges.New(id, ecfg)
		if err != nil {
			logger.Error(err, common.ErrCodeUnknownExchange, common.ErrMsgUnknownExchange, "Adapter not built", "exchange", id)
			continue
		}
		exs[id] = ex
	}
	timeout := common.DefaultRequestTimeout
	return NewEngineWith(cfg, c, exs, exchanges.NewCoinGecko(cfg.CoinGecko, timeout))
}

// NewEngineWith wires explicit adapters and rank source.
func NewEngineWith(cfg *config.Config, c *cache.Cache, exs map[string]exchanges.Exchange, ranks RankSource) *Engine {
	return &Engine{
		config:    cfg,
		exchanges: exs,
		ranks:     ranks,
		cache:     c,
		hub:       NewHub(),
		log:       util.NewLogger("component", "engine"),
		newID:     func() string { return uuid.NewString() },

		scanTimeout: common.DefaultScanTimeout,
	}
}

func (e *Engine) Hub() *Hub { return e.hub }

// ClearCache drops every cached universe, rank table and signal list.
func (e *Engine) ClearCache() { e.cache.ClearAll() }

// GetSignals runs the advanced EMA 5/12/50 strategy on one exchange. Unknown exchanges
// fall back to Binance Futures and unknown timeframes to 15m.
func (e *Engine) GetSignals(ctx context.Context, exchangeID, timeframe string) []models.Signal {
	tf := models.ParseTimeframe(timeframe, models.TF15m)
	ex := e.resolve(exchangeID)
	if ex == nil {
		return []models.Signal{}
	}
	key := fmt.Sprintf("signals:%s:%s:%s", common.StrategyAdvanced, ex.ID(), tf)
	return e.cached(ctx, key, e.config.GetSignalsTTL(), false, func(ctx context.Context, scanID string) ([]models.Signal, error) {
		return e.scan(ctx, scanID, common.StrategyAdvanced, ex, tf, advancedUniverse, e.analyzeAdvanced(ex, tf))
	})
}

// GetCrossoverSignals scans Binance Futures and Binance Spot for fresh EMA 7/99 crosses
// and merges both lists, one signal per symbol.
func (e *Engine) GetCrossoverSignals(ctx context.Context, timeframe string) []models.Signal {
	tf := models.ParseTimeframe(timeframe, models.TF1h)
	key := fmt.Sprintf("signals:%s:%s", common.StrategyCrossover, tf)
	return e.cached(ctx, key, e.config.GetSignalsTTL(), false, func(ctx context.Context, scanID string) ([]models.Signal, error) {
		ranks := e.marketCapRanks(ctx)
		ids := []string{common.ExchangeBinanceFutures, common.ExchangeBinanceSpot}
		results := make([][]models.Signal, len(ids))

		errs := make([]error, len(ids))
		var g errgroup.Group
		for i, id := range ids {
			i, ex := i, e.resolve(id)
			g.Go(func() error {
				results[i], errs[i] = e.scan(ctx, scanID, common.StrategyCrossover, ex, tf, crossoverUniverse, e.analyzeCrossover(ex, tf, ranks))
				return nil
			})
		}
		_ = g.Wait()
		// One venue failing still yields the other's signals; both failing is not cached.
		if errs[0] != nil && errs[1] != nil {
			return nil, errs[0]
		}
		return Dedup(Merge(results...), DedupBySymbol), nil
	})
}

// GetShortReversalSignals scans the limit most liquid symbols of exchange for liquidity
// sweeps of a prior swing high. "binance" is accepted for Binance Futures.
func (e *Engine) GetShortReversalSignals(ctx context.Context, timeframe, exchangeID string, limit int) []models.Signal {
	tf := models.ParseTimeframe(timeframe, models.TF1h)
	if strings.EqualFold(strings.TrimSpace(exchangeID), common.ExchangeBinanceAlias) {
		exchangeID = common.ExchangeBinanceFutures
	}
	ex := e.resolve(exchangeID)
	if ex == nil {
		return []models.Signal{}
	}
	if limit <= 0 {
		limit = common.DefaultReversalLimit
	}
	key := fmt.Sprintf("signals:%s:%s:%s:%d", common.StrategyReversal, ex.ID(), tf, limit)
	return e.cached(ctx, key, e.config.GetReversalTTL(), e.config.Cache.Persist, func(ctx context.Context, scanID string) ([]models.Signal, error) {
		universe := universeSpec{max: limit}
		return e.scan(ctx, scanID, common.StrategyReversal, ex, tf, universe, e.analyzeReversal(ex, tf))
	})
}

// GetStructureSignals scans for volume-backed breaks of structure on the trend side of EMA200.
func (e *Engine) GetStructureSignals(ctx context.Context, exchangeID, timeframe string) []models.Signal {
	tf := models.ParseTimeframe(timeframe, models.TF1h)
	ex := e.resolve(exchangeID)
	if ex == nil {
		return []models.Signal{}
	}
	key := fmt.Sprintf("signals:%s:%s:%s", common.StrategyStructure, ex.ID(), tf)
	return e.cached(ctx, key, e.config.GetSignalsTTL(), false, func(ctx context.Context, scanID string) ([]models.Signal, error) {
		return e.scan(ctx, scanID, common.StrategyStructure, ex, tf, structureUniverse, e.analyzeStructure(ex, tf))
	})
}

// resolve maps an exchange id to its adapter, falling back to Binance Futures. It is nil
// only when no Binance Futures adapter is wired.
func (e *Engine) resolve(id string) exchanges.Exchange {
	id = strings.ToLower(strings.TrimSpace(id))
	if ex, ok := e.exchanges[id]; ok {
		return ex
	}
	if id != "" {
		e.log.Warn(common.ErrCodeUnknownExchange, common.ErrMsgUnknownExchange, "Unknown exchange requested", "exchange", id)
	}
	return e.exchanges[common.ExchangeBinanceFutures]
}

// cached serves key from the cache or runs scan under a fresh scan id. The scan is
// shared by every caller waiting on key, so it runs detached from ctx's cancellation
// and is bounded by the engine scan timeout instead. A failed scan yields an empty
// list and is not cached. The result is never nil.
func (e *Engine) cached(ctx context.Context, key string, ttl time.Duration, persist bool, scan func(ctx context.Context, scanID string) ([]models.Signal, error)) []models.Signal {
	out, err := cache.WithCache(e.cache, key, func() ([]models.Signal, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.scanTimeout)
		defer cancel()
		return scan(sctx, e.newID())
	}, ttl, persist)
	if err != nil || out == nil {
		return []models.Signal{}
	}
	return out
}

// marketCapRanks returns the cached rank table; a failed lookup yields an empty table.
func (e *Engine) marketCapRanks(ctx context.Context) map[string]int {
	if e.ranks == nil {
		return map[string]int{}
	}
	ranks, err := cache.WithCache(e.cache, "ranks:coingecko", func() (map[string]int, error) {
		return e.ranks.FetchRanks(ctx)
	}, common.DefaultRankTTL, e.config.Cache.Persist)
	if err != nil {
		e.log.Error(err, common.ErrCodeRankFetchFailed, common.ErrMsgRankFetchFailed, "Market cap ranks unavailable")
		return map[string]int{}
	}
	return ranks
}
