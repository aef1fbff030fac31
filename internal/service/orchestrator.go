package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pam-pakkiri/coinpree/internal/cache"
	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/exchanges"
	"github.com/pam-pakkiri/coinpree/internal/util"
	"github.com/pam-pakkiri/coinpree/pkg/models"
)

// Outcome is the result of scanning one symbol: a signal, or the reason there is none.
type Outcome struct {
	Signal *models.Signal
	Skip   common.SkipReason
}

func skip(reason common.SkipReason) Outcome { return Outcome{Skip: reason} }

func emit(s models.Signal) Outcome { return Outcome{Signal: &s} }

// analyzer turns one universe entry into an Outcome.
type analyzer func(ctx context.Context, t models.Ticker) Outcome

// universeSpec bounds the symbols a strategy scans: at least minQuoteVolume of 24h
// volume, at most max symbols (spotMax on Binance Spot when set). A configured
// exchange volume floor wins.
type universeSpec struct {
	minQuoteVolume float64
	max            int
	spotMax        int
}

var (
	advancedUniverse  = universeSpec{minQuoteVolume: 50e6, max: 30}
	crossoverUniverse = universeSpec{minQuoteVolume: 5e6, max: 100, spotMax: 150}
	structureUniverse = universeSpec{minQuoteVolume: 20e6, max: 50}
)

func (e *Engine) universeFor(ex exchanges.Exchange, spec universeSpec) universeSpec {
	ecfg, _ := e.config.GetExchangeConfig(ex.ID())
	if ecfg.MinQuoteVolume > 0 {
		spec.minQuoteVolume = ecfg.MinQuoteVolume
	}
	if spec.spotMax > 0 && ex.ID() == common.ExchangeBinanceSpot {
		spec.max = spec.spotMax
	}
	// Coinbase venues list few instruments; no default floor applies there.
	if (ex.ID() == common.ExchangeCoinbase || ex.ID() == common.ExchangeCoinbaseIntl) && ecfg.MinQuoteVolume == 0 {
		spec.minQuoteVolume = 0
	}
	return spec
}

// universe returns the ranked symbol list of ex, cached per exchange and volume floor.
func (e *Engine) universe(ctx context.Context, ex exchanges.Exchange, spec universeSpec) ([]models.Ticker, error) {
	key := fmt.Sprintf("universe:%s:%.0f", ex.ID(), spec.minQuoteVolume)
	tickers, err := cache.WithCache(e.cache, key, func() ([]models.Ticker, error) {
		return ex.FetchSymbolUniverse(ctx, spec.minQuoteVolume)
	}, e.config.GetUniverseTTL(), false)
	if err != nil {
		return nil, err
	}
	if spec.max > 0 && len(tickers) > spec.max {
		tickers = tickers[:spec.max]
	}
	return tickers, nil
}

// scan resolves the universe of ex and runs analyze over it in batches. It returns an
// error only when the universe cannot be resolved or ctx ends, so callers never cache
// a partial scan.
func (e *Engine) scan(ctx context.Context, scanID, strategy string, ex exchanges.Exchange, tf models.Timeframe, spec universeSpec, analyze analyzer) ([]models.Signal, error) {
	if ex == nil {
		return []models.Signal{}, nil
	}
	logger := e.log.With("scan_id", scanID, "strategy", strategy, "exchange", ex.ID(), "timeframe", tf.String())
	start := time.Now()

	tickers, err := e.universe(ctx, ex, e.universeFor(ex, spec))
	if err != nil {
		logger.Error(err, common.ErrCodeUniverseFetchFailed, common.ErrMsgUniverseFetchFailed, "Scan aborted")
		return nil, err
	}

	ecfg, _ := e.config.GetExchangeConfig(ex.ID())
	outcomes := runBatches(ctx, tickers, ecfg.GetBatchSize(), ecfg.GetBatchDelay(), analyze, logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signals := make([]models.Signal, 0)
	skips := make(map[common.SkipReason]int)
	for _, o := range outcomes {
		if o.Signal == nil {
			skips[o.Skip]++
			continue
		}
		sig := *o.Signal
		sig.ID = e.newID()
		sig.Exchange = ex.ID()
		sig.Timeframe = tf.String()
		sig.Strategy = strategy
		signals = append(signals, sig)
	}
	orderFor(strategy)(signals)

	logger.Info("Scan complete",
		"symbols", len(tickers),
		"signals", len(signals),
		"skipped", skips,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	e.hub.Publish(Snapshot{
		ScanID:      scanID,
		Strategy:    strategy,
		Exchange:    ex.ID(),
		Timeframe:   tf.String(),
		GeneratedAt: time.Now().UnixMilli(),
		Signals:     signals,
	})
	return signals, nil
}

// runBatches analyzes tickers in sequential batches of batchSize concurrent tasks,
// pausing delay between batches. Outcomes keep ticker order. A panicking task is
// recorded as SkipPanic; a cancelled ctx stops before the next batch.
func runBatches(ctx context.Context, tickers []models.Ticker, batchSize int, delay time.Duration, analyze analyzer, logger *util.Logger) []Outcome {
	outcomes := make([]Outcome, len(tickers))
	if batchSize <= 0 {
		batchSize = common.DefaultBatchSize
	}
	for start := 0; start < len(tickers); start += batchSize {
		if start > 0 && delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
		if ctx.Err() != nil {
			for i := start; i < len(tickers); i++ {
				outcomes[i] = skip(common.SkipFetchFailed)
			}
			break
		}

		end := start + batchSize
		if end > len(tickers) {
			end = len(tickers)
		}
		var g errgroup.Group
		g.SetLimit(batchSize)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						logger.Error(fmt.Errorf("%v", r), common.ErrCodeSymbolPanic, common.ErrMsgSymbolPanic, "Symbol task panicked", "symbol", tickers[i].Symbol)
						outcomes[i] = skip(common.SkipPanic)
					}
				}()
				outcomes[i] = analyze(ctx, tickers[i])
				return nil
			})
		}
		_ = g.Wait()
	}
	return outcomes
}

// skipForError maps an adapter error to a skip reason.
func skipForError(err error) common.SkipReason {
	if errors.Is(err, exchanges.ErrInsufficientData) {
		return common.SkipInsufficientData
	}
	return common.SkipFetchFailed
}

// orderFor returns the result ordering of a strategy.
func orderFor(strategy string) func([]models.Signal) {
	if strategy == common.StrategyReversal {
		return SortReversals
	}
	return SortSignals
}

// SortReversals puts confirmed (ACTIVE) sweeps first, then orders by exhaustion volume
// ratio descending and symbol.
func SortReversals(signals []models.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if (a.Status == models.StatusActive) != (b.Status == models.StatusActive) {
			return a.Status == models.StatusActive
		}
		if va, vb := exhaustionVolume(a), exhaustionVolume(b); va != vb {
			return va > vb
		}
		return a.Symbol < b.Symbol
	})
}

func exhaustionVolume(s models.Signal) float64 {
	if s.Exhaustion == nil {
		return 0
	}
	return s.Exhaustion.VolumeRatio
}

// SortSignals orders by score descending, then candlesAgo ascending, then symbol.
func SortSignals(signals []models.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.CandlesAgo != b.CandlesAgo {
			return a.CandlesAgo < b.CandlesAgo
		}
		return a.Symbol < b.Symbol
	})
}
