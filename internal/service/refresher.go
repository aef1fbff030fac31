package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pam-pakkiri/coinpree/internal/common"
	"github.com/pam-pakkiri/coinpree/internal/config"
	"github.com/pam-pakkiri/coinpree/internal/util"
)

const refreshStopTimeout = 30 * time.Second

// Refresher re-runs configured scans on a cron schedule so request handlers mostly read
// warm cache entries and subscribers receive fresh snapshots.
type Refresher struct {
	engine *Engine
	cfg    config.RefreshConfig
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    *util.Logger

	mu      sync.Mutex
	running bool
}

func NewRefresher(engine *Engine, cfg config.RefreshConfig) *Refresher {
	return &Refresher{
		engine: engine,
		cfg:    cfg,
		log:    util.NewLogger("component", "refresher"),
	}
}

// Start registers the refresh job under schedule and starts the scheduler. Every start
// gets its own scheduler and context, so a stopped Refresher can be started again.
func (r *Refresher) Start(schedule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	c := cron.New(cron.WithLogger(cronLogger{r.log}), cron.WithSeconds())
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := c.AddFunc(schedule, func() { r.job(ctx) }); err != nil {
		cancel()
		r.log.Error(err, common.ErrCodeRefreshScheduleFailed, common.ErrMsgRefreshScheduleFailed, "Refresh not started", "schedule", schedule)
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	r.cron, r.ctx, r.cancel = c, ctx, cancel
	r.cron.Start()
	r.running = true
	r.log.Info("Refresher started", "schedule", schedule, "exchanges", r.cfg.Exchanges, "timeframes", r.cfg.Timeframes)
	return nil
}

// Stop cancels an in-flight refresh and waits for the running job to return.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.cancel()
	ctx := r.cron.Stop()
	select {
	case <-ctx.Done():
		r.log.Info("Refresher stopped")
	case <-time.After(refreshStopTimeout):
		r.log.Info("Refresher stop timed out")
	}
	r.running = false
}

func (r *Refresher) job(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error(fmt.Errorf("%v", rec), common.ErrCodeSymbolPanic, common.ErrMsgSymbolPanic, "Refresh job panicked")
		}
	}()
	r.RunOnce(ctx)
}

// RunOnce refreshes every configured exchange and timeframe pair, then the crossover scan.
func (r *Refresher) RunOnce(ctx context.Context) {
	start := time.Now()
	timeframes := r.cfg.Timeframes
	if len(timeframes) == 0 {
		timeframes = []string{"15m"}
	}
	var count int
	for _, id := range r.cfg.Exchanges {
		for _, tf := range timeframes {
			if ctx.Err() != nil {
				return
			}
			count += len(r.engine.GetSignals(ctx, id, tf))
		}
	}
	if ctx.Err() != nil {
		return
	}
	count += len(r.engine.GetCrossoverSignals(ctx, ""))
	r.log.Info("Refresh complete", "signals", count, "duration_ms", time.Since(start).Milliseconds())
}

// cronLogger routes scheduler events into the structured logger.
type cronLogger struct{ l *util.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(err, common.ErrCodeRefreshScheduleFailed, common.ErrMsgRefreshScheduleFailed, msg, keysAndValues...)
}
