package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Poller drives a tick function on a fixed period. Start and Stop are
// idempotent; the route layer calls them as the watch registry transitions
// between empty and non-empty.
type Poller struct {
	logger   *zap.Logger
	interval time.Duration
	tick     func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc

	busy atomic.Bool
}

func New(logger *zap.Logger, interval time.Duration, tick func(context.Context)) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		logger:   logger,
		interval: interval,
		tick:     tick,
	}
}

// Start begins the polling loop. It runs one immediate out-of-band pass so a
// freshly registered product is checked without waiting a full period. No-op
// if already running.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.logger.Info("poller_started", zap.Duration("interval", p.interval))
	go p.run(ctx)
}

// Stop cancels the polling loop. No-op if not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
	p.logger.Info("poller_stopped")
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	// immediate pass
	p.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.runOnce(ctx)
		}
	}
}

// runOnce skips the pass outright when the previous one is still in flight.
// Ticks are never queued, which bounds concurrent requests to the vendor.
func (p *Poller) runOnce(ctx context.Context) {
	if !p.busy.CompareAndSwap(false, true) {
		p.logger.Debug("tick_skipped_busy")
		return
	}
	defer p.busy.Store(false)
	p.tick(ctx)
}
