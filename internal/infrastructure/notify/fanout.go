// Package notify delivers best-effort notifications to the platform's log
// and analytics services without blocking the sale path. Jobs are queued on
// a bounded channel and delivered by a worker pool with bounded retries;
// when the queue is full the job is dropped and counted.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/perfumery/sales/internal/domain/sales"
	"github.com/perfumery/sales/internal/infrastructure/config"
)

type jobKind int

const (
	jobLog jobKind = iota
	jobReceipt
)

type job struct {
	kind    jobKind
	level   string
	message string
	receipt *sales.FiscalReceipt
}

// Fanout implements the application layer's Notifier over LogPort and
// AnalyticsPort. Submission never blocks the caller.
type Fanout struct {
	logs      sales.LogPort
	analytics sales.AnalyticsPort
	config    config.FanoutConfig
	timeout   time.Duration
	logger    *zap.Logger

	queue   chan job
	group   *errgroup.Group
	cancel  context.CancelFunc
	mu      sync.RWMutex
	closed  atomic.Bool
	dropped atomic.Int64
}

// NewFanout creates a fan-out with the given delivery ports. Call Start
// before submitting and Close during shutdown.
func NewFanout(
	logs sales.LogPort,
	analytics sales.AnalyticsPort,
	cfg config.FanoutConfig,
	timeout time.Duration,
	logger *zap.Logger,
) *Fanout {
	return &Fanout{
		logs:      logs,
		analytics: analytics,
		config:    cfg,
		timeout:   timeout,
		logger:    logger,
		queue:     make(chan job, cfg.QueueSize),
	}
}

// Start launches the delivery workers
func (f *Fanout) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	group, ctx := errgroup.WithContext(ctx)
	f.group = group
	for i := 0; i < f.config.Workers; i++ {
		group.Go(func() error {
			f.workerLoop(ctx)
			return nil
		})
	}

	f.logger.Info("notification fan-out started",
		zap.Int("workers", f.config.Workers),
		zap.Int("queue_size", f.config.QueueSize),
	)
}

// Close drains queued jobs and stops the workers
func (f *Fanout) Close() {
	if !f.closed.CompareAndSwap(false, true) {
		return
	}
	// The write lock waits out any enqueue that passed the closed check
	// before the swap, so the channel is never closed under a send.
	f.mu.Lock()
	close(f.queue)
	f.mu.Unlock()
	if f.group != nil {
		f.group.Wait()
	}
	if f.cancel != nil {
		f.cancel()
	}

	if dropped := f.dropped.Load(); dropped > 0 {
		f.logger.Warn("notifications dropped due to full queue",
			zap.Int64("dropped", dropped),
		)
	}
	f.logger.Info("notification fan-out stopped")
}

// RecordLog queues a log entry for delivery
func (f *Fanout) RecordLog(level, message string) {
	f.enqueue(job{kind: jobLog, level: level, message: message})
}

// SubmitReceipt queues a completed receipt for the analytics service
func (f *Fanout) SubmitReceipt(receipt *sales.FiscalReceipt) {
	f.enqueue(job{kind: jobReceipt, receipt: receipt})
}

// Dropped returns how many jobs were discarded because the queue was full
func (f *Fanout) Dropped() int64 {
	return f.dropped.Load()
}

func (f *Fanout) enqueue(j job) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed.Load() {
		f.dropped.Add(1)
		return
	}
	select {
	case f.queue <- j:
	default:
		f.dropped.Add(1)
		f.logger.Warn("notification queue full, dropping job",
			zap.Int("kind", int(j.kind)),
		)
	}
}

func (f *Fanout) workerLoop(ctx context.Context) {
	for {
		select {
		case j, ok := <-f.queue:
			if !ok {
				return
			}
			f.deliver(ctx, j)
		case <-ctx.Done():
			// Drain what is already queued before exiting
			for {
				select {
				case j, ok := <-f.queue:
					if !ok {
						return
					}
					f.deliver(context.Background(), j)
				default:
					return
				}
			}
		}
	}
}

// deliver attempts the job with bounded retries. A job that still fails
// after the last attempt is logged and discarded; notifications never fail
// the sale that produced them.
func (f *Fanout) deliver(ctx context.Context, j job) {
	var lastErr error
	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.config.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return
			}
		}

		if lastErr = f.attempt(ctx, j); lastErr == nil {
			return
		}
	}

	f.logger.Error("notification delivery failed",
		zap.Int("kind", int(j.kind)),
		zap.Int("attempts", f.config.MaxRetries+1),
		zap.Error(lastErr),
	)
}

func (f *Fanout) attempt(ctx context.Context, j job) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	switch j.kind {
	case jobReceipt:
		return f.analytics.Submit(ctx, j.receipt)
	default:
		return f.logs.Record(ctx, j.level, j.message)
	}
}
