// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the sales service.
// It tracks sale throughput, failure causes, and dispatch site capacity.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	saleProcessedTotal   *Counter
	saleAmountTotal      *Counter
	saleFailedTotal      *Counter
	capacityReleaseTotal *Counter

	// Gauge metrics (point-in-time values)
	siteCapacity *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	capacityProvider SiteCapacityProvider
}

// SiteCapacityProvider provides dispatch site capacity for periodic metrics
// collection. This interface lets the telemetry layer observe site state
// without depending on the dispatch domain directly.
type SiteCapacityProvider interface {
	// GetCapacityBySite returns current remaining capacity per site
	GetCapacityBySite(ctx context.Context) (map[uuid.UUID]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter            metric.Meter
	Logger           *zap.Logger
	CollectInterval  time.Duration // Default: 5 minutes
	CapacityProvider SiteCapacityProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:            cfg.Meter,
		logger:           logger,
		stopChan:         make(chan struct{}),
		capacityProvider: cfg.CapacityProvider,
	}

	var err error

	// Sale metrics
	bm.saleProcessedTotal, err = NewCounter(
		cfg.Meter,
		"sales_processed_total",
		"Total number of sales completed with a fiscal receipt",
		"{sales}",
	)
	if err != nil {
		return nil, err
	}

	bm.saleAmountTotal, err = NewCounter(
		cfg.Meter,
		"sales_amount_total",
		"Total receipt amount in para (hundredths of RSD)",
		"{para}",
	)
	if err != nil {
		return nil, err
	}

	bm.saleFailedTotal, err = NewCounter(
		cfg.Meter,
		"sales_failed_total",
		"Total number of sales that failed, labeled by failure code",
		"{sales}",
	)
	if err != nil {
		return nil, err
	}

	bm.capacityReleaseTotal, err = NewCounter(
		cfg.Meter,
		"sales_capacity_release_total",
		"Total number of compensating capacity releases",
		"{releases}",
	)
	if err != nil {
		return nil, err
	}

	// Site capacity gauge
	bm.siteCapacity, err = NewGauge(
		cfg.Meter,
		"sales_site_capacity",
		"Current remaining capacity of a dispatch site",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Sale Metrics
// =============================================================================

// RecordSaleProcessed records a completed sale.
// This should be called from the application layer after the receipt persists.
func (bm *BusinessMetrics) RecordSaleProcessed(ctx context.Context, channel, paymentMethod string) {
	bm.saleProcessedTotal.Inc(ctx,
		AttrChannel.String(channel),
		AttrPaymentMethod.String(paymentMethod),
	)
}

// RecordSaleAmount records the receipt total.
// Amount should be in the smallest currency unit (para).
func (bm *BusinessMetrics) RecordSaleAmount(ctx context.Context, channel string, amountPara int64) {
	bm.saleAmountTotal.Add(ctx, amountPara,
		AttrChannel.String(channel),
	)
}

// RecordSaleWithAmount is a convenience method that records both sale count and amount.
func (bm *BusinessMetrics) RecordSaleWithAmount(ctx context.Context, channel, paymentMethod string, amount decimal.Decimal) {
	bm.RecordSaleProcessed(ctx, channel, paymentMethod)

	// Convert to para (multiply by 100)
	amountPara := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordSaleAmount(ctx, channel, amountPara)
}

// RecordSaleFailed records a failed sale labeled by its domain error code.
func (bm *BusinessMetrics) RecordSaleFailed(ctx context.Context, failureCode string) {
	bm.saleFailedTotal.Inc(ctx,
		AttrFailureCode.String(failureCode),
	)
}

// RecordCapacityRelease records a compensating release of reserved capacity.
func (bm *BusinessMetrics) RecordCapacityRelease(ctx context.Context, siteClass string) {
	bm.capacityReleaseTotal.Inc(ctx,
		AttrSiteClass.String(siteClass),
	)
}

// =============================================================================
// Site Capacity Metrics
// =============================================================================

// RecordSiteCapacity records the current remaining capacity for a site.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordSiteCapacity(ctx context.Context, siteID uuid.UUID, capacity int64) {
	bm.siteCapacity.Record(ctx, capacity,
		AttrSiteID.String(siteID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects site capacity every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectCapacityMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectCapacityMetrics(ctx)
		}
	}
}

// collectCapacityMetrics collects the site capacity gauge for all sites.
func (bm *BusinessMetrics) collectCapacityMetrics(ctx context.Context) {
	if bm.capacityProvider == nil {
		bm.logger.Debug("No capacity provider configured, skipping site capacity collection")
		return
	}

	capacityBySite, err := bm.capacityProvider.GetCapacityBySite(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get site capacity for metrics collection", zap.Error(err))
		return
	}

	for siteID, capacity := range capacityBySite {
		bm.RecordSiteCapacity(ctx, siteID, capacity)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	AttrSiteID = attribute.Key("site_id")
)
