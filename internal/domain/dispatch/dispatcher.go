package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/shared"
	"go.uber.org/zap"
)

// DispatchResult contains the outcome of a completed dispatch run
type DispatchResult struct {
	SiteID        uuid.UUID
	Packages      []Package
	Plan          *Plan
	SimulatedTime time.Duration
}

// DispatchFailure reports a dispatch that failed after zero or more batches
// were already delivered. The delivered packages are carried so the caller
// can decide what to do with them; the capacity reservation itself has
// already been released by the dispatcher.
type DispatchFailure struct {
	SiteID    uuid.UUID
	Delivered []Package
	Cause     error
}

// Error implements the error interface
func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("dispatch from site %s failed after %d delivered packages: %v",
		e.SiteID, len(e.Delivered), e.Cause)
}

// Unwrap lets errors.Is match shared.ErrDispatchFailed
func (e *DispatchFailure) Unwrap() error {
	return shared.ErrDispatchFailed
}

// Dispatcher executes the timed multi-batch retrieval of packages from a
// capacity-constrained dispatch site. The batch loop is strictly sequential:
// it models physical delivery throughput, not a parallelizable workload.
type Dispatcher struct {
	sites     SiteRepository
	packaging PackagingPort
	delayer   Delayer
	logger    *zap.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(sites SiteRepository, packaging PackagingPort, delayer Delayer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sites:     sites,
		packaging: packaging,
		delayer:   delayer,
		logger:    logger,
	}
}

// Dispatch reserves count packages at the site serving the given class and
// executes the delivery plan against the packaging port. The reservation is
// the single atomic capacity decrement of the whole saga; if any batch fails
// afterwards it is released in full and the failure carries the packages
// delivered up to that point.
func (d *Dispatcher) Dispatch(ctx context.Context, class SiteClass, count int) (*DispatchResult, error) {
	plan, err := ComputePlan(count, class)
	if err != nil {
		return nil, err
	}

	site, err := d.sites.FindByClass(ctx, class)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NO_SITE_FOR_CLASS",
				fmt.Sprintf("No dispatch site available for class %s", class))
		}
		return nil, err
	}

	if err := d.sites.Reserve(ctx, site.ID, count); err != nil {
		return nil, err
	}

	d.logger.Info("dispatch started",
		zap.String("site_id", site.ID.String()),
		zap.String("site_class", class.String()),
		zap.Int("count", count),
		zap.Int("deliveries", plan.Deliveries()),
	)

	packages := make([]Package, 0, count)
	for _, batch := range plan.Batches {
		if err := d.delayer.Wait(ctx, batch.Latency); err != nil {
			return nil, d.fail(ctx, site.ID, count, packages, err)
		}

		retrieved, err := d.packaging.RetrieveBatch(ctx, site.ID, batch.Units)
		if err != nil {
			return nil, d.fail(ctx, site.ID, count, packages, err)
		}
		packages = append(packages, retrieved...)

		d.logger.Debug("delivery batch completed",
			zap.String("site_id", site.ID.String()),
			zap.Int("sequence", batch.SequenceNumber),
			zap.Int("units", batch.Units),
			zap.Int("total_delivered", len(packages)),
		)
	}

	d.logger.Info("dispatch completed",
		zap.String("site_id", site.ID.String()),
		zap.Int("delivered", len(packages)),
		zap.Duration("simulated_time", plan.TotalLatency()),
	)

	return &DispatchResult{
		SiteID:        site.ID,
		Packages:      packages,
		Plan:          plan,
		SimulatedTime: plan.TotalLatency(),
	}, nil
}

// fail releases the full reservation and wraps the cause in a DispatchFailure.
// Partially delivered packages go back on the ledger with the release; they
// are reported to the caller for logging only.
func (d *Dispatcher) fail(ctx context.Context, siteID uuid.UUID, count int, delivered []Package, cause error) error {
	if relErr := d.sites.Release(ctx, siteID, count); relErr != nil {
		d.logger.Error("failed to release reservation after dispatch failure",
			zap.String("site_id", siteID.String()),
			zap.Int("count", count),
			zap.Error(relErr),
		)
	}
	d.logger.Warn("dispatch failed",
		zap.String("site_id", siteID.String()),
		zap.Int("delivered_before_failure", len(delivered)),
		zap.Error(cause),
	)
	return &DispatchFailure{
		SiteID:    siteID,
		Delivered: delivered,
		Cause:     cause,
	}
}
