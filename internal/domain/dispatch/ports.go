package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Package is a single packaged unit handed over by the packaging service
type Package struct {
	ID           uuid.UUID `json:"id"`
	SerialNumber string    `json:"serial_number"`
	Name         string    `json:"name"`
}

// PackagingPort is the outbound contract to the processing service's
// packaging endpoint. RetrieveBatch hands over count packages held at the
// given site; implementations must honor the context deadline.
type PackagingPort interface {
	RetrieveBatch(ctx context.Context, siteID uuid.UUID, count int) ([]Package, error)
}

// Delayer abstracts the simulated per-batch delivery delay so the timed loop
// can be driven by a manual clock in tests and cancelled via context.
type Delayer interface {
	Wait(ctx context.Context, d time.Duration) error
}
