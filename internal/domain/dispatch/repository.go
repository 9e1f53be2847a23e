package dispatch

import (
	"context"

	"github.com/google/uuid"
)

// SiteRepository defines the interface for dispatch site persistence. It is
// also the capacity ledger: Reserve and Release are the only operations that
// may touch CurrentCapacity on the sale path.
type SiteRepository interface {
	// FindByID finds a dispatch site by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Site, error)

	// FindByClass finds the dispatch site serving the given class
	FindByClass(ctx context.Context, class SiteClass) (*Site, error)

	// FindAll returns all dispatch sites
	FindAll(ctx context.Context) ([]Site, error)

	// Save creates or updates a dispatch site
	Save(ctx context.Context, site *Site) error

	// Reserve atomically decrements current capacity by count. It must be a
	// single conditional update (check and decrement in one statement) so two
	// concurrent reservations can never both succeed against capacity that
	// only satisfies one. Returns shared.ErrInsufficientCapacity when the
	// site cannot cover the count.
	Reserve(ctx context.Context, siteID uuid.UUID, count int) error

	// Release adds count back to current capacity, clamped to
	// [0, max_capacity]. Used only for compensation after a failed saga step.
	Release(ctx context.Context, siteID uuid.UUID, count int) error
}
