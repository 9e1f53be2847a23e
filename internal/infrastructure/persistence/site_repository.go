package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/dispatch"
	"github.com/perfumery/sales/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSiteRepository implements dispatch.SiteRepository using GORM
type GormSiteRepository struct {
	db *gorm.DB
}

// NewGormSiteRepository creates a new GormSiteRepository
func NewGormSiteRepository(db *gorm.DB) *GormSiteRepository {
	return &GormSiteRepository{db: db}
}

// FindByID finds a dispatch site by its ID
func (r *GormSiteRepository) FindByID(ctx context.Context, id uuid.UUID) (*dispatch.Site, error) {
	var site dispatch.Site
	if err := r.db.WithContext(ctx).First(&site, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &site, nil
}

// FindByClass finds the dispatch site serving the given class. With one site
// per class seeded, the oldest one wins if an operator ever adds more.
func (r *GormSiteRepository) FindByClass(ctx context.Context, class dispatch.SiteClass) (*dispatch.Site, error) {
	var site dispatch.Site
	if err := r.db.WithContext(ctx).
		Where("class = ?", class).
		Order("created_at asc").
		First(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &site, nil
}

// FindAll returns all dispatch sites
func (r *GormSiteRepository) FindAll(ctx context.Context) ([]dispatch.Site, error) {
	var sites []dispatch.Site
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

// Save creates or updates a dispatch site
func (r *GormSiteRepository) Save(ctx context.Context, site *dispatch.Site) error {
	return r.db.WithContext(ctx).Save(site).Error
}

// Reserve atomically decrements a site's capacity by count. The guard and
// the decrement run in a single UPDATE, so two concurrent reservations can
// never both succeed against the same remaining units.
func (r *GormSiteRepository) Reserve(ctx context.Context, siteID uuid.UUID, count int) error {
	if count <= 0 {
		return shared.NewDomainError("INVALID_COUNT", "Reservation count must be positive")
	}

	result := r.db.WithContext(ctx).
		Model(&dispatch.Site{}).
		Where("id = ? AND current_capacity >= ?", siteID, count).
		Update("current_capacity", gorm.Expr("current_capacity - ?", count))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the site is gone or it cannot cover the count. Distinguish
		// so callers report the right failure.
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&dispatch.Site{}).
			Where("id = ?", siteID).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrInsufficientCapacity
	}
	return nil
}

// Release returns count units to a site's capacity, clamped at max_capacity.
// Used for compensation; releasing more than was reserved cannot push the
// ledger past its maximum.
func (r *GormSiteRepository) Release(ctx context.Context, siteID uuid.UUID, count int) error {
	if count <= 0 {
		return shared.NewDomainError("INVALID_COUNT", "Release count must be positive")
	}

	result := r.db.WithContext(ctx).
		Model(&dispatch.Site{}).
		Where("id = ?", siteID).
		Update("current_capacity", gorm.Expr(
			"CASE WHEN current_capacity + ? > max_capacity THEN max_capacity ELSE current_capacity + ? END",
			count, count))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
