// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSiteCapacityProvider implements SiteCapacityProvider using GORM.
// It queries the dispatch_sites table directly for the capacity gauge.
type GormSiteCapacityProvider struct {
	db *gorm.DB
}

// NewGormSiteCapacityProvider creates a new GormSiteCapacityProvider.
func NewGormSiteCapacityProvider(db *gorm.DB) *GormSiteCapacityProvider {
	return &GormSiteCapacityProvider{db: db}
}

// GetCapacityBySite returns current remaining capacity per dispatch site.
func (p *GormSiteCapacityProvider) GetCapacityBySite(ctx context.Context) (map[uuid.UUID]int64, error) {
	type result struct {
		ID              uuid.UUID `gorm:"column:id"`
		CurrentCapacity int64     `gorm:"column:current_capacity"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("dispatch_sites").
		Select("id, current_capacity").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.ID] = r.CurrentCapacity
	}

	return m, nil
}

var _ SiteCapacityProvider = (*GormSiteCapacityProvider)(nil)
