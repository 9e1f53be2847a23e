package dispatch

import (
	"github.com/perfumery/sales/internal/domain/shared"
)

// SiteClass distinguishes the two kinds of dispatch sites. Distribution
// centers ship in larger batches with shorter turnaround; warehouse centers
// ship one package at a time.
type SiteClass string

const (
	ClassDistribution SiteClass = "DISTRIBUTION"
	ClassWarehouse    SiteClass = "WAREHOUSE"
)

// RoleManager is the elevated caller role served from the distribution
// center. All other roles are served from the warehouse center.
const RoleManager = "MANAGER"

// ClassForRole maps a caller role to the site class that serves it
func ClassForRole(role string) SiteClass {
	if role == RoleManager {
		return ClassDistribution
	}
	return ClassWarehouse
}

// IsValid checks if the class is a valid SiteClass
func (c SiteClass) IsValid() bool {
	return c == ClassDistribution || c == ClassWarehouse
}

// String returns the string representation of SiteClass
func (c SiteClass) String() string {
	return string(c)
}

// Site represents a dispatch site from which packaged units are retrieved.
// Capacity invariant: 0 <= CurrentCapacity <= MaxCapacity, always.
// Sites are seeded at process start and never deleted at runtime; the only
// mutation during normal operation is the capacity reservation performed by
// the dispatcher.
type Site struct {
	shared.BaseEntity
	Name            string    `gorm:"size:100;not null"`
	Location        string    `gorm:"size:255;not null"`
	MaxCapacity     int       `gorm:"not null"`
	CurrentCapacity int       `gorm:"not null;default:0"`
	Class           SiteClass `gorm:"size:20;not null;index"`
}

// TableName returns the table name for GORM
func (Site) TableName() string {
	return "dispatch_sites"
}

// NewSite creates a new dispatch site with full capacity
func NewSite(name, location string, maxCapacity int, class SiteClass) (*Site, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Site name cannot be empty")
	}
	if maxCapacity < 0 {
		return nil, shared.NewDomainError("INVALID_CAPACITY", "Max capacity cannot be negative")
	}
	if !class.IsValid() {
		return nil, shared.NewDomainError("INVALID_SITE_CLASS", "Site class must be DISTRIBUTION or WAREHOUSE")
	}

	return &Site{
		BaseEntity:      shared.NewBaseEntity(),
		Name:            name,
		Location:        location,
		MaxCapacity:     maxCapacity,
		CurrentCapacity: maxCapacity,
		Class:           class,
	}, nil
}

// AdjustCapacity applies a signed delta to the current capacity, clamped to
// [0, MaxCapacity]. Used by the administrative capacity endpoint and by
// compensation; the hot path goes through SiteRepository.Reserve instead.
func (s *Site) AdjustCapacity(delta int) {
	s.CurrentCapacity += delta
	if s.CurrentCapacity < 0 {
		s.CurrentCapacity = 0
	}
	if s.CurrentCapacity > s.MaxCapacity {
		s.CurrentCapacity = s.MaxCapacity
	}
}

// CanSupply reports whether the site currently holds at least count packages
func (s *Site) CanSupply(count int) bool {
	return s.CurrentCapacity >= count
}
