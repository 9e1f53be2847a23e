package dispatch

import (
	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/dispatch"
)

// CreateSiteRequest carries everything needed to register a dispatch site
type CreateSiteRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Location    string `json:"location" binding:"required,max=255"`
	MaxCapacity int    `json:"max_capacity" binding:"required,min=0"`
	Class       string `json:"class" binding:"required,oneof=DISTRIBUTION WAREHOUSE"`
}

// AdjustCapacityRequest applies a signed delta to a site's current capacity
type AdjustCapacityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// SendPackagingRequest asks for packages from the site serving the caller's
// role, outside of any sale
type SendPackagingRequest struct {
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	CallerRole string `json:"-"`
}

// SendPackagingResponse reports the packages retrieved by a standalone
// dispatch and the simulated delivery time they took
type SendPackagingResponse struct {
	SiteID      uuid.UUID          `json:"site_id"`
	SiteClass   string             `json:"site_class"`
	Packages    []dispatch.Package `json:"packages"`
	Count       int                `json:"count"`
	SimulatedMS int64              `json:"simulated_ms"`
}

// ToSendPackagingResponse converts a dispatch result to its API representation
func ToSendPackagingResponse(result *dispatch.DispatchResult, class dispatch.SiteClass) SendPackagingResponse {
	return SendPackagingResponse{
		SiteID:      result.SiteID,
		SiteClass:   class.String(),
		Packages:    result.Packages,
		Count:       len(result.Packages),
		SimulatedMS: result.SimulatedTime.Milliseconds(),
	}
}

// SiteResponse is the API representation of a dispatch site
type SiteResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Location        string    `json:"location"`
	MaxCapacity     int       `json:"max_capacity"`
	CurrentCapacity int       `json:"current_capacity"`
	Class           string    `json:"class"`
}

// ToSiteResponse converts a domain site to its API representation
func ToSiteResponse(site *dispatch.Site) SiteResponse {
	return SiteResponse{
		ID:              site.ID,
		Name:            site.Name,
		Location:        site.Location,
		MaxCapacity:     site.MaxCapacity,
		CurrentCapacity: site.CurrentCapacity,
		Class:           site.Class.String(),
	}
}

// ToSiteResponses converts a slice of domain sites
func ToSiteResponses(sites []dispatch.Site) []SiteResponse {
	responses := make([]SiteResponse, 0, len(sites))
	for i := range sites {
		responses = append(responses, ToSiteResponse(&sites[i]))
	}
	return responses
}
