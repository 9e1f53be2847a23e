package dispatch

import (
	"context"

	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/dispatch"
	"github.com/perfumery/sales/internal/domain/shared"
)

// Dispatcher executes the timed package retrieval for a standalone dispatch
type Dispatcher interface {
	Dispatch(ctx context.Context, class dispatch.SiteClass, count int) (*dispatch.DispatchResult, error)
}

// SiteService handles dispatch-site administration and standalone dispatch
// requests. The sale hot path never goes through here; it reserves capacity
// directly via the repository.
type SiteService struct {
	siteRepo   dispatch.SiteRepository
	dispatcher Dispatcher
}

// NewSiteService creates a new SiteService
func NewSiteService(siteRepo dispatch.SiteRepository) *SiteService {
	return &SiteService{
		siteRepo: siteRepo,
	}
}

// SetDispatcher enables the standalone SendPackaging operation
func (s *SiteService) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// SendPackaging retrieves packages from the site serving the caller's role
// without recording a sale. Capacity is consumed exactly as it is during a
// sale, including the release on mid-dispatch failure.
func (s *SiteService) SendPackaging(ctx context.Context, req SendPackagingRequest) (*SendPackagingResponse, error) {
	if s.dispatcher == nil {
		return nil, shared.NewDomainError("DISPATCH_UNAVAILABLE", "Package dispatch is not configured")
	}
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Number of packages must be greater than 0")
	}

	class := dispatch.ClassForRole(req.CallerRole)
	result, err := s.dispatcher.Dispatch(ctx, class, req.Quantity)
	if err != nil {
		return nil, err
	}

	response := ToSendPackagingResponse(result, class)
	return &response, nil
}

// Create registers a new dispatch site starting at full capacity
func (s *SiteService) Create(ctx context.Context, req CreateSiteRequest) (*SiteResponse, error) {
	site, err := dispatch.NewSite(req.Name, req.Location, req.MaxCapacity, dispatch.SiteClass(req.Class))
	if err != nil {
		return nil, err
	}

	if err := s.siteRepo.Save(ctx, site); err != nil {
		return nil, err
	}

	response := ToSiteResponse(site)
	return &response, nil
}

// GetByID retrieves a dispatch site by ID
func (s *SiteService) GetByID(ctx context.Context, siteID uuid.UUID) (*SiteResponse, error) {
	site, err := s.siteRepo.FindByID(ctx, siteID)
	if err != nil {
		return nil, err
	}

	response := ToSiteResponse(site)
	return &response, nil
}

// List retrieves all dispatch sites
func (s *SiteService) List(ctx context.Context) ([]SiteResponse, error) {
	sites, err := s.siteRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToSiteResponses(sites), nil
}

// AdjustCapacity applies a signed delta to a site's current capacity. The
// result is clamped to [0, MaxCapacity], so restocking past the maximum or
// draining below zero silently stops at the bound.
func (s *SiteService) AdjustCapacity(ctx context.Context, siteID uuid.UUID, req AdjustCapacityRequest) (*SiteResponse, error) {
	if req.Delta == 0 {
		return nil, shared.NewDomainError("INVALID_DELTA", "Capacity delta cannot be zero")
	}

	site, err := s.siteRepo.FindByID(ctx, siteID)
	if err != nil {
		return nil, err
	}

	site.AdjustCapacity(req.Delta)

	if err := s.siteRepo.Save(ctx, site); err != nil {
		return nil, err
	}

	response := ToSiteResponse(site)
	return &response, nil
}
