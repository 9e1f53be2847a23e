package sales

import (
	"context"

	"github.com/google/uuid"
)

// CatalogItem is the processing service's view of a sellable perfume
type CatalogItem struct {
	ID           uuid.UUID   `json:"id"`
	SerialNumber string      `json:"serial_number"`
	Name         string      `json:"name"`
	Type         PerfumeType `json:"type"`
	Quantity     int         `json:"quantity"`
	UnitSizeML   int         `json:"unit_size_ml"`
}

// CatalogPort is the outbound contract to the processing service's perfume
// catalog. GetItem returns shared.ErrNotFound for unknown serial numbers and
// shared.ErrCollaboratorUnavailable on timeout.
type CatalogPort interface {
	GetItem(ctx context.Context, serialNumber string) (*CatalogItem, error)
	ListAvailable(ctx context.Context) ([]CatalogItem, error)
}

// LogPort forwards business events to the platform's log service. Delivery
// is best-effort; callers treat errors as advisory and never fail a sale on
// them.
type LogPort interface {
	Record(ctx context.Context, level, message string) error
}

// AnalyticsPort submits completed receipts to the analytics service.
// Best-effort like LogPort.
type AnalyticsPort interface {
	Submit(ctx context.Context, receipt *FiscalReceipt) error
}
