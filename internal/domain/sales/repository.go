package sales

import (
	"context"

	"github.com/google/uuid"
)

// ListParams controls receipt list pagination. Receipts are always ordered
// by sale timestamp, newest first.
type ListParams struct {
	Page     int
	PageSize int
}

// ReceiptRepository defines the interface for fiscal receipt persistence.
// Receipts are append-only: there are no update or delete operations.
type ReceiptRepository interface {
	// Create persists a new fiscal receipt
	Create(ctx context.Context, receipt *FiscalReceipt) error

	// FindByID finds a receipt by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*FiscalReceipt, error)

	// FindByReceiptNumber finds a receipt by its unique receipt number
	FindByReceiptNumber(ctx context.Context, number string) (*FiscalReceipt, error)

	// FindAll returns receipts ordered by sale_timestamp desc with the total count
	FindAll(ctx context.Context, params ListParams) ([]FiscalReceipt, int64, error)
}
