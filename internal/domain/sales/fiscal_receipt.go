package sales

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/shared"
	"github.com/perfumery/sales/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Channel represents the sale channel
type Channel string

const (
	ChannelRetail    Channel = "RETAIL"
	ChannelWholesale Channel = "WHOLESALE"
)

// IsValid checks if the channel is a valid Channel
func (c Channel) IsValid() bool {
	return c == ChannelRetail || c == ChannelWholesale
}

// String returns the string representation of Channel
func (c Channel) String() string {
	return string(c)
}

// PaymentMethod represents how a sale was paid
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
)

// IsValid checks if the payment method is valid
func (p PaymentMethod) IsValid() bool {
	return p == PaymentCash || p == PaymentCard
}

// SoldItem is one line of a fiscal receipt
type SoldItem struct {
	ItemID       uuid.UUID       `json:"item_id"`
	SerialNumber string          `json:"serial_number"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// SoldItems is a JSON-persisted collection of receipt lines
type SoldItems []SoldItem

// Value implements driver.Valuer for JSON storage
func (s SoldItems) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSON retrieval
func (s *SoldItems) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for SoldItems")
	}
}

// FiscalReceipt is the immutable record of a completed sale. It is created
// exactly once per successful saga run and never updated or deleted.
type FiscalReceipt struct {
	shared.BaseEntity
	ReceiptNumber string          `gorm:"size:50;not null;uniqueIndex"`
	Channel       Channel         `gorm:"size:20;not null"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"`
	Items         SoldItems       `gorm:"type:jsonb;not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SellerID      *uuid.UUID      `gorm:"type:uuid"`
	SaleTimestamp time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (FiscalReceipt) TableName() string {
	return "fiscal_receipts"
}

// receiptNumberAlphabet is the character set for the receipt number suffix
const receiptNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReceiptNumber generates a globally unique receipt number of the form
// FR-<unix millis>-<6 random chars>. The suffix comes from crypto/rand so
// concurrent creations in the same millisecond cannot collide in practice.
func NewReceiptNumber() (string, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate receipt number suffix: %w", err)
	}
	for i := range suffix {
		suffix[i] = receiptNumberAlphabet[int(suffix[i])%len(receiptNumberAlphabet)]
	}
	return fmt.Sprintf("FR-%d-%s", time.Now().UnixMilli(), suffix), nil
}

// NewFiscalReceipt creates a fiscal receipt for a completed sale. The total
// is rounded to 2 decimal places here, at the persistence boundary; unit
// prices on the lines stay unrounded to avoid compounding rounding error.
func NewFiscalReceipt(channel Channel, payment PaymentMethod, items SoldItems, total valueobject.Money, sellerID *uuid.UUID) (*FiscalReceipt, error) {
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel must be RETAIL or WHOLESALE")
	}
	if !payment.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be CASH or CARD")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Receipt must contain at least one line item")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Line item quantity must be positive")
		}
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount cannot be negative")
	}

	number, err := NewReceiptNumber()
	if err != nil {
		return nil, err
	}

	return &FiscalReceipt{
		BaseEntity:    shared.NewBaseEntity(),
		ReceiptNumber: number,
		Channel:       channel,
		PaymentMethod: payment,
		Items:         items,
		TotalAmount:   total.Amount().Round(2),
		SellerID:      sellerID,
		SaleTimestamp: time.Now(),
	}, nil
}
