package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/sales"
)

// ProcessSaleRequest carries everything needed to run one sale saga
type ProcessSaleRequest struct {
	SerialNumber   string
	Quantity       int
	Channel        sales.Channel
	PaymentMethod  sales.PaymentMethod
	SellerID       *uuid.UUID
	CallerRole     string
	IdempotencyKey string
}

// SoldItemResponse is one receipt line in API form
type SoldItemResponse struct {
	ItemID       uuid.UUID `json:"item_id"`
	SerialNumber string    `json:"serial_number"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	UnitPrice    string    `json:"unit_price"`
}

// ReceiptResponse is the API representation of a fiscal receipt
type ReceiptResponse struct {
	ID            uuid.UUID          `json:"id"`
	ReceiptNumber string             `json:"receipt_number"`
	Channel       string             `json:"channel"`
	PaymentMethod string             `json:"payment_method"`
	Items         []SoldItemResponse `json:"items"`
	TotalAmount   string             `json:"total_amount"`
	SellerID      *uuid.UUID         `json:"seller_id,omitempty"`
	SaleTimestamp time.Time          `json:"sale_timestamp"`
	Replayed      bool               `json:"replayed,omitempty"`
}

// CatalogItemResponse is the API representation of a sellable perfume
type CatalogItemResponse struct {
	ID           uuid.UUID `json:"id"`
	SerialNumber string    `json:"serial_number"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Quantity     int       `json:"quantity"`
	UnitSizeML   int       `json:"unit_size_ml"`
}

// ToReceiptResponse converts a domain receipt to its API representation
func ToReceiptResponse(receipt *sales.FiscalReceipt) ReceiptResponse {
	items := make([]SoldItemResponse, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		items = append(items, SoldItemResponse{
			ItemID:       item.ItemID,
			SerialNumber: item.SerialNumber,
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice.String(),
		})
	}

	return ReceiptResponse{
		ID:            receipt.ID,
		ReceiptNumber: receipt.ReceiptNumber,
		Channel:       receipt.Channel.String(),
		PaymentMethod: string(receipt.PaymentMethod),
		Items:         items,
		TotalAmount:   receipt.TotalAmount.StringFixed(2),
		SellerID:      receipt.SellerID,
		SaleTimestamp: receipt.SaleTimestamp,
	}
}

// ToCatalogItemResponse converts a catalog item to its API representation
func ToCatalogItemResponse(item sales.CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{
		ID:           item.ID,
		SerialNumber: item.SerialNumber,
		Name:         item.Name,
		Type:         string(item.Type),
		Quantity:     item.Quantity,
		UnitSizeML:   item.UnitSizeML,
	}
}
