package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/sales"
	"github.com/perfumery/sales/internal/domain/shared"
)

// AnalyticsClient implements sales.AnalyticsPort against the analytics
// service's HTTP API. It is the default receipt sink when the Kafka
// publisher is disabled.
type AnalyticsClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAnalyticsClient creates a new AnalyticsClient
func NewAnalyticsClient(baseURL string, timeout time.Duration) *AnalyticsClient {
	return &AnalyticsClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type receiptEventPayload struct {
	ReceiptID     uuid.UUID  `json:"receipt_id"`
	ReceiptNumber string     `json:"receipt_number"`
	Channel       string     `json:"channel"`
	PaymentMethod string     `json:"payment_method"`
	TotalAmount   string     `json:"total_amount"`
	SellerID      *uuid.UUID `json:"seller_id,omitempty"`
	SaleTimestamp time.Time  `json:"sale_timestamp"`
}

// Submit sends a completed receipt to the analytics service
func (c *AnalyticsClient) Submit(ctx context.Context, receipt *sales.FiscalReceipt) error {
	payload, err := json.Marshal(receiptEventPayload{
		ReceiptID:     receipt.ID,
		ReceiptNumber: receipt.ReceiptNumber,
		Channel:       receipt.Channel.String(),
		PaymentMethod: string(receipt.PaymentMethod),
		TotalAmount:   receipt.TotalAmount.StringFixed(2),
		SellerID:      receipt.SellerID,
		SaleTimestamp: receipt.SaleTimestamp,
	})
	if err != nil {
		return fmt.Errorf("analytics: failed to encode receipt: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/receipts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("analytics: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError("analytics", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: analytics returned HTTP %d", shared.ErrCollaboratorUnavailable, resp.StatusCode)
	}
	return nil
}
