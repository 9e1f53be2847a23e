package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/perfumery/sales/internal/domain/sales"
	"github.com/perfumery/sales/internal/infrastructure/config"
)

// KafkaAnalyticsPublisher implements sales.AnalyticsPort by publishing
// receipt events to a Kafka topic instead of calling the analytics service
// over HTTP. Enabled via the kafka section of the configuration.
type KafkaAnalyticsPublisher struct {
	writer *kafka.Writer
}

// NewKafkaAnalyticsPublisher creates a publisher for the configured topic
func NewKafkaAnalyticsPublisher(cfg config.KafkaConfig) *KafkaAnalyticsPublisher {
	return &KafkaAnalyticsPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

type receiptEvent struct {
	ReceiptID     string    `json:"receipt_id"`
	ReceiptNumber string    `json:"receipt_number"`
	Channel       string    `json:"channel"`
	PaymentMethod string    `json:"payment_method"`
	TotalAmount   string    `json:"total_amount"`
	SellerID      *string   `json:"seller_id,omitempty"`
	SaleTimestamp time.Time `json:"sale_timestamp"`
}

// Submit publishes the receipt keyed by receipt number so replays of the
// same receipt land on the same partition
func (p *KafkaAnalyticsPublisher) Submit(ctx context.Context, receipt *sales.FiscalReceipt) error {
	event := receiptEvent{
		ReceiptID:     receipt.ID.String(),
		ReceiptNumber: receipt.ReceiptNumber,
		Channel:       string(receipt.Channel),
		PaymentMethod: string(receipt.PaymentMethod),
		TotalAmount:   receipt.TotalAmount.StringFixed(2),
		SaleTimestamp: receipt.SaleTimestamp,
	}
	if receipt.SellerID != nil {
		id := receipt.SellerID.String()
		event.SellerID = &id
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(receipt.ReceiptNumber),
		Value: value,
	})
}

// Close flushes buffered messages and releases the writer
func (p *KafkaAnalyticsPublisher) Close() error {
	return p.writer.Close()
}

var _ sales.AnalyticsPort = (*KafkaAnalyticsPublisher)(nil)
