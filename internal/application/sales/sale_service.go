package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/perfumery/sales/internal/domain/dispatch"
	"github.com/perfumery/sales/internal/domain/sales"
	"github.com/perfumery/sales/internal/domain/shared"
	"github.com/perfumery/sales/internal/infrastructure/logger"
	"github.com/perfumery/sales/internal/infrastructure/telemetry"
)

// RoleManager is the elevated caller role served from the distribution
// center. All other roles are served from the warehouse center.
const RoleManager = dispatch.RoleManager

// Dispatcher executes the timed package retrieval for a sale
type Dispatcher interface {
	Dispatch(ctx context.Context, class dispatch.SiteClass, count int) (*dispatch.DispatchResult, error)
}

// Notifier is the best-effort fan-out to the log and analytics services.
// Both methods return immediately; delivery happens off the request path and
// failures are never reported back.
type Notifier interface {
	RecordLog(level, message string)
	SubmitReceipt(receipt *sales.FiscalReceipt)
}

// SaleService orchestrates the sale-fulfillment saga: catalog validation,
// timed package dispatch, pricing, receipt persistence and result fan-out.
// ProcessSale owns the whole request lifecycle and is the only entry point.
type SaleService struct {
	catalog     sales.CatalogPort
	dispatcher  Dispatcher
	sites       dispatch.SiteRepository
	receipts    sales.ReceiptRepository
	notifier    Notifier
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	metrics     *telemetry.BusinessMetrics
	logger      *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	catalog sales.CatalogPort,
	dispatcher Dispatcher,
	sites dispatch.SiteRepository,
	receipts sales.ReceiptRepository,
	notifier Notifier,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		catalog:    catalog,
		dispatcher: dispatcher,
		sites:      sites,
		receipts:   receipts,
		notifier:   notifier,
		idemConfig: shared.DefaultIdempotencyConfig(),
		logger:     logger,
	}
}

// SetIdempotencyStore enables idempotency-key replay for ProcessSale
func (s *SaleService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idemConfig = cfg
}

// SetBusinessMetrics sets the business metrics collector
func (s *SaleService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// siteClassForRole maps the caller role to the dispatch site class serving it
func siteClassForRole(role string) dispatch.SiteClass {
	return dispatch.ClassForRole(role)
}

// ProcessSale runs the sale saga to completion. Steps execute strictly in
// order; a failure at any step aborts the saga and is returned verbatim.
// Capacity reserved for the sale is released again if a later step fails, so
// no failed sale leaves the ledger decremented.
func (s *SaleService) ProcessSale(ctx context.Context, req ProcessSaleRequest) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales", "process_sale")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSerialNumber, req.SerialNumber,
		telemetry.SpanAttrQuantity, req.Quantity,
		telemetry.SpanAttrChannel, string(req.Channel),
	)

	if req.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be greater than 0")
	}
	if !req.Channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel must be RETAIL or WHOLESALE")
	}
	if !req.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be CASH or CARD")
	}

	if replayed, ok, err := s.replayFromIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if ok {
		return replayed, nil
	}

	s.notifier.RecordLog("INFO", fmt.Sprintf(
		"Processing sale: %s, quantity: %d, channel: %s", req.SerialNumber, req.Quantity, req.Channel))

	// Validating
	item, err := s.catalog.GetItem(ctx, req.SerialNumber)
	if err != nil {
		return nil, s.abort(ctx, req, "catalog lookup failed", err)
	}
	if item.Quantity < req.Quantity {
		return nil, s.abort(ctx, req, "insufficient stock", shared.ErrInsufficientQuantity)
	}

	// Dispatching
	class := siteClassForRole(req.CallerRole)
	dispatched, err := s.dispatcher.Dispatch(ctx, class, req.Quantity)
	if err != nil {
		return nil, s.abort(ctx, req, "dispatch failed", err)
	}

	// Pricing (pure, cannot fail)
	unitPrice := sales.UnitPrice(item.Type, item.UnitSizeML, req.Channel)
	total := sales.Total(unitPrice, req.Quantity)

	// Persisting
	receipt, err := sales.NewFiscalReceipt(req.Channel, req.PaymentMethod, sales.SoldItems{
		{
			ItemID:       item.ID,
			SerialNumber: item.SerialNumber,
			Name:         item.Name,
			Quantity:     req.Quantity,
			UnitPrice:    unitPrice.Amount(),
		},
	}, total, req.SellerID)
	if err != nil {
		s.compensate(ctx, dispatched.SiteID, req.Quantity, class)
		return nil, s.abort(ctx, req, "receipt construction failed", err)
	}

	if err := s.receipts.Create(ctx, receipt); err != nil {
		s.compensate(ctx, dispatched.SiteID, req.Quantity, class)
		return nil, s.abort(ctx, req, "receipt persistence failed",
			fmt.Errorf("%w: %v", shared.ErrPersistenceFailed, err))
	}

	s.rememberIdempotencyKey(ctx, req.IdempotencyKey, receipt.ID)

	// Notifying: best-effort, never surfaced. The persisted receipt is
	// authoritative from here on.
	s.notifier.RecordLog("INFO", fmt.Sprintf(
		"Sale completed. Receipt %s, total: %s", receipt.ReceiptNumber, receipt.TotalAmount.StringFixed(2)))
	s.notifier.SubmitReceipt(receipt)

	if s.metrics != nil {
		s.metrics.RecordSaleWithAmount(ctx, req.Channel.String(), string(req.PaymentMethod), receipt.TotalAmount)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrReceiptNumber, receipt.ReceiptNumber)
	telemetry.SetOK(span)

	logger.WithTraceContext(ctx, s.logger).Info("sale processed",
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("serial_number", req.SerialNumber),
		zap.Int("quantity", req.Quantity),
		zap.String("channel", req.Channel.String()),
		zap.String("site_class", class.String()),
		zap.Duration("simulated_delivery", dispatched.SimulatedTime),
	)

	response := ToReceiptResponse(receipt)
	return &response, nil
}

// GetReceiptByID retrieves a fiscal receipt by ID
func (s *SaleService) GetReceiptByID(ctx context.Context, id uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receipts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToReceiptResponse(receipt)
	return &response, nil
}

// ListReceipts retrieves receipts ordered by sale timestamp, newest first
func (s *SaleService) ListReceipts(ctx context.Context, params sales.ListParams) ([]ReceiptResponse, int64, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}

	receipts, total, err := s.receipts.FindAll(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		responses = append(responses, ToReceiptResponse(&receipts[i]))
	}
	return responses, total, nil
}

// GetCatalog proxies the processing service's available-perfume catalog
func (s *SaleService) GetCatalog(ctx context.Context) ([]CatalogItemResponse, error) {
	items, err := s.catalog.ListAvailable(ctx)
	if err != nil {
		s.notifier.RecordLog("ERROR", fmt.Sprintf("Failed to retrieve perfume catalog: %v", err))
		return nil, err
	}

	responses := make([]CatalogItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, ToCatalogItemResponse(item))
	}
	return responses, nil
}

// replayFromIdempotencyKey returns the receipt stored for a previously seen
// idempotency key, if any
func (s *SaleService) replayFromIdempotencyKey(ctx context.Context, key string) (*ReceiptResponse, bool, error) {
	if key == "" || s.idempotency == nil || !s.idemConfig.Enabled {
		return nil, false, nil
	}

	stored, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		// A broken idempotency store must not block sales; fall through to
		// normal processing.
		s.logger.Warn("idempotency lookup failed", zap.Error(err))
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}

	receiptID, err := uuid.Parse(stored)
	if err != nil {
		s.logger.Warn("invalid receipt reference in idempotency store", zap.String("value", stored))
		return nil, false, nil
	}

	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, false, err
	}

	response := ToReceiptResponse(receipt)
	response.Replayed = true
	return &response, true, nil
}

// rememberIdempotencyKey records key -> receipt ID after a successful sale
func (s *SaleService) rememberIdempotencyKey(ctx context.Context, key string, receiptID uuid.UUID) {
	if key == "" || s.idempotency == nil || !s.idemConfig.Enabled {
		return
	}
	if _, err := s.idempotency.Remember(ctx, key, receiptID.String(), s.idemConfig.TTL); err != nil {
		s.logger.Warn("failed to remember idempotency key", zap.Error(err))
	}
}

// compensate releases capacity reserved for a sale whose later steps failed
func (s *SaleService) compensate(ctx context.Context, siteID uuid.UUID, count int, class dispatch.SiteClass) {
	if err := s.sites.Release(ctx, siteID, count); err != nil {
		s.logger.Error("capacity release failed during compensation",
			zap.String("site_id", siteID.String()),
			zap.Int("count", count),
			zap.Error(err),
		)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordCapacityRelease(ctx, class.String())
	}
}

// abort logs a saga failure through the notifier and returns the cause
func (s *SaleService) abort(ctx context.Context, req ProcessSaleRequest, stage string, err error) error {
	telemetry.RecordError(telemetry.SpanFromContext(ctx), err)
	s.notifier.RecordLog("ERROR", fmt.Sprintf(
		"Sale processing failed (%s): serial=%s quantity=%d: %v", stage, req.SerialNumber, req.Quantity, err))
	if s.metrics != nil {
		code := "ERR_INTERNAL"
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			code = domainErr.Code
		}
		s.metrics.RecordSaleFailed(ctx, code)
	}
	return err
}
