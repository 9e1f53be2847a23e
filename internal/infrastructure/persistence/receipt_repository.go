package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/perfumery/sales/internal/domain/sales"
	"github.com/perfumery/sales/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReceiptRepository implements sales.ReceiptRepository using GORM.
// Fiscal receipts are append-only: there is no update or delete path.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Create persists a new fiscal receipt
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *sales.FiscalReceipt) error {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a fiscal receipt by its ID
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.FiscalReceipt, error) {
	var receipt sales.FiscalReceipt
	if err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByReceiptNumber finds a fiscal receipt by its receipt number
func (r *GormReceiptRepository) FindByReceiptNumber(ctx context.Context, number string) (*sales.FiscalReceipt, error) {
	var receipt sales.FiscalReceipt
	if err := r.db.WithContext(ctx).First(&receipt, "receipt_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindAll returns receipts ordered by sale timestamp, newest first, with the
// total count for pagination
func (r *GormReceiptRepository) FindAll(ctx context.Context, params sales.ListParams) ([]sales.FiscalReceipt, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&sales.FiscalReceipt{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.PageSize

	var receipts []sales.FiscalReceipt
	if err := r.db.WithContext(ctx).
		Order("sale_timestamp desc").
		Offset(offset).
		Limit(params.PageSize).
		Find(&receipts).Error; err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}
