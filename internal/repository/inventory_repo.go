package repository

import (
	"context"
	"time"

	"go-retail-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryTransactionFilter struct {
	ProductID *uuid.UUID
	Type      model.AdjustmentType
	From      *time.Time
	To        *time.Time
	Limit     int
}

type InventoryTransactionRepository interface {
	Create(tx *gorm.DB, record *model.InventoryTransaction) error
	FindAll(ctx context.Context, filter InventoryTransactionFilter) ([]model.InventoryTransaction, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

type inventoryTransactionRepo struct {
	db *gorm.DB
}

func NewInventoryTransactionRepo(db *gorm.DB) InventoryTransactionRepository {
	return &inventoryTransactionRepo{db}
}

func (r *inventoryTransactionRepo) Create(tx *gorm.DB, record *model.InventoryTransaction) error {
	return tx.Create(record).Error
}

func (r *inventoryTransactionRepo) FindAll(ctx context.Context, filter InventoryTransactionFilter) ([]model.InventoryTransaction, error) {
	var records []model.InventoryTransaction
	// Unscoped product preload keeps history readable after a product is deleted
	query := r.db.WithContext(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("User")

	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	err := query.Order("created_at DESC").Limit(clampLimit(filter.Limit)).Find(&records).Error
	return records, err
}

func (r *inventoryTransactionRepo) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.InventoryTransaction{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}
