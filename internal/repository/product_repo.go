package repository

import (
	"context"
	"strings"

	"go-retail-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Search     string
	CategoryID *uuid.UUID
	LowStock   bool
	ActiveOnly bool
}

// InventoryStats is the stock overview shown on the inventory page.
type InventoryStats struct {
	TotalProducts   int64           `json:"total_products"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
}

type LowStockProduct struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Quantity      int       `json:"quantity"`
	AlertQuantity int       `json:"alert_quantity"`
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
	Stats(ctx context.Context) (*InventoryStats, error)
	LowStock(ctx context.Context) ([]LowStockProduct, error)

	// Transactional helpers: tx is the unit of work the caller opened.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	DecrementQuantity(tx *gorm.DB, id uuid.UUID, quantity int, clamp bool, updatedBy string) (bool, error)
	AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (bool, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	query := r.db.WithContext(ctx).Preload("Category")

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.LowStock {
		query = query.Where("quantity <= alert_quantity")
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	err := query.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Update saves catalog fields. Quantity is owned by the sale and adjustment
// paths and is never written here.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).
		Model(product).
		Select("sku", "name", "description", "price", "cost_price", "alert_quantity",
			"category_id", "barcode", "is_active", "updated_by").
		Updates(product).Error
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).Where("id = ?", id).Update("updated_by", deletedBy)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
}

func (r *productRepo) Stats(ctx context.Context) (*InventoryStats, error) {
	var stats InventoryStats
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select(`
			COUNT(*) AS total_products,
			COALESCE(SUM(CASE WHEN quantity <= alert_quantity THEN 1 ELSE 0 END), 0) AS low_stock_count,
			COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock_count,
			COALESCE(SUM(price * quantity), 0) AS total_stock_value
		`).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *productRepo) LowStock(ctx context.Context) ([]LowStockProduct, error) {
	var products []LowStockProduct
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("id, name, sku, quantity, alert_quantity").
		Where("quantity <= alert_quantity").
		Order("quantity ASC").
		Scan(&products).Error
	return products, err
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := tx.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementQuantity removes quantity units in one conditional statement.
// Without clamp the row only changes when enough stock is on hand; with clamp
// the result floors at zero. It reports false when no row matched.
func (r *productRepo) DecrementQuantity(tx *gorm.DB, id uuid.UUID, quantity int, clamp bool, updatedBy string) (bool, error) {
	query := tx.Model(&model.Product{}).Where("id = ?", id)

	var expr clause.Expr
	if clamp {
		expr = gorm.Expr("CASE WHEN quantity >= ? THEN quantity - ? ELSE 0 END", quantity, quantity)
	} else {
		query = query.Where("quantity >= ?", quantity)
		expr = gorm.Expr("quantity - ?", quantity)
	}

	res := query.Updates(map[string]interface{}{
		"quantity":   expr,
		"updated_by": updatedBy,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AdjustQuantity applies a signed delta as long as the result stays >= 0.
func (r *productRepo) AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
