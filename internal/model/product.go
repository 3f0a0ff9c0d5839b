package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultAlertQuantity = 5

type Product struct {
	BaseModel
	SKU           string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	CostPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"cost_price"`
	Quantity      int             `gorm:"not null;default:0" json:"quantity"`
	AlertQuantity int             `gorm:"not null" json:"alert_quantity"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category      *Category       `json:"category,omitempty"`
	Barcode       string          `gorm:"type:varchar(64)" json:"barcode,omitempty"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
}

// IsLowStock reports whether on-hand quantity has reached the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.AlertQuantity
}

func (p *Product) IsOutOfStock() bool {
	return p.Quantity == 0
}

// StockValue is price times on-hand quantity.
func (p *Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
