package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
)

// totalsTolerance absorbs rounding differences from client-side tax math.
var totalsTolerance = decimal.New(1, -2)

// Sale is an immutable checkout record. Created once by the sale service,
// never updated.
type Sale struct {
	LogModel
	InvoiceNumber string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"invoice_number"`
	UserID        *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User          *User           `json:"user,omitempty"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer      *Customer       `json:"customer,omitempty"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"tax"`
	Discount      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	PaidAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"paid_amount"`
	DueAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"due_amount"`
	ChangeAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"change_amount"`
	PaymentMethod string          `gorm:"type:varchar(32);not null" json:"payment_method"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(16);not null" json:"payment_status"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	Items         []SaleItem      `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

type SaleItem struct {
	LogModel
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
}

// ExpectedTotal is subtotal - discount + tax.
func ExpectedTotal(subtotal, tax, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(tax)
}

// ExpectedDue is what remains owed after payment, never below zero.
// Overpayment is returned as change instead.
func ExpectedDue(total, paid decimal.Decimal) (due, change decimal.Decimal) {
	diff := total.Sub(paid)
	if diff.IsNegative() {
		return decimal.Zero, diff.Neg()
	}
	return diff, decimal.Zero
}

// WithinTolerance reports whether a and b differ by at most one cent.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(totalsTolerance)
}
