package model

import "github.com/shopspring/decimal"

type Customer struct {
	BaseModel
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Email         string          `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Phone         string          `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Address       string          `gorm:"type:text" json:"address,omitempty"`
	CreditLimit   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"credit_limit"`
	Balance       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	AverageRating *float64        `json:"average_rating,omitempty"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
}

// HasAvailableCredit reports whether the balance is still under the credit limit.
func (c *Customer) HasAvailableCredit() bool {
	return c.Balance.LessThan(c.CreditLimit)
}

// CustomerSummary is a customer with lifetime sales figures.
type CustomerSummary struct {
	Customer
	TotalSpent  decimal.Decimal `json:"total_spent"`
	TotalOrders int64           `json:"total_orders"`
}
