package model

import (
	"strings"

	"github.com/google/uuid"
)

type AdjustmentType string

const (
	AdjustIncrease AdjustmentType = "increase"
	AdjustDecrease AdjustmentType = "decrease"
)

// ParseAdjustmentType accepts increase/decrease and the older add/remove names.
func ParseAdjustmentType(s string) (AdjustmentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "increase", "add", "in":
		return AdjustIncrease, true
	case "decrease", "remove", "out":
		return AdjustDecrease, true
	}
	return "", false
}

// Delta returns the signed quantity change for this adjustment type.
func (t AdjustmentType) Delta(quantity int) int {
	if t == AdjustDecrease {
		return -quantity
	}
	return quantity
}

// InventoryTransaction is the audit record of one manual stock adjustment.
// NewQuantity always equals PreviousQuantity + Type.Delta(Quantity).
type InventoryTransaction struct {
	LogModel
	ProductID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	Product          *Product       `json:"product,omitempty"`
	Type             AdjustmentType `gorm:"type:varchar(10);not null" json:"type"`
	Quantity         int            `gorm:"not null" json:"quantity"`
	Reason           string         `gorm:"type:varchar(255);not null" json:"reason"`
	PreviousQuantity int            `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int            `gorm:"not null" json:"new_quantity"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User             *User          `json:"user,omitempty"`
}
