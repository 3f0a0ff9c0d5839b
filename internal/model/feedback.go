package model

import "github.com/google/uuid"

type CustomerFeedback struct {
	LogModel
	SaleID     uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	Sale       *Sale     `json:"sale,omitempty"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer `json:"customer,omitempty"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment,omitempty"`
}

func (CustomerFeedback) TableName() string {
	return "customer_feedback"
}
