package repository

import (
	"context"

	"go-retail-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeedbackFilter struct {
	SaleID     *uuid.UUID
	CustomerID *uuid.UUID
}

type FeedbackRepository interface {
	Create(tx *gorm.DB, feedback *model.CustomerFeedback) error
	FindAll(ctx context.Context, filter FeedbackFilter) ([]model.CustomerFeedback, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db}
}

func (r *feedbackRepo) Create(tx *gorm.DB, feedback *model.CustomerFeedback) error {
	return tx.Create(feedback).Error
}

func (r *feedbackRepo) FindAll(ctx context.Context, filter FeedbackFilter) ([]model.CustomerFeedback, error) {
	var feedback []model.CustomerFeedback
	query := r.db.WithContext(ctx).Preload("Customer").Preload("Sale")

	if filter.SaleID != nil {
		query = query.Where("sale_id = ?", *filter.SaleID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	err := query.Order("created_at DESC").Find(&feedback).Error
	return feedback, err
}
