package repository

import (
	"context"
	"strings"

	"go-retail-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindAll(ctx context.Context, search string) ([]model.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	Summary(ctx context.Context, id uuid.UUID) (*model.CustomerSummary, error)
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Customer, error)
	RefreshAverageRating(tx *gorm.DB, id uuid.UUID) error
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepo) FindAll(ctx context.Context, search string) ([]model.Customer, error) {
	var customers []model.Customer
	query := r.db.WithContext(ctx)
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}
	err := query.Order("created_at DESC").Find(&customers).Error
	return customers, err
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *customerRepo) Summary(ctx context.Context, id uuid.UUID) (*model.CustomerSummary, error) {
	customer, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var totals struct {
		TotalSpent  decimal.Decimal
		TotalOrders int64
	}
	err = r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("COALESCE(SUM(total), 0) AS total_spent, COUNT(*) AS total_orders").
		Where("customer_id = ?", id).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	return &model.CustomerSummary{
		Customer:    *customer,
		TotalSpent:  totals.TotalSpent,
		TotalOrders: totals.TotalOrders,
	}, nil
}

func (r *customerRepo) Update(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).
		Model(customer).
		Select("name", "email", "phone", "address", "credit_limit", "balance", "is_active", "updated_by").
		Updates(customer).Error
}

func (r *customerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *customerRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := tx.First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// RefreshAverageRating recomputes the customer's mean feedback rating.
func (r *customerRepo) RefreshAverageRating(tx *gorm.DB, id uuid.UUID) error {
	var avg struct {
		Average *float64
	}
	err := tx.Model(&model.CustomerFeedback{}).
		Select("AVG(rating) AS average").
		Where("customer_id = ?", id).
		Scan(&avg).Error
	if err != nil {
		return err
	}
	return tx.Model(&model.Customer{}).Where("id = ?", id).Update("average_rating", avg.Average).Error
}
