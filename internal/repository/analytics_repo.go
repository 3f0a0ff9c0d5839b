package repository

import (
	"context"
	"fmt"
	"time"

	"go-retail-pos/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type DailySales struct {
	Date       string          `json:"date"`
	SalesCount int64           `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// SalesTotals aggregates sales since a point in time.
type SalesTotals struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type RatingSummary struct {
	Average      float64       `json:"average_rating"`
	Count        int64         `json:"count"`
	Distribution map[int]int64 `json:"rating_distribution"`
}

type AnalyticsRepository interface {
	SalesSince(ctx context.Context, since time.Time) (*SalesTotals, error)
	CountSales(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	CountCustomers(ctx context.Context) (int64, error)
	GetSalesByDay(ctx context.Context, startDate, endDate time.Time) ([]DailySales, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetRatingSummary(ctx context.Context) (*RatingSummary, error)
}

type analyticsRepo struct {
	db *gorm.DB
}

func NewAnalyticsRepo(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepo{db}
}

func (r *analyticsRepo) SalesSince(ctx context.Context, since time.Time) (*SalesTotals, error) {
	var totals SalesTotals
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS amount").
		Where("created_at >= ?", since).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *analyticsRepo) CountSales(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Sale{}).Count(&count).Error
	return count, err
}

func (r *analyticsRepo) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error
	return count, err
}

func (r *analyticsRepo) CountCustomers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Customer{}).Count(&count).Error
	return count, err
}

func (r *analyticsRepo) GetSalesByDay(ctx context.Context, startDate, endDate time.Time) ([]DailySales, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("DATE(created_at) AS date, COUNT(*) AS sales_count, COALESCE(SUM(total), 0) AS revenue").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []DailySales{}
	for rows.Next() {
		var (
			raw  interface{}
			data DailySales
		)
		if err := rows.Scan(&raw, &data.SalesCount, &data.Revenue); err != nil {
			return nil, err
		}
		data.Date = dateKey(raw)
		results = append(results, data)
	}
	return results, rows.Err()
}

func (r *analyticsRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	// Query untuk aggregate adjustments per hari
	rows, err := r.db.WithContext(ctx).Model(&model.InventoryTransaction{}).
		Select(`
			DATE(created_at) AS date,
			COALESCE(SUM(CASE WHEN type = ? THEN quantity ELSE 0 END), 0) AS inbound,
			COALESCE(SUM(CASE WHEN type = ? THEN quantity ELSE 0 END), 0) AS outbound
		`, model.AdjustIncrease, model.AdjustDecrease).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []StockMovementData{}
	for rows.Next() {
		var (
			raw  interface{}
			data StockMovementData
		)
		if err := rows.Scan(&raw, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		data.Date = dateKey(raw)
		results = append(results, data)
	}
	return results, rows.Err()
}

func (r *analyticsRepo) GetRatingSummary(ctx context.Context) (*RatingSummary, error) {
	var rows []struct {
		Rating int
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&model.CustomerFeedback{}).
		Select("rating, COUNT(*) AS total").
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := &RatingSummary{Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var weighted int64
	for _, row := range rows {
		summary.Distribution[row.Rating] = row.Total
		summary.Count += row.Total
		weighted += int64(row.Rating) * row.Total
	}
	if summary.Count > 0 {
		summary.Average = float64(weighted) / float64(summary.Count)
	}
	return summary, nil
}

// dateKey normalizes DATE() output, which drivers return as time.Time,
// string or []byte depending on the dialect.
func dateKey(v interface{}) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format("2006-01-02")
	case []byte:
		return truncateDate(string(d))
	case string:
		return truncateDate(d)
	case nil:
		return ""
	default:
		return fmt.Sprint(d)
	}
}

func truncateDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
