package service

import (
	"context"
	"time"

	"go-retail-pos/internal/repository"

	"github.com/shopspring/decimal"
)

const maxAnalyticsDays = 365

// DashboardStats is the summary shown on the back-office home page.
type DashboardStats struct {
	TodaySalesAmount decimal.Decimal              `json:"today_sales_amount"`
	TodaySalesCount  int64                        `json:"today_sales_count"`
	TotalSales       int64                        `json:"total_sales"`
	TotalProducts    int64                        `json:"total_products"`
	TotalCustomers   int64                        `json:"total_customers"`
	LowStockProducts []repository.LowStockProduct `json:"low_stock_products"`
}

type AnalyticsService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	GetSalesSummary(ctx context.Context, days int) ([]repository.DailySales, error)
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetFeedbackSummary(ctx context.Context) (*repository.RatingSummary, error)
}

type analyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	productRepo   repository.ProductRepository
	now           func() time.Time
}

func NewAnalyticsService(aRepo repository.AnalyticsRepository, pRepo repository.ProductRepository) AnalyticsService {
	return &analyticsService{
		analyticsRepo: aRepo,
		productRepo:   pRepo,
		now:           time.Now,
	}
}

func (s *analyticsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	const op = "AnalyticsService.GetDashboardStats"

	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	today, err := s.analyticsRepo.SalesSince(ctx, startOfDay)
	if err != nil {
		return nil, storeFailure(op, err)
	}

	stats := &DashboardStats{
		TodaySalesAmount: today.Amount,
		TodaySalesCount:  today.Count,
	}
	if stats.TotalSales, err = s.analyticsRepo.CountSales(ctx); err != nil {
		return nil, storeFailure(op, err)
	}
	if stats.TotalProducts, err = s.analyticsRepo.CountProducts(ctx); err != nil {
		return nil, storeFailure(op, err)
	}
	if stats.TotalCustomers, err = s.analyticsRepo.CountCustomers(ctx); err != nil {
		return nil, storeFailure(op, err)
	}
	if stats.LowStockProducts, err = s.productRepo.LowStock(ctx); err != nil {
		return nil, storeFailure(op, err)
	}
	return stats, nil
}

func (s *analyticsService) GetSalesSummary(ctx context.Context, days int) ([]repository.DailySales, error) {
	start, end := s.window(days)
	data, err := s.analyticsRepo.GetSalesByDay(ctx, start, end)
	if err != nil {
		return nil, storeFailure("AnalyticsService.GetSalesSummary", err)
	}
	return data, nil
}

func (s *analyticsService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	start, end := s.window(days)
	data, err := s.analyticsRepo.GetStockMovement(ctx, start, end)
	if err != nil {
		return nil, storeFailure("AnalyticsService.GetStockMovement", err)
	}
	return data, nil
}

func (s *analyticsService) GetFeedbackSummary(ctx context.Context) (*repository.RatingSummary, error) {
	summary, err := s.analyticsRepo.GetRatingSummary(ctx)
	if err != nil {
		return nil, storeFailure("AnalyticsService.GetFeedbackSummary", err)
	}
	return summary, nil
}

// window returns [now - days, now], with days clamped to 1..365.
func (s *analyticsService) window(days int) (time.Time, time.Time) {
	if days <= 0 {
		days = 7
	}
	if days > maxAnalyticsDays {
		days = maxAnalyticsDays
	}
	end := s.now().UTC()
	return end.AddDate(0, 0, -days), end
}
