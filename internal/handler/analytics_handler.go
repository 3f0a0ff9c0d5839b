package handler

import (
	"go-retail-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
}

func NewAnalyticsHandler(s service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: s}
}

// GetDashboardStats returns overview statistics
func (h *AnalyticsHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(stats)
}

// GetSalesSummary returns revenue per day
// Query params: days (default 7)
func (h *AnalyticsHandler) GetSalesSummary(c *fiber.Ctx) error {
	days := queryInt(c, "days", 7)

	data, err := h.service.GetSalesSummary(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *AnalyticsHandler) GetStockMovement(c *fiber.Ctx) error {
	days := queryInt(c, "days", 7)

	data, err := h.service.GetStockMovement(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

func (h *AnalyticsHandler) GetFeedbackSummary(c *fiber.Ctx) error {
	summary, err := h.service.GetFeedbackSummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
