package handler

import (
	"go-retail-pos/internal/repository"
	"go-retail-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	service  service.SaleService
	feedback service.FeedbackService
}

func NewSaleHandler(s service.SaleService, f service.FeedbackService) *SaleHandler {
	return &SaleHandler{service: s, feedback: f}
}

// RecordSale handles checkout
// POST /api/v1/sales
func (h *SaleHandler) RecordSale(c *fiber.Ctx) error {
	var req service.RecordSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	sale, err := h.service.RecordSale(c.UserContext(), &req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Sale recorded", "data": sale})
}

// GET /api/v1/sales?customer_id=&start_date=&end_date=&limit=
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	var (
		filter repository.SaleFilter
		err    error
	)
	if filter.CustomerID, err = queryUUID(c, "customer_id"); err != nil {
		return badRequest(c, "Invalid customer_id")
	}
	if filter.From, err = queryTime(c, "start_date", false); err != nil {
		return badRequest(c, "Invalid start_date")
	}
	if filter.To, err = queryTime(c, "end_date", true); err != nil {
		return badRequest(c, "Invalid end_date")
	}
	filter.Limit = queryInt(c, "limit", 0)

	sales, err := h.service.ListSales(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sales)
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid sale ID")
	}

	sale, err := h.service.GetSale(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sale)
}

// GetFeedbackLink returns the signed public link for rating a sale
// GET /api/v1/sales/:id/feedback-link
func (h *SaleHandler) GetFeedbackLink(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid sale ID")
	}

	link, err := h.feedback.FeedbackLink(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"sale_id": id, "feedback_url": link})
}
