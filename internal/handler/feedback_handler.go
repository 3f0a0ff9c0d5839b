package handler

import (
	"go-retail-pos/internal/middleware"
	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"
	"go-retail-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type FeedbackHandler struct {
	service service.FeedbackService
}

func NewFeedbackHandler(s service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: s}
}

// SubmitFeedback records feedback entered by staff
// POST /api/v1/feedback
func (h *FeedbackHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req service.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	feedback, err := h.service.SubmitFeedback(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Feedback recorded", "data": feedback})
}

// SubmitPublicFeedback handles the customer-facing link. The sale comes
// from the token middleware; customer_id in the body is ignored.
// POST /api/v1/feedback/:sale_id/:token
func (h *FeedbackHandler) SubmitPublicFeedback(c *fiber.Ctx) error {
	sale, ok := c.Locals(middleware.LocalFeedbackSale).(*model.Sale)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid feedback token", "kind": service.KindUnauthorized})
	}

	var req service.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req.SaleID = sale.ID
	req.CustomerID = sale.CustomerID

	feedback, err := h.service.SubmitFeedback(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Thank you for your feedback", "data": feedback})
}

// GET /api/v1/feedback?sale_id=&customer_id=
func (h *FeedbackHandler) GetFeedback(c *fiber.Ctx) error {
	var (
		filter repository.FeedbackFilter
		err    error
	)
	if filter.SaleID, err = queryUUID(c, "sale_id"); err != nil {
		return badRequest(c, "Invalid sale_id")
	}
	if filter.CustomerID, err = queryUUID(c, "customer_id"); err != nil {
		return badRequest(c, "Invalid customer_id")
	}

	feedback, err := h.service.ListFeedback(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feedback)
}
