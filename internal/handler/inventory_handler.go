package handler

import (
	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"
	"go-retail-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// AdjustStock records a manual stock correction
// POST /api/v1/inventory/:id/adjust
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	productID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "Invalid product ID")
	}

	var req service.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	result, err := h.service.AdjustStock(c.UserContext(), productID, &req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Stock adjusted",
		"new_quantity": result.NewQuantity,
		"data":         result.Transaction,
	})
}

func (h *InventoryHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.GetInventoryStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GET /api/v1/inventory/transactions?product_id=&type=&start_date=&end_date=&limit=
func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	var (
		filter repository.InventoryTransactionFilter
		err    error
	)
	if filter.ProductID, err = queryUUID(c, "product_id"); err != nil {
		return badRequest(c, "Invalid product_id")
	}
	filter.Type = model.AdjustmentType(c.Query("type"))
	if filter.From, err = queryTime(c, "start_date", false); err != nil {
		return badRequest(c, "Invalid start_date")
	}
	if filter.To, err = queryTime(c, "end_date", true); err != nil {
		return badRequest(c, "Invalid end_date")
	}
	filter.Limit = queryInt(c, "limit", 0)

	records, err := h.service.ListTransactions(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}
