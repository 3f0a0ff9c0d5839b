package middleware

import (
	"go-retail-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// LocalFeedbackSale holds the *model.Sale a valid feedback token was issued for.
const LocalFeedbackSale = "feedback_sale"

// FeedbackToken guards the public feedback route: the :token param must be
// the signature of the :sale_id sale.
func FeedbackToken(feedback service.FeedbackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		saleID, err := uuid.Parse(c.Params("sale_id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID", "kind": "validation"})
		}

		sale, err := feedback.CheckToken(c.UserContext(), saleID, c.Params("token"))
		if err != nil {
			status := 401
			if service.KindOf(err) == service.KindPersistence {
				status = 500
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error(), "kind": service.KindOf(err)})
		}

		c.Locals(LocalFeedbackSale, sale)
		return c.Next()
	}
}
