package middleware

import (
	"go-retail-pos/internal/cache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

// Idempotency rejects a repeated Idempotency-Key with 409. Requests without
// the header pass through. The key is released when the handler does not
// succeed, so a failed request can be retried with the same key.
func Idempotency(store cache.IdempotencyStore, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyHeader)
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(400).JSON(fiber.Map{"error": "Idempotency-Key is too long", "kind": "validation"})
		}

		scoped := c.Method() + " " + c.Path() + " " + key
		ok, err := store.Reserve(c.UserContext(), scoped)
		if err != nil {
			log.Error("idempotency reserve failed", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{"error": "Idempotency store unavailable", "kind": "persistence", "retryable": true})
		}
		if !ok {
			return c.Status(409).JSON(fiber.Map{"error": "Duplicate request", "kind": "conflict"})
		}

		err = c.Next()
		if err != nil || c.Response().StatusCode() >= 400 {
			if relErr := store.Release(c.UserContext(), scoped); relErr != nil {
				log.Warn("idempotency release failed", zap.Error(relErr))
			}
		}
		return err
	}
}
