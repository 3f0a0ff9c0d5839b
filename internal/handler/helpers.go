package handler

import (
	"errors"
	"strconv"
	"time"

	"go-retail-pos/internal/middleware"
	"go-retail-pos/internal/model"
	"go-retail-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Helper untuk ambil actor dari JWT context (set by auth middleware)
func getActor(c *fiber.Ctx) *model.Actor {
	return middleware.Actor(c)
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return fiber.StatusBadRequest
	case service.KindUnauthorized:
		return fiber.StatusUnauthorized
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindConflict:
		return fiber.StatusConflict
	case service.KindBusinessRule:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the error body for a service failure.
func respondError(c *fiber.Ctx, err error) error {
	kind := service.KindOf(err)
	retryable := service.IsRetryable(err)

	msg := err.Error()
	if kind == service.KindPersistence && !retryable {
		msg = "Internal Server Error"
	}

	body := fiber.Map{
		"error":     msg,
		"kind":      kind,
		"retryable": retryable,
	}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body["details"] = verr.Fields
	}
	return c.Status(statusFor(kind)).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":     msg,
		"kind":      service.KindValidation,
		"retryable": false,
	})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// queryTime accepts YYYY-MM-DD or RFC3339. A bare date used as an upper
// bound extends to the end of that day.
func queryTime(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryInt(c *fiber.Ctx, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
