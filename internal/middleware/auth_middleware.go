package middleware

import (
	"strings"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LocalActor is the c.Locals key holding the authenticated *model.Actor.
const LocalActor = "actor"

// Actor returns the authenticated user for this request, or nil.
func Actor(c *fiber.Ctx) *model.Actor {
	actor, _ := c.Locals(LocalActor).(*model.Actor)
	return actor
}

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(auth service.AuthService) fiber.Handler {
	return authenticate(auth, false)
}

// OptionalAuth authenticates when a token is present and lets anonymous
// requests through. An invalid token is still rejected.
func OptionalAuth(auth service.AuthService) fiber.Handler {
	return authenticate(auth, true)
}

func authenticate(auth service.AuthService, optional bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			if optional {
				return c.Next()
			}
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token", "kind": "unauthorized"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>", "kind": "unauthorized"})
		}

		actor, err := auth.ValidateToken(c.UserContext(), parts[1])
		if err != nil {
			status := 401
			if service.KindOf(err) == service.KindPersistence {
				status = 500
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error(), "kind": service.KindOf(err)})
		}

		c.Locals(LocalActor, actor)
		c.Locals("user_id", actor.UserID.String())
		c.Locals("user_role", string(actor.Role))

		return c.Next()
	}
}

// RequireRole checks that the authenticated user holds one of roles
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := Actor(c)
		if actor == nil {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized", "kind": "unauthorized"})
		}

		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}

		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = string(r)
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(names, ", ") + " roles",
			"kind":  "forbidden",
		})
	}
}
