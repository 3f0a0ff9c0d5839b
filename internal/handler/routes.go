package handler

import (
	"go-retail-pos/internal/cache"
	"go-retail-pos/internal/middleware"
	"go-retail-pos/internal/model"
	"go-retail-pos/internal/service"
	"go-retail-pos/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Dependencies bundles what the router needs.
type Dependencies struct {
	Auth      service.AuthService
	Sales     service.SaleService
	Inventory service.InventoryService
	Products  service.ProductService
	Customers service.CustomerService
	Feedback  service.FeedbackService
	Analytics service.AnalyticsService
	Users     service.UserService

	Idempotency    cache.IdempotencyStore
	Hub            *ws.Hub
	AllowAnonymous bool
	Log            *zap.Logger
}

func RegisterRoutes(app *fiber.App, d Dependencies) {
	authHandler := NewAuthHandler(d.Auth)
	saleHandler := NewSaleHandler(d.Sales, d.Feedback)
	invHandler := NewInventoryHandler(d.Inventory)
	productHandler := NewProductHandler(d.Products)
	customerHandler := NewCustomerHandler(d.Customers)
	feedbackHandler := NewFeedbackHandler(d.Feedback)
	analyticsHandler := NewAnalyticsHandler(d.Analytics)
	userHandler := NewUserHandler(d.Users)

	requireAuth := middleware.RequireAuth(d.Auth)
	managers := middleware.RequireRole(model.RoleAdmin, model.RoleManager)
	admins := middleware.RequireRole(model.RoleAdmin)
	idempotent := middleware.Idempotency(d.Idempotency, d.Log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/logout", requireAuth, authHandler.Logout)

	api.Post("/feedback/:sale_id/:token", middleware.FeedbackToken(d.Feedback), feedbackHandler.SubmitPublicFeedback)

	// Sale recording may run without a user when anonymous sales are enabled
	saleAuth := requireAuth
	if d.AllowAnonymous {
		saleAuth = middleware.OptionalAuth(d.Auth)
	}
	api.Post("/sales", saleAuth, idempotent, saleHandler.RecordSale)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/sales", saleHandler.GetSales)
	protected.Get("/sales/:id", saleHandler.GetSale)
	protected.Get("/sales/:id/feedback-link", saleHandler.GetFeedbackLink)

	protected.Get("/inventory/stats", invHandler.GetStats)
	protected.Get("/inventory/transactions", invHandler.GetTransactions)
	protected.Post("/inventory/:id/adjust", managers, idempotent, invHandler.AdjustStock)

	protected.Get("/products", productHandler.GetProducts)
	protected.Get("/products/:id", productHandler.GetProduct)
	protected.Post("/products", managers, productHandler.CreateProduct)
	protected.Put("/products/:id", managers, productHandler.UpdateProduct)
	protected.Delete("/products/:id", managers, productHandler.DeleteProduct)

	protected.Get("/categories", productHandler.GetCategories)
	protected.Post("/categories", productHandler.CreateCategory)

	protected.Get("/customers", customerHandler.GetCustomers)
	protected.Get("/customers/:id", customerHandler.GetCustomer)
	protected.Post("/customers", customerHandler.CreateCustomer)
	protected.Put("/customers/:id", customerHandler.UpdateCustomer)
	protected.Delete("/customers/:id", customerHandler.DeleteCustomer)

	protected.Get("/feedback", feedbackHandler.GetFeedback)
	protected.Post("/feedback", feedbackHandler.SubmitFeedback)

	analytics := protected.Group("/analytics", managers)
	analytics.Get("/dashboard", analyticsHandler.GetDashboardStats)
	analytics.Get("/sales", analyticsHandler.GetSalesSummary)
	analytics.Get("/stock-movement", analyticsHandler.GetStockMovement)
	analytics.Get("/feedback", analyticsHandler.GetFeedbackSummary)

	users := protected.Group("/users", admins)
	users.Get("/", userHandler.GetUsers)
	users.Get("/:id", userHandler.GetUser)
	users.Post("/", userHandler.CreateUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)

	// WebSocket Route
	if d.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws", websocket.New(func(c *websocket.Conn) {
			d.Hub.Register <- c
			defer func() { d.Hub.Unregister <- c }()

			for {
				// Keep alive loop
				if _, _, err := c.ReadMessage(); err != nil {
					break
				}
			}
		}))
	}
}
