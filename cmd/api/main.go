package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-retail-pos/internal/cache"
	"go-retail-pos/internal/handler"
	"go-retail-pos/internal/repository"
	"go-retail-pos/internal/service"
	"go-retail-pos/internal/ws"
	"go-retail-pos/pkg/config"
	"go-retail-pos/pkg/database"
	"go-retail-pos/pkg/jwt"
	"go-retail-pos/pkg/logger"
	"go-retail-pos/pkg/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OtelExporter, cfg.OtelEndpoint)
	if err != nil {
		zlog.Fatal("init tracing", zap.Error(err))
	}

	// 2. Setup Database
	db, err := database.Connect(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	if err := repository.Migrate(db); err != nil {
		zlog.Fatal("migrate", zap.Error(err))
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(zlog.Named("ws"))
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	invRepo := repository.NewInventoryTransactionRepo(db)
	feedbackRepo := repository.NewFeedbackRepo(db)
	analyticsRepo := repository.NewAnalyticsRepo(db)
	userRepo := repository.NewUserRepo(db)

	tokens := jwt.NewManager(cfg.JWTSecret, 0)
	authService := service.NewAuthService(userRepo, tokens)
	userService := service.NewUserService(userRepo)

	seed(ctx, cfg, db, userService, zlog)

	deps := handler.Dependencies{
		Auth: authService,
		Sales: service.NewSaleService(db, productRepo, saleRepo, customerRepo,
			service.NewInvoiceGenerator(cfg.Sales.InvoicePrefix), wsHub,
			service.SaleOptions{
				AllowAnonymous: cfg.Sales.AllowAnonymous,
				OversellPolicy: cfg.Sales.OversellPolicy,
			}, zlog.Named("sales")),
		Inventory:      service.NewInventoryService(db, productRepo, invRepo, wsHub, zlog.Named("inventory")),
		Products:       service.NewProductService(productRepo, categoryRepo, wsHub),
		Customers:      service.NewCustomerService(customerRepo),
		Feedback:       service.NewFeedbackService(db, feedbackRepo, saleRepo, customerRepo, cfg.AppKey, cfg.FrontendURL),
		Analytics:      service.NewAnalyticsService(analyticsRepo, productRepo),
		Users:          userService,
		Idempotency:    idempotencyStore(ctx, cfg, zlog),
		Hub:            wsHub,
		AllowAnonymous: cfg.Sales.AllowAnonymous,
		Log:            zlog,
	}

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Retail POS API v1.0",
	})

	// Middleware
	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	// 6. Routes
	handler.RegisterRoutes(app, deps)

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Panic("listen", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	wsHub.Close()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		zlog.Warn("flush traces", zap.Error(err))
	}

	zlog.Info("Server exited")
}

// idempotencyStore uses Redis when REDIS_ADDR is set and reachable,
// otherwise keys live in process memory.
func idempotencyStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) cache.IdempotencyStore {
	if cfg.RedisAddr == "" {
		zlog.Info("Idempotency keys kept in memory")
		return cache.NewMemoryIdempotency(cfg.IdempotencyTTL)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		zlog.Warn("Redis unreachable, idempotency keys kept in memory", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return cache.NewMemoryIdempotency(cfg.IdempotencyTTL)
	}
	zlog.Info("Idempotency keys stored in Redis", zap.String("addr", cfg.RedisAddr))
	return cache.NewRedisIdempotency(rdb, cfg.IdempotencyTTL)
}

// seed creates the default category and admin user if they don't exist
func seed(ctx context.Context, cfg *config.Config, db *gorm.DB, users service.UserService, zlog *zap.Logger) {
	if err := repository.NewCategoryRepo(db).SeedDefaults(ctx); err != nil {
		zlog.Warn("Failed to seed categories", zap.Error(err))
	}

	created, err := users.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		zlog.Warn("Failed to create admin user", zap.Error(err))
		return
	}
	if created {
		zlog.Info("Admin user created", zap.String("email", cfg.AdminEmail))
	}
}
