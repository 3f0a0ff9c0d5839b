package main

import (
	"context"
	"flag"
	"log"

	"go-retail-pos/internal/repository"
	"go-retail-pos/pkg/config"
	"go-retail-pos/pkg/database"
	"go-retail-pos/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	email := flag.String("email", cfg.AdminEmail, "account to reset")
	password := flag.String("password", cfg.AdminPassword, "new password")
	flag.Parse()

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	// 2. Setup Database
	db, err := database.Connect(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)

	// 3. Find user
	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		zlog.Fatal("user not found", zap.String("email", *email), zap.Error(err))
	}

	// 4. Hash new password
	if err := user.SetPassword(*password); err != nil {
		zlog.Fatal("hash password", zap.Error(err))
	}

	// 5. Update and end existing sessions
	if err := users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		zlog.Fatal("update password", zap.Error(err))
	}
	if err := users.UpdateTokenVersion(ctx, user.ID, uuid.New().String()); err != nil {
		zlog.Fatal("reset sessions", zap.Error(err))
	}

	zlog.Info("Password reset", zap.String("email", *email))
}
