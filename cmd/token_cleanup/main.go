package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"blogengine/internal/config"
	"blogengine/internal/database"
	"blogengine/internal/modules/auth"
	jwtsvc "blogengine/internal/pkg/jwt"
	"blogengine/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j := jwtsvc.New(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	svc := auth.NewService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		j, nil, nil, nil, logger,
		auth.Config{APIURL: cfg.APIURL},
	)

	removed, err := svc.PurgeStaleTokens(ctx)
	if err != nil {
		logger.Error("token cleanup failed", "removed", removed, "error", err)
		os.Exit(1)
	}
	logger.Info("token cleanup completed", "removed", removed)
}
