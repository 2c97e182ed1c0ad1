// Package main Media Storefront API
//
// @title           Media Storefront API
// @version         1.0
// @description     Витрина подписок на медиасервер: оплата, активация и истечение доступа.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey CronSecret
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the cron secret.

// @securityDefinitions.apikey AdminSession
// @in cookie
// @name admin_session
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/magabrotheeeer/media-storefront/docs"
	"github.com/magabrotheeeer/media-storefront/internal/app/storefront"
	"github.com/magabrotheeeer/media-storefront/internal/config"
	"github.com/magabrotheeeer/media-storefront/internal/lib/logger"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(os.Stdout, cfg.Env, cfg.LogLevel)

	log.Info("starting storefront", slog.String("env", cfg.Env))
	log.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := storefront.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("storefront stopped gracefully")
}
