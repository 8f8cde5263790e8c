package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/target/oidc-gate/config"
	"github.com/target/oidc-gate/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.Observability.Level())
	if err != nil {
		logger.ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	logStartupInfo(ctx, logger, &cfg)

	if err := bootstrap.Run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting oidc-gate",
		"addr", cfg.HTTP.Addr,
		"base_path", cfg.HTTP.BasePath,
		"auth_enabled", cfg.Auth.Enabled,
		"auth_mode", cfg.Auth.Mode,
		"realm", cfg.Auth.Realm,
		"upstream", cfg.Upstream.URL,
		"secure_uris", len(cfg.Auth.SecureURIs),
		"dev", cfg.IsDev)
}
