package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/oidc-gate/config"
	"golang.org/x/sync/errgroup"
)

// Run wires the gateway from cfg and serves until ctx is cancelled or the
// server fails.
func Run(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) error {
	metrics := BuildMetrics(ctx, cfg.Observability.Metrics, logger)
	defer metrics.Close()

	client, err := ConnectRedis(RedisConnectConfig{
		Context:     ctx,
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close redis client", "error", closeErr)
		}
	}()

	gates, err := BuildGates(ctx, AuthConfig{
		Auth:        cfg.Auth,
		HTTP:        cfg.HTTP,
		Session:     cfg.Session,
		RedisClient: client,
		Logger:      logger,
		Metrics:     metrics.Sink,
	})
	if err != nil {
		return err
	}

	handler, err := BuildHTTPHandler(HTTPHandlerConfig{
		Config:      &cfg,
		Gates:       gates,
		RedisClient: client,
		Metrics:     metrics.Handler,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return Serve(ctx, ServeConfig{
		Server:          NewHTTPServer(cfg.HTTP.Addr, handler),
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger,
	})
}

// ServeConfig contains dependencies for Serve.
type ServeConfig struct {
	Server          *http.Server
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Serve runs the server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, cfg ServeConfig) error {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cfg.Logger.Info("starting HTTP server", "addr", cfg.Server.Addr)
		if err := cfg.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(ShutdownConfig{
			Server:  cfg.Server,
			Timeout: cfg.ShutdownTimeout,
			Logger:  cfg.Logger,
		})
	})

	return g.Wait()
}
