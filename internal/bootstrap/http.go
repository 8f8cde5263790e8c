package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/oidc-gate/config"
	redisadapter "github.com/target/oidc-gate/internal/adapters/redis"
	httpx "github.com/target/oidc-gate/internal/http"
	"github.com/target/oidc-gate/internal/ports"
)

// HTTPHandlerConfig contains dependencies for the gateway handler.
type HTTPHandlerConfig struct {
	Config      *config.AppConfig
	Gates       *Gates
	RedisClient redis.UniversalClient
	Metrics     http.Handler // optional scrape endpoint
	Logger      *slog.Logger

	// Sessions overrides the Redis session store. Used by tests.
	Sessions ports.SessionStore
}

// BuildHTTPHandler composes the session manager, gates and upstream proxy.
func BuildHTTPHandler(cfg HTTPHandlerConfig) (http.Handler, error) {
	if cfg.Config == nil || cfg.Gates == nil {
		return nil, errors.New("http handler requires config and gates")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	store := cfg.Sessions
	var health httpx.Pinger
	if store == nil {
		if cfg.RedisClient == nil {
			return nil, errors.New("http handler requires a session store or redis client")
		}
		store = redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, appCfg.Session.KeyPrefix)
	}
	if cfg.RedisClient != nil {
		client := cfg.RedisClient
		health = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	cookiePath := appCfg.HTTP.BasePath
	if cookiePath == "" {
		cookiePath = "/"
	}

	target := appCfg.Upstream.Target()
	if target == nil {
		logger.Warn("UPSTREAM_URL not set; every request past the gates gets 404")
	}

	return httpx.NewRouter(httpx.RouterOptions{
		Sessions: httpx.NewSessionManager(httpx.SessionManagerOptions{
			Store:        store,
			CookieName:   appCfg.Session.CookieName,
			CookieDomain: appCfg.HTTP.CookieDomain,
			CookiePath:   cookiePath,
			TTL:          appCfg.Session.TTL,
			Logger:       logger,
		}),
		TokenGate:   cfg.Gates.Token,
		BearerGate:  cfg.Gates.Bearer,
		SecureGuard: cfg.Gates.SecureURIs,
		Upstream:    httpx.NewUpstreamProxy(httpx.UpstreamOptions{Target: target, Logger: logger}),
		Health:      health,
		Metrics:     cfg.Metrics,
		Logger:      logger,
	}), nil
}

// NewHTTPServer wraps handler in a server with the gateway's timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// The parent context is already cancelled when this runs.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
