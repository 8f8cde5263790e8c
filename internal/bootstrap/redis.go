package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/oidc-gate/config"
)

// RedisConnectConfig contains configuration for the Redis connection.
type RedisConnectConfig struct {
	Context     context.Context
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

const redisPingTimeout = 5 * time.Second

// ConnectRedis opens the session and user directory backend and pings it.
// Sentinel and cluster deployments are chosen by config.
//
//nolint:ireturn // the concrete client depends on the deployment mode.
func ConnectRedis(cfg RedisConnectConfig) (redis.UniversalClient, error) {
	opts, desc, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis %s: %w", desc, err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "target", desc)
	}
	return client, nil
}

// redisOptions maps config onto go-redis universal options. desc names the
// target for logs and never carries credentials.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	opts := &redis.UniversalOptions{Password: cfg.Password}

	switch {
	case cfg.UseSentinel:
		nodes := trimmedNonEmpty(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel mode requires REDIS_SENTINEL_NODES")
		}
		opts.Addrs = nodes
		opts.MasterName = cfg.SentinelMasterName
		opts.SentinelPassword = cfg.SentinelPassword
		return opts, "sentinel:" + cfg.SentinelMasterName, nil

	case cfg.UseCluster:
		opts.IsClusterMode = true
		opts.Addrs = trimmedNonEmpty(cfg.ClusterNodes)
		if len(opts.Addrs) == 0 {
			// A single configuration endpoint given as the URI seeds the cluster.
			if err := applyURI(opts, cfg.URI); err != nil {
				return nil, "", err
			}
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis cluster mode requires REDIS_CLUSTER_NODES or REDIS_URI")
		}
		return opts, "cluster:" + strings.Join(opts.Addrs, ","), nil

	default:
		if err := applyURI(opts, cfg.URI); err != nil {
			return nil, "", err
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis requires REDIS_URI")
		}
		return opts, opts.Addrs[0], nil
	}
}

// applyURI accepts either host:port or a redis:// / rediss:// URL. URL
// credentials and TLS settings override the configured password.
func applyURI(opts *redis.UniversalOptions, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		opts.Addrs = []string{uri}
		return nil
	}

	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

func trimmedNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return slices.DeleteFunc(out, func(s string) bool { return s == "" })
}
