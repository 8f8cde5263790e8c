// Package testutil provides test helpers shared across the gateway's packages.
package testutil

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Candidate addresses probed when REDIS_ADDR is unset: CI service, local, docker-compose.
var redisCandidates = []string{"redis:6379", "localhost:6379", "localhost:56379"}

const redisProbeTimeout = 2 * time.Second

// FixedTimeFunc returns a clock stuck at t.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestTime is the reference instant used by time-sensitive tests.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// SetupTestRedis returns a client on an empty database reserved for the
// calling test. The test is skipped when no Redis answers, or fails when
// TEST_REQUIRE_REDIS is truthy.
func SetupTestRedis(tb testing.TB) *redis.Client {
	tb.Helper()

	addr, err := findRedis()
	if err != nil {
		if truthy(os.Getenv("TEST_REQUIRE_REDIS")) {
			tb.Fatalf("redis required for tests: %v", err)
		}
		tb.Skipf("redis not available: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveDB(tb, addr)})
	ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		tb.Fatalf("flush test redis db: %v", err)
	}
	return client
}

func findRedis() (string, error) {
	candidates := redisCandidates
	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		candidates = []string{addr}
	}

	var errs []string
	for _, addr := range candidates {
		if err := ping(addr, 0); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", addr, err))
			continue
		}
		return addr, nil
	}
	return "", fmt.Errorf("no redis at %s", strings.Join(errs, "; "))
}

func ping(addr string, db int) error {
	c := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}

// reserveDB picks a database index so packages tested in parallel do not
// flush each other. TEST_REDIS_DB pins the index; otherwise DB 1..15 are
// claimed through lock keys in DB 0 and released on cleanup.
func reserveDB(tb testing.TB, addr string) int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil && db >= 0 {
			return db
		}
		tb.Logf("ignoring invalid TEST_REDIS_DB=%q", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for db := 1; db <= 15; db++ {
		key := "oidcgate:testutil:db:" + strconv.Itoa(db)
		ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
		ok, err := meta.SetNX(ctx, key, owner, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}
		tb.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
			defer cancel()
			_ = meta.Del(ctx, key).Err()
			_ = meta.Close()
		})
		return db
	}

	_ = meta.Close()
	tb.Logf("all redis test databases busy, sharing DB 1")
	return 1
}

func truthy(v string) bool {
	return slices.Contains([]string{"1", "true", "yes", "y"}, strings.ToLower(strings.TrimSpace(v)))
}
