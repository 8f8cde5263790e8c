package config

import (
	"strings"
	"time"
)

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"` // host:port or redis(s):// URL
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// SessionConfig controls browser sessions and the user directory keyspace.
type SessionConfig struct {
	CookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"OIDCGATE_SESSION"`
	TTL        time.Duration `env:"SESSION_TTL"         envDefault:"30m"`
	KeyPrefix  string        `env:"SESSION_KEY_PREFIX"  envDefault:"oidcgate:session:"`
	UserPrefix string        `env:"USER_KEY_PREFIX"     envDefault:"oidcgate:user:"`
}

// Sanitize applies guardrails to session values.
func (s *SessionConfig) Sanitize() {
	s.CookieName = strings.TrimSpace(s.CookieName)
	if s.CookieName == "" {
		s.CookieName = "OIDCGATE_SESSION"
	}
	if s.TTL < time.Minute {
		s.TTL = time.Minute
	}
}
