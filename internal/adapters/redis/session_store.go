// Package redis provides Redis-based adapters for sessions and provisioned users.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	apperrors "github.com/target/oidc-gate/internal/errors"
	"github.com/target/oidc-gate/internal/ports"
)

// DefaultSessionPrefix namespaces session keys.
const DefaultSessionPrefix = "oidcgate:session:"

// ErrNotFound is returned when a session or user is not present.
var ErrNotFound error = apperrors.NotFound("not found")

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore is a Redis-based session store.
// Entry TTL follows the session's ExpiresAt, which callers slide forward on every save.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, DefaultSessionPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err(); err != nil {
		return apperrors.MapStoreError(fmt.Errorf("redis set: %w", err))
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ErrNotFound
		}
		return domainauth.Session{}, apperrors.MapStoreError(fmt.Errorf("redis get: %w", err))
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal(data, &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	// Redis TTL normally handles this; clock skew between nodes does not.
	if time.Now().After(sess.ExpiresAt) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, ErrNotFound
	}

	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return apperrors.MapStoreError(fmt.Errorf("redis del: %w", err))
	}
	return nil
}

// SessionEntry is a stored session together with its remaining TTL.
type SessionEntry struct {
	Session domainauth.Session
	TTL     time.Duration
}

// Each scans stored sessions and calls fn for each decodable entry until fn returns false.
// Entries that vanish or fail to decode mid-scan are skipped.
func (s *SessionStore) Each(ctx context.Context, fn func(SessionEntry) bool) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return apperrors.MapStoreError(fmt.Errorf("redis get %s: %w", key, err))
		}
		var sess domainauth.Session
		if json.Unmarshal(data, &sess) != nil {
			continue
		}
		ttl, err := s.client.TTL(ctx, key).Result()
		if err != nil {
			return apperrors.MapStoreError(fmt.Errorf("redis ttl %s: %w", key, err))
		}
		if !fn(SessionEntry{Session: sess, TTL: ttl}) {
			return nil
		}
	}
	if err := iter.Err(); err != nil {
		return apperrors.MapStoreError(fmt.Errorf("redis scan: %w", err))
	}
	return nil
}
