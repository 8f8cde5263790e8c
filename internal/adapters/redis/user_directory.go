package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	apperrors "github.com/target/oidc-gate/internal/errors"
	"github.com/target/oidc-gate/internal/ports"
)

// DefaultUserPrefix namespaces provisioned user keys.
const DefaultUserPrefix = "oidcgate:user:"

var _ ports.UserDirectory = (*UserDirectory)(nil)

// UserDirectory keeps provisioned users as JSON documents plus an index set for listing.
type UserDirectory struct {
	client redis.UniversalClient
	prefix string
}

// NewUserDirectory creates a Redis-backed user directory.
func NewUserDirectory(client redis.UniversalClient, prefix string) *UserDirectory {
	if prefix == "" {
		prefix = DefaultUserPrefix
	}
	return &UserDirectory{client: client, prefix: prefix}
}

func (d *UserDirectory) indexKey() string { return d.prefix + "_index" }

func (d *UserDirectory) GetUser(ctx context.Context, username string) (domainauth.UserRecord, error) {
	if username == "" {
		return domainauth.UserRecord{}, ErrNotFound
	}
	data, err := d.client.Get(ctx, d.prefix+username).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.UserRecord{}, ErrNotFound
		}
		return domainauth.UserRecord{}, apperrors.MapStoreError(fmt.Errorf("redis get: %w", err))
	}
	var rec domainauth.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domainauth.UserRecord{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return rec, nil
}

func (d *UserDirectory) PutUser(ctx context.Context, rec domainauth.UserRecord) error {
	if rec.Username == "" {
		return apperrors.Validation("username cannot be empty")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	// Plain pipeline: keys live in different cluster slots.
	_, err = d.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, d.prefix+rec.Username, data, 0)
		pipe.SAdd(ctx, d.indexKey(), rec.Username)
		return nil
	})
	if err != nil {
		return apperrors.MapStoreError(fmt.Errorf("redis put user: %w", err))
	}
	return nil
}

// ListUsers returns all provisioned users sorted by username.
func (d *UserDirectory) ListUsers(ctx context.Context) ([]domainauth.UserRecord, error) {
	names, err := d.client.SMembers(ctx, d.indexKey()).Result()
	if err != nil {
		return nil, apperrors.MapStoreError(fmt.Errorf("redis smembers: %w", err))
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)

	cmds := make([]*redis.StringCmd, len(names))
	_, err = d.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, n := range names {
			cmds[i] = pipe.Get(ctx, d.prefix+n)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, apperrors.MapStoreError(fmt.Errorf("redis list users: %w", err))
	}

	out := make([]domainauth.UserRecord, 0, len(cmds))
	for _, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			continue
		}
		var rec domainauth.UserRecord
		if json.Unmarshal(data, &rec) == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}
