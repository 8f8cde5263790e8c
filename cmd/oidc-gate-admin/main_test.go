package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	redisadapter "github.com/target/oidc-gate/internal/adapters/redis"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	"github.com/target/oidc-gate/internal/testutil"
)

type fakeSessions struct {
	entries []redisadapter.SessionEntry
	deleted []string
}

func (f *fakeSessions) Each(_ context.Context, fn func(redisadapter.SessionEntry) bool) error {
	for _, e := range f.entries {
		if !fn(e) {
			return nil
		}
	}
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (domainauth.Session, error) {
	for _, e := range f.entries {
		if e.Session.ID == id {
			return e.Session, nil
		}
	}
	return domainauth.Session{}, redisadapter.ErrNotFound
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeUsers map[string]domainauth.UserRecord

func (f fakeUsers) GetUser(_ context.Context, username string) (domainauth.UserRecord, error) {
	u, ok := f[username]
	if !ok {
		return domainauth.UserRecord{}, redisadapter.ErrNotFound
	}
	return u, nil
}

func (f fakeUsers) ListUsers(context.Context) ([]domainauth.UserRecord, error) {
	out := make([]domainauth.UserRecord, 0, len(f))
	for _, name := range []string{"admin", "editor"} {
		if u, ok := f[name]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func sampleSessions() *fakeSessions {
	return &fakeSessions{entries: []redisadapter.SessionEntry{
		{Session: testutil.NewSession("s-1").WithTokens("at", "rt").WithUser("admin").Build(), TTL: 29 * time.Minute},
		{Session: testutil.NewSession("s-2").Build(), TTL: 10 * time.Minute},
		{Session: testutil.NewSession("s-3").WithTokens("at2", "rt2").WithUser("editor").Build(), TTL: -1 * time.Second},
	}}
}

func TestListSessions(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, listSessions(context.Background(), sampleSessions(), &out, listSessionsOptions{}))

	s := out.String()
	assert.Contains(t, s, "SESSION")
	assert.Regexp(t, `s-1\s+admin\s+true\s+29m0s`, s)
	assert.Regexp(t, `s-2\s+guest\s+false\s+10m0s`, s)
	assert.Regexp(t, `s-3\s+editor\s+true\s+no expiry`, s)
	assert.Contains(t, s, "Total sessions: 3")
}

func TestListSessionsFilters(t *testing.T) {
	t.Run("by user", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, listSessions(context.Background(), sampleSessions(), &out, listSessionsOptions{User: "editor"}))
		assert.NotContains(t, out.String(), "s-1")
		assert.Contains(t, out.String(), "s-3")
		assert.Contains(t, out.String(), "Total sessions: 1")
	})

	t.Run("limit", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, listSessions(context.Background(), sampleSessions(), &out, listSessionsOptions{Limit: 2}))
		assert.NotContains(t, out.String(), "s-3")
		assert.Contains(t, out.String(), "Total sessions: 2")
	})
}

func TestRevokeSession(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		store := sampleSessions()
		var out bytes.Buffer

		err := revokeSession(context.Background(), store, strings.NewReader("y\n"), &out, revokeSessionOptions{ID: "s-1"})

		require.NoError(t, err)
		assert.Equal(t, []string{"s-1"}, store.deleted)
		assert.Contains(t, out.String(), "user admin")
		assert.Contains(t, out.String(), "Revoked session s-1")
	})

	t.Run("declined", func(t *testing.T) {
		store := sampleSessions()

		err := revokeSession(context.Background(), store, strings.NewReader("n\n"), &bytes.Buffer{}, revokeSessionOptions{ID: "s-1"})

		require.EqualError(t, err, "aborted by user")
		assert.Empty(t, store.deleted)
	})

	t.Run("yes skips the prompt", func(t *testing.T) {
		store := sampleSessions()

		err := revokeSession(context.Background(), store, strings.NewReader(""), &bytes.Buffer{}, revokeSessionOptions{ID: "s-2", Yes: true})

		require.NoError(t, err)
		assert.Equal(t, []string{"s-2"}, store.deleted)
	})

	t.Run("unknown session", func(t *testing.T) {
		store := sampleSessions()

		err := revokeSession(context.Background(), store, strings.NewReader("y\n"), &bytes.Buffer{}, revokeSessionOptions{ID: "nope"})

		require.ErrorContains(t, err, `session "nope" not found`)
		assert.Empty(t, store.deleted)
	})
}

func TestParseRevokeSessionFlags(t *testing.T) {
	opts, err := parseRevokeSessionFlags([]string{"--yes", "s-9"})
	require.NoError(t, err)
	assert.Equal(t, revokeSessionOptions{ID: "s-9", Yes: true}, opts)

	_, err = parseRevokeSessionFlags(nil)
	require.Error(t, err)

	_, err = parseListSessionsFlags([]string{"--limit", "-1"})
	require.Error(t, err)
}

func TestUsersCommands(t *testing.T) {
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dir := fakeUsers{
		"admin":  {Username: "admin", Memberships: []string{"free:reader", "superuser"}, CreatedAt: when, UpdatedAt: when},
		"editor": {Username: "editor", CreatedAt: when, UpdatedAt: when},
	}

	t.Run("list", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, listUsers(context.Background(), dir, &out))
		assert.Regexp(t, `admin\s+free:reader,superuser\s+2026-01-02T03:04:05Z`, out.String())
		assert.Contains(t, out.String(), "Total users: 2")
	})

	t.Run("list empty", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, listUsers(context.Background(), fakeUsers{}, &out))
		assert.Equal(t, "(no users provisioned)\n", out.String())
	})

	t.Run("show", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showUser(context.Background(), dir, &out, "admin"))
		assert.Contains(t, out.String(), "Username: admin")
		assert.Contains(t, out.String(), "  superuser\n")
	})

	t.Run("show without memberships", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showUser(context.Background(), dir, &out, "editor"))
		assert.Contains(t, out.String(), "  (none)")
	})

	t.Run("show unknown", func(t *testing.T) {
		err := showUser(context.Background(), dir, &bytes.Buffer{}, "ghost")
		require.ErrorContains(t, err, `user "ghost" not found`)
	})
}

func TestPrintUsageListsCommands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printUsage(&out))
	for name := range commands() {
		assert.Contains(t, out.String(), name)
	}
}

func TestListSessionsAgainstRedis(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	store := redisadapter.NewSessionStoreWithPrefix(client, "admin-test:session:")
	ctx := context.Background()
	sess := testutil.NewSession("live-1").WithTokens("at", "rt").WithUser("admin").Build()
	sess.ExpiresAt = time.Now().Add(time.Hour)
	require.NoError(t, store.Save(ctx, sess))

	var out bytes.Buffer
	require.NoError(t, listSessions(ctx, store, &out, listSessionsOptions{}))
	assert.Regexp(t, `live-1\s+admin\s+true`, out.String())
}
