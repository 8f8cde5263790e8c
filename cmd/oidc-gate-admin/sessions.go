package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"
	redisadapter "github.com/target/oidc-gate/internal/adapters/redis"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	apperrors "github.com/target/oidc-gate/internal/errors"
)

type sessionScanner interface {
	Each(ctx context.Context, fn func(redisadapter.SessionEntry) bool) error
}

type sessionRevoker interface {
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

type listSessionsOptions struct {
	User  string
	Limit int
}

type revokeSessionOptions struct {
	ID  string
	Yes bool
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}
	return withRedis(cmdCtx, func(ctx context.Context, client redis.UniversalClient) error {
		store := redisadapter.NewSessionStoreWithPrefix(client, cmdCtx.Config.Session.KeyPrefix)
		return listSessions(ctx, store, cmdCtx.Out, opts)
	})
}

func runRevokeSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseRevokeSessionFlags(args)
	if err != nil {
		return err
	}
	return withRedis(cmdCtx, func(ctx context.Context, client redis.UniversalClient) error {
		store := redisadapter.NewSessionStoreWithPrefix(client, cmdCtx.Config.Session.KeyPrefix)
		return revokeSession(ctx, store, cmdCtx.In, cmdCtx.Out, opts)
	})
}

func listSessions(ctx context.Context, store sessionScanner, out io.Writer, opts listSessionsOptions) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if err := writef(tw, "SESSION\tUSER\tAUTHENTICATED\tTTL\n"); err != nil {
		return fmt.Errorf("print sessions header: %w", err)
	}

	var (
		shown    int
		printErr error
	)
	scanErr := store.Each(ctx, func(e redisadapter.SessionEntry) bool {
		user := e.Session.User()
		if opts.User != "" && user.Username != opts.User {
			return true
		}
		authenticated := e.Session.AccessToken != ""
		if printErr = writef(tw, "%s\t%s\t%t\t%s\n", e.Session.ID, user.Username, authenticated, renderTTL(e.TTL)); printErr != nil {
			return false
		}
		shown++
		return opts.Limit <= 0 || shown < opts.Limit
	})
	if scanErr != nil {
		return fmt.Errorf("scan sessions: %w", scanErr)
	}
	if printErr != nil {
		return fmt.Errorf("print session: %w", printErr)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush sessions: %w", err)
	}
	return writef(out, "\nTotal sessions: %d\n", shown)
}

func revokeSession(ctx context.Context, store sessionRevoker, in io.Reader, out io.Writer, opts revokeSessionOptions) error {
	sess, err := store.Get(ctx, opts.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return fmt.Errorf("session %q not found", opts.ID)
		}
		return fmt.Errorf("load session: %w", err)
	}

	prompt := fmt.Sprintf("About to revoke session %s of user %s.", sess.ID, sess.User().Username)
	if err := confirm(in, out, prompt, opts.Yes); err != nil {
		return err
	}
	if err := store.Delete(ctx, opts.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return writef(out, "Revoked session %s\n", opts.ID)
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listSessionsOptions
	fs.StringVar(&opts.User, "user", "", "Only show sessions of this username")
	fs.IntVar(&opts.Limit, "limit", 0, "Maximum sessions to show (0 = all)")

	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}
	if opts.Limit < 0 {
		return listSessionsOptions{}, errors.New("--limit must be >= 0")
	}
	opts.User = strings.TrimSpace(opts.User)
	return opts, nil
}

func parseRevokeSessionFlags(args []string) (revokeSessionOptions, error) {
	fs := flag.NewFlagSet("revoke-session", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts revokeSessionOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return revokeSessionOptions{}, err
	}
	if fs.NArg() != 1 {
		return revokeSessionOptions{}, errors.New("usage: revoke-session [--yes] <session-id>")
	}
	opts.ID = strings.TrimSpace(fs.Arg(0))
	if opts.ID == "" {
		return revokeSessionOptions{}, errors.New("session id is required")
	}
	return opts, nil
}
