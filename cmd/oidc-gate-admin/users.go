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
	"time"

	"github.com/redis/go-redis/v9"
	redisadapter "github.com/target/oidc-gate/internal/adapters/redis"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	apperrors "github.com/target/oidc-gate/internal/errors"
)

type userReader interface {
	GetUser(ctx context.Context, username string) (domainauth.UserRecord, error)
	ListUsers(ctx context.Context) ([]domainauth.UserRecord, error)
}

func runListUsers(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withRedis(cmdCtx, func(ctx context.Context, client redis.UniversalClient) error {
		dir := redisadapter.NewUserDirectory(client, cmdCtx.Config.Session.UserPrefix)
		return listUsers(ctx, dir, cmdCtx.Out)
	})
}

func runShowUser(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("show-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return errors.New("usage: show-user <username>")
	}
	username := strings.TrimSpace(fs.Arg(0))
	return withRedis(cmdCtx, func(ctx context.Context, client redis.UniversalClient) error {
		dir := redisadapter.NewUserDirectory(client, cmdCtx.Config.Session.UserPrefix)
		return showUser(ctx, dir, cmdCtx.Out, username)
	})
}

func listUsers(ctx context.Context, dir userReader, out io.Writer) error {
	users, err := dir.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return writeln(out, "(no users provisioned)")
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if err := writef(tw, "USERNAME\tMEMBERSHIPS\tUPDATED\n"); err != nil {
		return fmt.Errorf("print users header: %w", err)
	}
	for _, u := range users {
		if err := writef(tw, "%s\t%s\t%s\n", u.Username, strings.Join(u.Memberships, ","), u.UpdatedAt.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("print user: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush users: %w", err)
	}
	return writef(out, "\nTotal users: %d\n", len(users))
}

func showUser(ctx context.Context, dir userReader, out io.Writer, username string) error {
	u, err := dir.GetUser(ctx, username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("get user: %w", err)
	}

	if err := writef(out, "Username: %s\n", u.Username); err != nil {
		return err
	}
	if err := writef(out, "Created:  %s\n", u.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := writef(out, "Updated:  %s\n", u.UpdatedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := writeln(out, "Memberships:"); err != nil {
		return err
	}
	if len(u.Memberships) == 0 {
		return writeln(out, "  (none)")
	}
	for _, m := range u.Memberships {
		if err := writef(out, "  %s\n", m); err != nil {
			return err
		}
	}
	return nil
}
