package httpx

import (
	"net/http"

	"github.com/google/uuid"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	apperrors "github.com/target/oidc-gate/internal/errors"
	"github.com/target/oidc-gate/internal/observability/metrics"
)

// Operator hints attached to login failures. They are logged, never rendered.
const (
	hintUnsupportedResponseType = "the provider client must have the standard (authorization code) flow enabled"
	hintConfidentialClient      = "the provider client must be confidential: set its access type to confidential and configure the client secret"
	hintClientCredentials       = "the provider rejected the client credentials: check the client id and secret"
)

const (
	msgInvalidToken    = "invalid or expired token"
	msgValidateFailure = "Unable to validate token"
)

// login runs one step of the authorization-code round trip. It either writes a
// response itself or returns the error to render.
func (g *TokenGate) login(w http.ResponseWriter, r *http.Request, sess *SessionHandle, next http.Handler) error {
	ctx := r.Context()
	q := r.URL.Query()

	if provErr := q.Get("error"); provErr != "" {
		if provErr == "unsupported_response_type" {
			g.logger.ErrorContext(ctx, "provider refused the login request", "error", provErr, "hint", hintUnsupportedResponseType)
		}
		msg := q.Get("error_description")
		if msg == "" {
			msg = provErr
		}
		return apperrors.Authorization(msg)
	}

	callback := g.urls.requestURL(r)
	if code := q.Get("code"); code != "" {
		return g.completeLogin(w, r, sess, code, q.Get("state"), callback)
	}

	if raw := q.Get("redirectTo"); raw != "" {
		target, ok := g.urls.normalizeRedirectTo(r, raw)
		if !ok {
			return apperrors.Authorization("Invalid redirect")
		}
		sess.Update(func(s *domainauth.Session) { s.PostLoginRedirect = target })
	}

	if user := sess.Data().User(); !user.IsGuest() {
		g.forward(next, w, r, sess)
		return nil
	}

	state := uuid.NewString()
	sess.Update(func(s *domainauth.Session) { s.PendingState = state })
	g.emit("login", metrics.ResultNoop, nil)
	http.Redirect(w, r, g.tokens.RedirectURL(callback, state), http.StatusFound)
	return nil
}

// completeLogin handles the provider callback carrying an authorization code.
func (g *TokenGate) completeLogin(w http.ResponseWriter, r *http.Request, sess *SessionHandle, code, state, callback string) error {
	ctx := r.Context()

	// State is advisory: a mismatch is logged but does not abort the exchange.
	switch pending := sess.Data().PendingState; {
	case state == "":
		g.logger.WarnContext(ctx, "login callback without state parameter")
	case state != pending:
		g.logger.WarnContext(ctx, "login callback state mismatch")
	}

	res, err := g.tokens.RequestToken(ctx, code, callback)
	if err != nil {
		return g.exchangeFailure(w, r, sess, err)
	}
	if res.AccessToken == "" {
		return apperrors.Authorization(msgInvalidToken)
	}

	v, err := g.tokens.ValidateToken(ctx, res.AccessToken)
	if err != nil {
		return apperrors.Server(msgValidateFailure, "", err)
	}
	if !v.Active() {
		return apperrors.Authorization(msgInvalidToken)
	}

	user, err := g.identities.GetUser(ctx, v.Token.Username)
	if err != nil {
		return apperrors.Server("Unable to find user", "", err)
	}

	roles, err := g.roles.Roles(*v.Token)
	if err != nil {
		g.logger.WarnContext(ctx, "role extraction failed", "user", user.Username, "error", err)
	}
	grant := domainauth.Grant{Name: domainauth.ProviderGrantName, Permissions: roles}
	if err := g.identities.Provision(ctx, user.WithGrant(grant), roles); err != nil {
		g.logger.ErrorContext(ctx, "user provisioning failed", "user", user.Username, "error", err)
	} else if fresh, err := g.identities.GetUser(ctx, user.Username); err == nil {
		user = fresh
	}

	// The session keeps persisted memberships only; grants live for one request.
	stored := user
	stored.Grants = nil

	sess.Rotate()
	sess.Update(func(s *domainauth.Session) {
		s.AccessToken = res.AccessToken
		s.RefreshToken = res.RefreshToken
		s.PendingState = ""
		s.SetUser(stored)
	})

	g.logger.InfoContext(ctx, "user logged in", "user", user.Username, "roles", len(roles))
	g.emit("callback", metrics.ResultSuccess, nil)
	g.redirectAfterLogin(w, r, sess)
	return nil
}

// exchangeFailure classifies a failed code exchange. A reused or expired code
// just resumes the post-login redirect; every other failure is returned.
func (g *TokenGate) exchangeFailure(w http.ResponseWriter, r *http.Request, sess *SessionHandle, err error) error {
	status, body, ok := providerFailure(err)
	if !ok {
		return apperrors.Server(msgValidateFailure, "", err)
	}

	switch {
	case status == http.StatusForbidden:
		return apperrors.Server(msgValidateFailure, hintConfidentialClient, err)
	case isGrantError(err, "unauthorized_client"):
		return apperrors.Server(msgValidateFailure, hintClientCredentials, err)
	case isGrantError(err, "invalid_grant"):
		g.logger.InfoContext(r.Context(), "authorization code already used or expired", "status", status)
		g.emit("callback", metrics.ResultDegraded, err)
		g.redirectAfterLogin(w, r, sess)
		return nil
	default:
		g.logger.ErrorContext(r.Context(), "code exchange failed", "status", status, "body", body)
		return apperrors.Server(msgValidateFailure, "", err)
	}
}

func (g *TokenGate) redirectAfterLogin(w http.ResponseWriter, r *http.Request, sess *SessionHandle) {
	target := sess.Data().PostLoginRedirect
	if target == "" {
		target = g.defaultLanding
	}
	sess.Update(func(s *domainauth.Session) { s.PostLoginRedirect = "" })
	http.Redirect(w, r, g.urls.appPath(target), http.StatusFound)
}
