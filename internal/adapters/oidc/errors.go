package oidc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/target/oidc-gate/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.ProviderFailure = (*ProviderError)(nil)

// ProviderError carries a non-2xx answer from the realm token endpoint.
type ProviderError struct {
	Op         string
	StatusCode int
	Body       string
	Code       string // OAuth2 error code, e.g. invalid_grant
	cause      error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: provider returned %d (%s)", e.Op, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s: provider returned %d", e.Op, e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return e.cause }

// HTTPStatus returns the provider's status code.
func (e *ProviderError) HTTPStatus() int { return e.StatusCode }

// ResponseBody returns the provider's raw response body.
func (e *ProviderError) ResponseBody() string { return e.Body }

// mapTokenError turns an oauth2 retrieve failure into a ProviderError.
// Transport failures are wrapped unchanged.
func mapTokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return fmt.Errorf("%s: %w", op, err)
	}
	status := http.StatusInternalServerError
	if re.Response != nil {
		status = re.Response.StatusCode
	}
	return &ProviderError{
		Op:         op,
		StatusCode: status,
		Body:       string(re.Body),
		Code:       re.ErrorCode,
		cause:      err,
	}
}

// missingAccessToken reports a 2xx token response without an access token.
// Callers treat it as an empty result rather than a transport failure.
func missingAccessToken(err error) bool {
	if err == nil {
		return false
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return false
	}
	return strings.Contains(err.Error(), "missing access_token")
}
