package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/target/oidc-gate/internal/errors"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("provider said %d", int(s)) }
func (s statusErr) HTTPStatus() int { return int(s) }

type customErr struct{}

func (*customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "deadline", err: fmt.Errorf("introspect: %w", context.DeadlineExceeded), want: "timeout"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "provider status", err: fmt.Errorf("exchange: %w", statusErr(403)), want: "provider_403"},
		{name: "provider without status", err: statusErr(0), want: "errors_statuserr"},
		{name: "app error", err: apperrors.ExpiredCredentials("Invalid or expired token"), want: "app_expired_credentials"},
		{name: "network", err: &net.OpError{Op: "dial", Err: goerrors.New("refused")}, want: "network"},
		{name: "fallback unwraps to innermost type", err: fmt.Errorf("wrap: %w", &customErr{}), want: "errors_customerr"},
		{name: "plain", err: goerrors.New("x"), want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
