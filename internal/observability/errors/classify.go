// Package errors maps gateway errors onto low-cardinality metric tags.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strconv"
	"strings"

	apperrors "github.com/target/oidc-gate/internal/errors"
)

// statusCarrier is satisfied by provider failures that carry an HTTP status.
type statusCarrier interface {
	HTTPStatus() int
}

// Classify returns a normalized error class suitable for tagging metrics and logs.
// Known gateway errors map to stable names; anything else falls back to the
// innermost concrete type name.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}

	var sc statusCarrier
	if goerrors.As(err, &sc) && sc.HTTPStatus() > 0 {
		return "provider_" + strconv.Itoa(sc.HTTPStatus())
	}

	var appErr *apperrors.AppError
	if goerrors.As(err, &appErr) {
		return "app_" + string(appErr.Code)
	}

	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}

	return typeName(err)
}

func typeName(err error) string {
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
