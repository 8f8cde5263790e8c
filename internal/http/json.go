package httpx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/target/oidc-gate/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorItem is one entry of the error envelope.
type ErrorItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope is the body of every error answered by the gates:
// {"errors":[{"code":"401","message":"..."}],"metaData":{}}.
type ErrorEnvelope struct {
	Payload  any               `json:"payload,omitempty"`
	Errors   []ErrorItem       `json:"errors"`
	MetaData map[string]string `json:"metaData"`
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	Message string
}

// WriteError writes the JSON error envelope.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, ErrorEnvelope{
		Errors:   []ErrorItem{{Code: strconv.Itoa(p.Code), Message: p.Message}},
		MetaData: map[string]string{},
	})
}

// WriteAppError logs err with its operator hint and renders it with the mapped status.
// Causes and hints never reach the client.
func WriteAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	attrs := []any{
		"path", r.URL.Path,
		"status", status,
		"code", string(apperrors.GetCode(err)),
		"error", err,
	}
	if hint := apperrors.GetHint(err); hint != "" {
		attrs = append(attrs, "hint", hint)
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		logger.InfoContext(r.Context(), "request rejected", attrs...)
	}

	WriteError(w, ErrorParams{
		Code:    status,
		Message: apperrors.PublicMessage(err, http.StatusText(status)),
	})
}
