package httpx

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// Identity headers the gateway sets for the upstream application.
// Inbound copies are always stripped so clients cannot spoof them.
const (
	HeaderAuthUser  = "X-Auth-User"
	HeaderAuthGuest = "X-Auth-Guest"
	HeaderAuthRoles = "X-Auth-Roles"
)

// UpstreamOptions configures the reverse proxy to the protected application.
type UpstreamOptions struct {
	Target *url.URL
	Logger *slog.Logger
}

// NewUpstreamProxy returns the handler behind the gates. Without a target every
// request is answered with a 404 envelope.
func NewUpstreamProxy(opts UpstreamOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Target == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, Message: "Not Found"})
		})
	}

	target := opts.Target
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			setIdentityHeaders(pr.Out, pr.In)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "upstream request failed",
				"path", r.URL.Path,
				"error", err,
			)
			WriteError(w, ErrorParams{Code: http.StatusBadGateway, Message: "Upstream unavailable"})
		},
	}
	return rp
}

// setIdentityHeaders replaces identity headers on out with the gate's decision for in.
func setIdentityHeaders(out, in *http.Request) {
	for _, h := range []string{HeaderAuthUser, HeaderAuthGuest, HeaderAuthRoles} {
		out.Header.Del(h)
	}

	id := CurrentIdentity(in.Context())
	out.Header.Set(HeaderAuthUser, id.Username)
	if id.IsGuest() {
		out.Header.Set(HeaderAuthGuest, "true")
		return
	}

	perms := append([]string(nil), id.Roles...)
	for _, g := range id.Grants {
		perms = append(perms, g.Permissions...)
	}
	if len(perms) > 0 {
		out.Header.Set(HeaderAuthRoles, strings.Join(dedupe(perms), ","))
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
