package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/oidc-gate/internal/domain/auth"
	apperrors "github.com/target/oidc-gate/internal/errors"
	"github.com/target/oidc-gate/internal/ports"
)

// DefaultSessionCookie is the cookie carrying the session id.
const DefaultSessionCookie = "OIDCGATE_SESSION"

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store        ports.SessionStore
	CookieName   string
	CookieDomain string
	CookiePath   string        // default "/"
	TTL          time.Duration // idle timeout, default 30m
	Logger       *slog.Logger
}

// SessionManager loads the browser session for each request and persists it
// before the response headers go out.
type SessionManager struct {
	store        ports.SessionStore
	cookieName   string
	cookieDomain string
	cookiePath   string
	ttl          time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	m := &SessionManager{
		store:        opts.Store,
		cookieName:   opts.CookieName,
		cookieDomain: opts.CookieDomain,
		cookiePath:   opts.CookiePath,
		ttl:          opts.TTL,
		logger:       opts.Logger,
		now:          time.Now,
	}
	if m.cookieName == "" {
		m.cookieName = DefaultSessionCookie
	}
	if m.cookiePath == "" {
		m.cookiePath = "/"
	}
	if m.ttl <= 0 {
		m.ttl = 30 * time.Minute
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// CookieName returns the session cookie name.
func (m *SessionManager) CookieName() string { return m.cookieName }

// Middleware attaches a SessionHandle to the request context.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := m.load(r)
		cw := &commitWriter{ResponseWriter: w, commit: func() { m.commit(h, w, r) }}
		next.ServeHTTP(cw, r.WithContext(withSession(r.Context(), h)))
		cw.ensureCommitted()
	})
}

func (m *SessionManager) load(r *http.Request) *SessionHandle {
	h := &SessionHandle{}
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		sess, getErr := m.store.Get(r.Context(), c.Value)
		switch {
		case getErr == nil:
			h.data = sess
			h.persisted = true
			// Slide the idle timeout once half of it is used up.
			if sess.ExpiresAt.Sub(m.now()) < m.ttl/2 {
				h.dirty = true
			}
			return h
		case apperrors.IsNotFound(getErr):
			h.clearCookie = true
		default:
			m.logger.ErrorContext(r.Context(), "session load failed", "error", getErr)
		}
	}
	h.data = domainauth.Session{ID: uuid.NewString()}
	return h
}

func (m *SessionManager) commit(h *SessionHandle, w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := context.WithoutCancel(r.Context())
	for _, id := range h.discard {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.ErrorContext(ctx, "session delete failed", "error", err)
		}
	}
	h.discard = nil

	if !h.dirty {
		if h.clearCookie {
			http.SetCookie(w, m.cookie(r, "", -1))
		}
		return
	}

	h.data.ExpiresAt = m.now().Add(m.ttl)
	if err := m.store.Save(ctx, h.data); err != nil {
		m.logger.ErrorContext(ctx, "session save failed", "error", err)
		return
	}
	h.persisted = true
	h.dirty = false
	http.SetCookie(w, m.cookie(r, h.data.ID, int(m.ttl/time.Second)))
}

func (m *SessionManager) cookie(r *http.Request, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     m.cookiePath,
		Domain:   m.cookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// isSecureRequest reports whether the client reached us over TLS, directly or via a proxy.
func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// SessionHandle is the request-scoped view of a browser session.
// Mutations through Update are persisted once, before the response is committed.
type SessionHandle struct {
	mu          sync.Mutex
	data        domainauth.Session
	dirty       bool
	persisted   bool
	clearCookie bool
	discard     []string
}

// SessionFrom returns the request's session handle, or a detached one when no
// SessionManager runs in front of the handler.
func SessionFrom(r *http.Request) *SessionHandle {
	if h := sessionFromContext(r.Context()); h != nil {
		return h
	}
	return &SessionHandle{data: domainauth.Session{ID: uuid.NewString()}}
}

// Data returns a copy of the session.
func (h *SessionHandle) Data() domainauth.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data
}

// Update applies fn to the session and marks it for persistence.
func (h *SessionHandle) Update(fn func(*domainauth.Session)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.data)
	h.dirty = true
}

// Invalidate drops all session state and schedules the stored copy for deletion.
// The request continues with a fresh, empty session.
func (h *SessionHandle) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.persisted {
		h.discard = append(h.discard, h.data.ID)
	}
	h.data = domainauth.Session{ID: uuid.NewString()}
	h.dirty = false
	h.persisted = false
	h.clearCookie = true
}

// Rotate moves the session to a new id, keeping its contents.
func (h *SessionHandle) Rotate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.persisted {
		h.discard = append(h.discard, h.data.ID)
	}
	h.data.ID = uuid.NewString()
	h.persisted = false
	h.dirty = true
}

// commitWriter runs commit exactly once, right before the first header or body byte.
type commitWriter struct {
	http.ResponseWriter
	commit func()
	once   sync.Once
}

func (w *commitWriter) ensureCommitted() { w.once.Do(w.commit) }

func (w *commitWriter) WriteHeader(status int) {
	w.ensureCommitted()
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.ensureCommitted()
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *commitWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
