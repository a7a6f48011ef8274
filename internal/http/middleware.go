package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/orientation-hub/internal/application"
)

const (
	sessionCookieName  = "session_token"
	sessionTokenHeader = "X-Session-Token"
	usernameParam      = "Username"
)

// SessionValidator resolves a session token to the username it was issued for.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// ResolvePrincipal attaches the caller's username to the request context.
//
// A valid bearer token or session cookie is authoritative. An expired, revoked
// or foreign token is ignored and the request continues as if none had been
// sent, so login, registration and logout stay reachable; handlers that need a
// caller answer 401 themselves. Without a usable token, and only when legacy is
// true, the Username query parameter is trusted as the caller. A validator
// failure other than an unauthorized token is answered with 500.
func ResolvePrincipal(validator SessionValidator, legacy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := extractTokenFromRequest(r); token != "" && validator != nil {
				username, err := validator.Validate(ctx, token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, username)))
					return
				}
				if !errors.Is(err, application.ErrUnauthorized) {
					responder.writeError(ctx, w, http.StatusInternalServerError, msgInternalError, err)
					return
				}
				responder.loggerFor(ctx).InfoContext(ctx, "ignoring invalid session token", "error", err)
			}

			if legacy {
				if username := r.URL.Query().Get(usernameParam); username != "" {
					next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, username)))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AllowAllOrigins sets the permissive CORS headers browsers need to call the
// API from the orientation web client. Preflight requests are answered here
// with 204 and never reach the router, which only serves GET.
func AllowAllOrigins(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Expose-Headers", sessionTokenHeader)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", http.MethodGet)
			h.Set("Access-Control-Allow-Headers", "Authorization")
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
