package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/orientation-hub/internal/application"
)

type accountDirectory interface {
	Register(ctx context.Context, params application.RegisterParams) (bool, error)
	CheckLogin(ctx context.Context, username, password string) (bool, error)
	RemoveUser(username string)
}

type sessionService interface {
	Issue(ctx context.Context, username string) (application.Session, error)
	Revoke(ctx context.Context, token string) error
}

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	directory accountDirectory
	sessions  sessionService
	responder responder
	logger    *slog.Logger

	secureCookie bool
}

// AuthOption customises an AuthHandler.
type AuthOption func(*AuthHandler)

// WithSecureCookie marks the session cookie Secure. Enable it when the API is
// served over HTTPS.
func WithSecureCookie(secure bool) AuthOption {
	return func(h *AuthHandler) {
		h.secureCookie = secure
	}
}

func NewAuthHandler(directory accountDirectory, sessions sessionService, logger *slog.Logger, opts ...AuthOption) *AuthHandler {
	base := defaultLogger(logger)
	h := &AuthHandler{directory: directory, sessions: sessions, responder: newResponder(base), logger: base}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Register handles /CreateNewUser and answers "True" when the account was
// created.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.directory == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	params := application.RegisterParams{
		DisplayName: q.Get("DisplayName"),
		Username:    q.Get(usernameParam),
		Password:    q.Get("Password"),
		ContactInfo: q.Get("ContactInformation"),
	}
	logger := h.log(r.Context(), "Register", "username", params.Username)

	created, err := h.directory.Register(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "registration handled", "created", created)
	h.responder.writeBool(r.Context(), w, created)
}

// Login handles /CreateOldUser. A successful login also issues a session
// token through the X-Session-Token header and the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.directory == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	username := q.Get(usernameParam)
	logger := h.log(r.Context(), "Login", "username", username)

	ok, err := h.directory.CheckLogin(r.Context(), username, q.Get("Password"))
	if err != nil {
		logger.ErrorContext(r.Context(), "login failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !ok {
		logger.InfoContext(r.Context(), "login rejected")
		h.responder.writeBool(r.Context(), w, false)
		return
	}

	if h.sessions != nil {
		session, err := h.sessions.Issue(r.Context(), username)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to issue session", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		setSessionCookie(w, session.Token, session.ExpiresAt, h.secureCookie)
		w.Header().Set(sessionTokenHeader, session.Token)
	}

	logger.InfoContext(r.Context(), "user authenticated")
	h.responder.writeBool(r.Context(), w, true)
}

// Logout handles /Logout. The user stays in the directory. A presented
// session token is revoked and the session cookie is cleared, even when the
// token was already expired or revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.directory == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	username, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Logout", "username", username)

	if token := extractTokenFromRequest(r); token != "" && h.sessions != nil {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			if !errors.Is(err, application.ErrUnauthorized) {
				logger.ErrorContext(r.Context(), "failed to revoke session", "error", err, "error_kind", application.ErrorKind(err))
				h.responder.handleServiceError(r.Context(), w, err)
				return
			}
			logger.InfoContext(r.Context(), "session token already invalid", "error", err)
		}
		clearSessionCookie(w, h.secureCookie)
	}

	h.directory.RemoveUser(username)
	logger.InfoContext(r.Context(), "user logged out")
	h.responder.writeOK(r.Context(), w, msgLoggedOut)
}
