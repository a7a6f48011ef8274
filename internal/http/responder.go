package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/orientation-hub/internal/application"
	"github.com/example/orientation-hub/internal/persistence"
)

const (
	msgUserNotFound  = "User not found"
	msgUnauthorized  = "Not logged in"
	msgInternalError = "Internal Server Error"
	msgResponse      = "Response"
	msgPong          = "Response!"
	msgLoggedOut     = "The user has been logged out"
)

var errMissingPrincipal = errors.New("no session token or username supplied")

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeText(ctx context.Context, w http.ResponseWriter, status int, body string) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to write response", "error", err)
	}
}

func (r responder) writeOK(ctx context.Context, w http.ResponseWriter, body string) {
	r.writeText(ctx, w, http.StatusOK, body)
}

// writeBool renders booleans as "True" or "False".
func (r responder) writeBool(ctx context.Context, w http.ResponseWriter, value bool) {
	r.writeOK(ctx, w, formatBool(value))
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}
	if message == "" {
		message = http.StatusText(status)
	}
	r.writeText(ctx, w, status, message)
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, msgInternalError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeText(ctx, w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, application.ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		r.writeText(ctx, w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, application.ErrConflict):
		r.writeText(ctx, w, http.StatusConflict, http.StatusText(http.StatusConflict))
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeText(ctx, w, http.StatusBadRequest, vErr.Error())
			return
		}
		r.writeText(ctx, w, http.StatusInternalServerError, msgInternalError)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func formatBool(value bool) string {
	if value {
		return "True"
	}
	return "False"
}
