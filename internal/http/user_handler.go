package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/orientation-hub/internal/application"
)

type userDirectory interface {
	AllUsernames(ctx context.Context) (string, error)
	CheckUsernameExists(ctx context.Context, username string) (bool, error)
	Profile(username string) (application.User, error)
	UpdateProfile(ctx context.Context, username string, field application.ProfileField, value string) (application.User, error)
	AddToPhotoGallery(ctx context.Context, username, image string) (application.User, error)
}

// Acknowledgement builds the response body for a successful profile update.
type Acknowledgement func(user application.User, value string) string

// AckText always answers with text.
func AckText(text string) Acknowledgement {
	return func(application.User, string) string { return text }
}

// AckValue echoes the submitted value.
func AckValue(_ application.User, value string) string { return value }

// AckUsername echoes the caller's username.
func AckUsername(user application.User, _ string) string { return user.Username }

// ProfileView renders one attribute of a user for a Return* endpoint.
type ProfileView func(application.User) string

// FieldView renders a single-valued profile field.
func FieldView(field application.ProfileField) ProfileView {
	return func(u application.User) string {
		value, _ := field.Value(u)
		return value
	}
}

// SelectionView renders the user's latest selection for a task category.
func SelectionView(category application.Category) ProfileView {
	return func(u application.User) string { return u.Selection(category) }
}

// UsernameView renders the username.
func UsernameView(u application.User) string { return u.Username }

// GalleryView renders the photo gallery comma separated.
func GalleryView(u application.User) string { return strings.Join(u.PhotoGallery, ",") }

// UserHandler serves directory queries and profile reads and writes.
type UserHandler struct {
	directory userDirectory
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(directory userDirectory, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{directory: directory, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// ListUsernames handles /GetAllUserNames.
func (h *UserHandler) ListUsernames(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.directory == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	names, err := h.directory.AllUsernames(r.Context())
	if err != nil {
		h.log(r.Context(), "ListUsernames").ErrorContext(r.Context(), "failed to list usernames", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeOK(r.Context(), w, names)
}

// CheckUsername handles /CheckUsername.
func (h *UserHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.directory == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	username := r.URL.Query().Get(usernameParam)
	exists, err := h.directory.CheckUsernameExists(r.Context(), username)
	if err != nil {
		h.log(r.Context(), "CheckUsername", "username", username).ErrorContext(r.Context(), "username check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeBool(r.Context(), w, exists)
}

// Update returns a handler that writes the query parameter param into field
// of the caller's profile.
func (h *UserHandler) Update(field application.ProfileField, param string, ack Acknowledgement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil || h.directory == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		username, ok := h.principal(w, r, "Update")
		if !ok {
			return
		}

		value := r.URL.Query().Get(param)
		logger := h.log(r.Context(), "Update", "username", username, "field", string(field))

		user, err := h.directory.UpdateProfile(r.Context(), username, field, value)
		if err != nil {
			logger.ErrorContext(r.Context(), "profile update failed", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}

		logger.InfoContext(r.Context(), "profile updated")
		h.responder.writeOK(r.Context(), w, ack(user, value))
	}
}

// AddToPhotoGallery returns a handler that appends the query parameter param
// to the caller's gallery.
func (h *UserHandler) AddToPhotoGallery(param string, ack Acknowledgement) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil || h.directory == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		username, ok := h.principal(w, r, "AddToPhotoGallery")
		if !ok {
			return
		}

		value := r.URL.Query().Get(param)
		logger := h.log(r.Context(), "AddToPhotoGallery", "username", username)

		user, err := h.directory.AddToPhotoGallery(r.Context(), username, value)
		if err != nil {
			logger.ErrorContext(r.Context(), "gallery update failed", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}

		logger.InfoContext(r.Context(), "image added to gallery", "gallery_size", len(user.PhotoGallery))
		h.responder.writeOK(r.Context(), w, ack(user, value))
	}
}

// Show returns a handler rendering view for the user named by the Username
// parameter, or for the caller when the parameter is absent.
func (h *UserHandler) Show(view ProfileView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil || h.directory == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		username := r.URL.Query().Get(usernameParam)
		if username == "" {
			var ok bool
			if username, ok = h.principal(w, r, "Show"); !ok {
				return
			}
		}

		user, err := h.directory.Profile(username)
		if err != nil {
			h.log(r.Context(), "Show", "username", username).InfoContext(r.Context(), "profile unavailable", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeOK(r.Context(), w, view(user))
	}
}

func (h *UserHandler) principal(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	username, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.log(r.Context(), operation, "error_kind", "unauthorized").InfoContext(r.Context(), "request without principal", "error", errMissingPrincipal)
		h.responder.writeText(r.Context(), w, http.StatusUnauthorized, msgUnauthorized)
		return "", false
	}
	return username, true
}
