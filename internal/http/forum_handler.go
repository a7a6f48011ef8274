package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/orientation-hub/internal/application"
)

type forumService interface {
	Post(ctx context.Context, message, displayName string) (application.ForumMessage, error)
	Messages(ctx context.Context) ([]application.ForumMessage, error)
}

type profileLookup interface {
	Profile(username string) (application.User, error)
}

// ForumHandler serves the orientation message board.
type ForumHandler struct {
	forum     forumService
	users     profileLookup
	responder responder
	logger    *slog.Logger
}

func NewForumHandler(forum forumService, users profileLookup, logger *slog.Logger) *ForumHandler {
	base := defaultLogger(logger)
	return &ForumHandler{forum: forum, users: users, responder: newResponder(base), logger: base}
}

func (h *ForumHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ForumHandler", operation, attrs...)
}

// Post handles /PostMessage. Without a DisplayName parameter the caller's
// display name is used.
func (h *ForumHandler) Post(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.forum == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	displayName := q.Get("DisplayName")
	if strings.TrimSpace(displayName) == "" {
		username, ok := PrincipalFromContext(r.Context())
		if !ok || h.users == nil {
			h.log(r.Context(), "Post", "error_kind", "unauthorized").InfoContext(r.Context(), "post without author", "error", errMissingPrincipal)
			h.responder.writeText(r.Context(), w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		user, err := h.users.Profile(username)
		if err != nil {
			h.log(r.Context(), "Post", "username", username).InfoContext(r.Context(), "author unavailable", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		displayName = user.DisplayName
	}
	logger := h.log(r.Context(), "Post", "display_name", displayName)

	posted, err := h.forum.Post(r.Context(), q.Get("Message"), displayName)
	if err != nil {
		logger.ErrorContext(r.Context(), "post failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "message posted", "message_id", posted.ID)
	h.responder.writeOK(r.Context(), w, msgResponse)
}

// List handles /ReturnMessages, one tab separated line per message.
func (h *ForumHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.forum == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	messages, err := h.forum.Messages(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list messages", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.Time+"\t"+m.DisplayName+"\t"+m.Message)
	}
	h.responder.writeOK(r.Context(), w, strings.Join(lines, "\n"))
}
