package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/orientation-hub/internal/application"
)

type taskService interface {
	Select(ctx context.Context, category application.Category, username, value string) error
}

type leaderboardService interface {
	Aggregate(ctx context.Context) error
	Standings(ctx context.Context) ([]application.Standing, error)
}

// TaskHandler records orientation task selections and exposes the
// leaderboard built from them.
type TaskHandler struct {
	tasks       taskService
	leaderboard leaderboardService
	responder   responder
	logger      *slog.Logger
}

func NewTaskHandler(tasks taskService, leaderboard leaderboardService, logger *slog.Logger) *TaskHandler {
	base := defaultLogger(logger)
	return &TaskHandler{tasks: tasks, leaderboard: leaderboard, responder: newResponder(base), logger: base}
}

func (h *TaskHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TaskHandler", operation, attrs...)
}

// Select returns a handler recording the query parameter param as the
// caller's choice for category and completing the category's task.
func (h *TaskHandler) Select(category application.Category, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h == nil || h.tasks == nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		username, ok := PrincipalFromContext(r.Context())
		if !ok {
			h.log(r.Context(), "Select", "category", string(category), "error_kind", "unauthorized").
				InfoContext(r.Context(), "selection without principal", "error", errMissingPrincipal)
			h.responder.writeText(r.Context(), w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		logger := h.log(r.Context(), "Select", "category", string(category), "username", username)

		if err := h.tasks.Select(r.Context(), category, username, r.URL.Query().Get(param)); err != nil {
			logger.ErrorContext(r.Context(), "selection failed", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}

		logger.InfoContext(r.Context(), "selection recorded")
		h.responder.writeOK(r.Context(), w, msgResponse)
	}
}

// UpdateLeaderboard handles /UpdateLeaderboard.
func (h *TaskHandler) UpdateLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.leaderboard == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.leaderboard.Aggregate(r.Context()); err != nil {
		h.log(r.Context(), "UpdateLeaderboard").ErrorContext(r.Context(), "aggregation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeOK(r.Context(), w, msgResponse)
}

// Standings handles /ReturnLBInfo.
func (h *TaskHandler) Standings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.leaderboard == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	standings, err := h.leaderboard.Standings(r.Context())
	if err != nil {
		h.log(r.Context(), "Standings").ErrorContext(r.Context(), "failed to read standings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeOK(r.Context(), w, application.FormatStandings(standings))
}
