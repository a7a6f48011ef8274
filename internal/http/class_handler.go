package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/orientation-hub/internal/application"
)

type classCatalog interface {
	Save(ctx context.Context, class application.Class) error
	List(ctx context.Context) ([]application.Class, error)
}

// ClassHandler serves the class catalog.
type ClassHandler struct {
	catalog   classCatalog
	responder responder
	logger    *slog.Logger
}

func NewClassHandler(catalog classCatalog, logger *slog.Logger) *ClassHandler {
	base := defaultLogger(logger)
	return &ClassHandler{catalog: catalog, responder: newResponder(base), logger: base}
}

func (h *ClassHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ClassHandler", operation, attrs...)
}

// Add handles /AddClass. Workshop parameters are optional; a WorkshopDay
// attaches a workshop running over the class dates.
func (h *ClassHandler) Add(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.catalog == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	logger := h.log(r.Context(), "Add", "title", q.Get("ClassTitle"))

	days, err := application.ParseDays(q.Get("Days"))
	if err != nil {
		logger.InfoContext(r.Context(), "invalid class days", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	class := application.Class{
		Title:      q.Get("ClassTitle"),
		Professors: q.Get("Professors"),
		StartTime:  q.Get("StartTime"),
		EndTime:    q.Get("EndTime"),
		StartDate:  q.Get("StartDate"),
		EndDate:    q.Get("EndDate"),
		Days:       days,
	}
	if dayName := q.Get("WorkshopDay"); dayName != "" {
		workshopDays, err := application.ParseDays(dayName)
		if err != nil || len(workshopDays) != 1 {
			logger.InfoContext(r.Context(), "invalid workshop day", "workshop_day", dayName)
			h.responder.writeText(r.Context(), w, http.StatusBadRequest, "WorkshopDay must name a single day")
			return
		}
		class.AddWorkshop(q.Get("WorkshopStartTime"), q.Get("WorkshopEndTime"), workshopDays[0])
	}

	if err := h.catalog.Save(r.Context(), class); err != nil {
		logger.ErrorContext(r.Context(), "failed to save class", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "class added")
	h.responder.writeOK(r.Context(), w, msgResponse)
}

// List handles /ReturnClassCatalog, one line per class.
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.catalog == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	classes, err := h.catalog.List(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list classes", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	lines := make([]string, 0, len(classes))
	for _, c := range classes {
		line := c.String()
		if c.Workshop != nil {
			line += "; " + c.Workshop.String()
		}
		lines = append(lines, line)
	}
	h.responder.writeOK(r.Context(), w, strings.Join(lines, "\n"))
}
