package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/orientation-hub/internal/persistence"
)

// TaskRecorder records one user's selection for one task category and emits
// the completion marker consumed by the leaderboard.
type TaskRecorder struct {
	category Category
	username string
	users    *UserDirectory
	store    persistence.Store
	logger   *slog.Logger
}

// NewTaskRecorder binds a recorder to a category and a user.
func NewTaskRecorder(category Category, username string, users *UserDirectory, store persistence.Store, logger *slog.Logger) *TaskRecorder {
	return &TaskRecorder{
		category: category,
		username: username,
		users:    users,
		store:    store,
		logger:   defaultLogger(logger),
	}
}

// Record stores value as the user's selection. The value never reaches the
// completion marker.
func (r *TaskRecorder) Record(ctx context.Context, value string) error {
	_, err := r.users.modify(ctx, r.username, func(u *User) (persistence.Fields, error) {
		if u.Selections == nil {
			u.Selections = make(map[Category]string)
		}
		u.Selections[r.category] = value
		return persistence.Fields{r.category.selectionField(): value}, nil
	})
	if err != nil {
		r.log(ctx, "Record").ErrorContext(ctx, "failed to record selection", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// Complete appends a {Username, DisplayName} marker to the category's
// collection. Markers are not deduplicated.
func (r *TaskRecorder) Complete(ctx context.Context) error {
	logger := r.log(ctx, "Complete")

	user, ok := r.users.Lookup(r.username)
	if !ok {
		err := fmt.Errorf("user %q: %w", r.username, ErrNotFound)
		logger.ErrorContext(ctx, "cannot complete task", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	_, err := r.store.Insert(ctx, r.category.Collection(), persistence.Fields{
		persistence.FieldUsername:    user.Username,
		persistence.FieldDisplayName: user.DisplayName,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to insert completion marker", "error", err, "error_kind", ErrorKind(err))
		return fmt.Errorf("complete %s task: %w", r.category, err)
	}
	logger.InfoContext(ctx, "task completed")
	return nil
}

func (r *TaskRecorder) log(ctx context.Context, operation string) *slog.Logger {
	return serviceLogger(ctx, r.logger, "TaskRecorder", operation, "category", string(r.category), "username", r.username)
}

// TaskService creates recorders on demand for request handlers.
type TaskService struct {
	users  *UserDirectory
	store  persistence.Store
	logger *slog.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(users *UserDirectory, store persistence.Store, logger *slog.Logger) *TaskService {
	return &TaskService{users: users, store: store, logger: defaultLogger(logger)}
}

// Select records value for the user and completes the category's task.
func (s *TaskService) Select(ctx context.Context, category Category, username, value string) error {
	recorder := NewTaskRecorder(category, username, s.users, s.store, s.logger)
	if err := recorder.Record(ctx, value); err != nil {
		return err
	}
	return recorder.Complete(ctx)
}
