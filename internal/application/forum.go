package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/orientation-hub/internal/persistence"
)

// MessageTimeLayout is the timestamp format stored with forum posts.
const MessageTimeLayout = "Jan 02, 2006 15:04"

// legacyDisplayNameField is the spelling used by documents written before the
// field was renamed.
const legacyDisplayNameField = "Display Name"

// Forum appends and lists messages in Forum.Messages.
type Forum struct {
	store  persistence.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewForum constructs a Forum. A nil clock defaults to time.Now.
func NewForum(store persistence.Store, now func() time.Time, logger *slog.Logger) *Forum {
	if now == nil {
		now = time.Now
	}
	return &Forum{store: store, now: now, logger: defaultLogger(logger)}
}

// Post stores a message stamped with the current time.
func (f *Forum) Post(ctx context.Context, message, displayName string) (ForumMessage, error) {
	logger := serviceLogger(ctx, f.logger, "Forum", "Post", "display_name", displayName)

	vErr := &ValidationError{}
	vErr.requireNonBlank(persistence.FieldMessage, message)
	if err := vErr.errOrNil(); err != nil {
		logger.InfoContext(ctx, "post rejected", "error", err, "error_kind", ErrorKind(err))
		return ForumMessage{}, err
	}

	stamp := f.now().Format(MessageTimeLayout)
	record, err := f.store.Insert(ctx, persistence.MessagesCollection, persistence.Fields{
		persistence.FieldDisplayName: displayName,
		persistence.FieldMessage:     message,
		persistence.FieldTime:        stamp,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to store message", "error", err, "error_kind", ErrorKind(err))
		return ForumMessage{}, fmt.Errorf("post message: %w", err)
	}

	logger.InfoContext(ctx, "message posted", "message_id", record.ID)
	return ForumMessage{ID: record.ID, DisplayName: displayName, Message: message, Time: stamp}, nil
}

// Messages returns every stored message in store order.
func (f *Forum) Messages(ctx context.Context) ([]ForumMessage, error) {
	records, err := f.store.Find(ctx, persistence.MessagesCollection, nil)
	if err != nil {
		serviceLogger(ctx, f.logger, "Forum", "Messages").
			ErrorContext(ctx, "failed to read messages", "error", err, "error_kind", ErrorKind(err))
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]ForumMessage, 0, len(records))
	for _, record := range records {
		name := record.Get(persistence.FieldDisplayName)
		if name == "" {
			name = record.Get(legacyDisplayNameField)
		}
		messages = append(messages, ForumMessage{
			ID:          record.ID,
			DisplayName: name,
			Message:     record.Get(persistence.FieldMessage),
			Time:        record.Get(persistence.FieldTime),
		})
	}
	return messages, nil
}
