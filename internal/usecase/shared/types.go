package shared

import (
	"context"
	"time"

	"todo-notifier/internal/domain/todo"

	"github.com/google/uuid"
)

// TaskReadStore is read access to the web app's task collection.
type TaskReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*todo.Task, error)
	// ListActive pages through every task whose status is not Completed,
	// ordered by id. An empty after starts from the beginning.
	ListActive(ctx context.Context, after string, limit int) (*TaskPage, error)
}

type TaskPage struct {
	Tasks []*todo.Task
	// NextCursor is empty on the last page.
	NextCursor string
}

// SweepCheckpoint lets an interrupted sweep resume from its last finished page.
type SweepCheckpoint struct {
	Slot      string
	Cursor    string
	Completed bool
	Processed int
	UpdatedAt time.Time
}

// HeaderNotificationKey carries Intent.Key so duplicates can be spotted in mailboxes.
const HeaderNotificationKey = "X-Todo-Notification-Key"

type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	Headers map[string]string
}

// EmailSender must honour ctx cancellation; a nil error means delivery was confirmed.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
