package todo

import (
	"time"

	"github.com/google/uuid"
)

// Task is a read-only snapshot of a todo item owned by the web app's store.
type Task struct {
	ID          uuid.UUID
	Title       string
	Description string
	Status      Status
	// DueAt is kept in its stored RFC 3339 form; empty means no due date.
	DueAt     string
	Assignee  Assignee
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Task) IsTerminal() bool {
	return t.Status == StatusCompleted
}

func (t *Task) HasDueDate() bool {
	return t.DueAt != ""
}

func (t *Task) Due() (time.Time, error) {
	return ParseDueAt(t.DueAt)
}

func (t *Task) DisplayTitle() string {
	if t.Title == "" {
		return "Untitled"
	}
	return t.Title
}
