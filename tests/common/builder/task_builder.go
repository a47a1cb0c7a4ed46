//go:build unit || e2e

package builder

import (
	"time"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/domain/todo"

	"github.com/google/uuid"
)

type TaskBuilder struct {
	ID            uuid.UUID
	Title         string
	Description   string
	Status        todo.Status
	DueAt         string
	AssigneeID    string
	AssigneeName  string
	AssigneeEmail string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewTaskBuilder() *TaskBuilder {
	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	return &TaskBuilder{
		ID:            uuid.New(),
		Title:         "Take out the recycling",
		Description:   "Glass and cardboard",
		Status:        todo.StatusNotStarted,
		DueAt:         "2025-01-10T18:00:00+02:00",
		AssigneeID:    "mikko",
		AssigneeName:  "Mikko",
		AssigneeEmail: "mikko@example.com",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func (b *TaskBuilder) With(mutate func(*TaskBuilder)) *TaskBuilder {
	mutate(b)
	return b
}

func (b *TaskBuilder) WithStatus(s todo.Status) *TaskBuilder {
	b.Status = s
	return b
}

func (b *TaskBuilder) WithDueAt(t time.Time) *TaskBuilder {
	b.DueAt = t.Format(time.RFC3339)
	return b
}

func (b *TaskBuilder) WithRawDueAt(raw string) *TaskBuilder {
	b.DueAt = raw
	return b
}

func (b *TaskBuilder) WithoutAssignee() *TaskBuilder {
	b.AssigneeID = ""
	b.AssigneeName = ""
	b.AssigneeEmail = ""
	return b
}

func (b *TaskBuilder) WithUpdatedAt(t time.Time) *TaskBuilder {
	b.UpdatedAt = t
	return b
}

func (b *TaskBuilder) Build() *todo.Task {
	return &todo.Task{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Status:      b.Status,
		DueAt:       b.DueAt,
		Assignee: todo.Assignee{
			ID:    b.AssigneeID,
			Name:  b.AssigneeName,
			Email: b.AssigneeEmail,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func NewRecord(taskID uuid.UUID, kind notification.Kind, sentAt time.Time) *notification.Record {
	return &notification.Record{
		TaskID:     taskID,
		LastKind:   kind,
		LastSentAt: sentAt,
	}
}
