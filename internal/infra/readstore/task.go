package readstore

import (
	"context"

	"todo-notifier/internal/domain/todo"
	"todo-notifier/internal/infra"
	"todo-notifier/internal/infra/db"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/pkg/pgconv"
	"todo-notifier/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

const taskColumns = `id, title, description, status, due_at, assignee_id, assignee_name, assignee_email, created_at, updated_at`

const findTaskByIDSQL = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

const listActiveTasksSQL = `SELECT ` + taskColumns + `
FROM tasks
WHERE status <> 'Completed'
  AND ($1::uuid IS NULL OR id > $1::uuid)
ORDER BY id
LIMIT $2`

type TaskReadStore struct {
	db db.DBTX
}

func NewTaskReadStore(db db.DBTX) *TaskReadStore {
	return &TaskReadStore{db: db}
}

func (s *TaskReadStore) FindByID(ctx context.Context, id uuid.UUID) (*todo.Task, error) {
	task, err := scanTask(s.db.QueryRow(ctx, findTaskByIDSQL, id))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("task not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get task", err)
	}
	return task, nil
}

func (s *TaskReadStore) ListActive(ctx context.Context, after string, limit int) (*shared.TaskPage, error) {
	limit = ValidatePageSize(limit)

	afterID := pgtype.UUID{Valid: false}
	if after != "" {
		id, err := DecodeAfterCursor(after)
		if err != nil {
			return nil, errs.Wrap(err, "failed to list active tasks")
		}
		afterID = pgconv.UUIDToPgtype(id)
	}

	// one extra row tells whether another page exists
	rows, err := s.db.Query(ctx, listActiveTasksSQL, afterID, limit+1)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list active tasks", err)
	}
	defer rows.Close()

	tasks := make([]*todo.Task, 0, limit+1)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan task", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate tasks", err)
	}

	page := &shared.TaskPage{Tasks: tasks}
	if len(tasks) > limit {
		page.Tasks = tasks[:limit]
		page.NextCursor = EncodeAfterCursor(page.Tasks[limit-1].ID)
	}
	return page, nil
}

func ValidatePageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func scanTask(row pgx.Row) (*todo.Task, error) {
	var (
		id                                      uuid.UUID
		title, status                           string
		description, dueAt                      pgtype.Text
		assigneeID, assigneeName, assigneeEmail pgtype.Text
		createdAt, updatedAt                    pgtype.Timestamptz
	)
	err := row.Scan(&id, &title, &description, &status, &dueAt,
		&assigneeID, &assigneeName, &assigneeEmail, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	// unknown labels pass through; the decision engine rejects them per task
	st, err := todo.ParseStatus(status)
	if err != nil {
		st = todo.Status(status)
	}

	return &todo.Task{
		ID:          id,
		Title:       title,
		Description: pgconv.TextOrEmpty(description),
		Status:      st,
		DueAt:       pgconv.TextOrEmpty(dueAt),
		Assignee: todo.Assignee{
			ID:    pgconv.TextOrEmpty(assigneeID),
			Name:  pgconv.TextOrEmpty(assigneeName),
			Email: pgconv.TextOrEmpty(assigneeEmail),
		},
		CreatedAt: pgconv.TimeFromPgtype(createdAt),
		UpdatedAt: pgconv.TimeFromPgtype(updatedAt),
	}, nil
}
