//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/domain/todo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// InsertTask writes the task as the web app would. Empty assignee fields
// are stored as NULL.
func InsertTask(t *testing.T, db DBLike, task *todo.Task) uuid.UUID {
	t.Helper()

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	_, err := db.Exec(context.Background(), `
		INSERT INTO tasks (id, title, description, status, due_at,
		                   assignee_id, assignee_name, assignee_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10)`,
		task.ID, task.Title, task.Description, string(task.Status), task.DueAt,
		task.Assignee.ID, task.Assignee.Name, task.Assignee.Email,
		task.CreatedAt, task.UpdatedAt)
	require.NoError(t, err)

	return task.ID
}

func UpdateTaskStatus(t *testing.T, db DBLike, id uuid.UUID, status string) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1", id, status)
	require.NoError(t, err)
}

func InsertRecord(t *testing.T, db DBLike, rec *notification.Record) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		INSERT INTO notification_records (task_id, last_kind, last_sent_at)
		VALUES ($1, $2, $3)`,
		rec.TaskID, string(rec.LastKind), rec.LastSentAt)
	require.NoError(t, err)
}

// FetchRecord returns nil when the task has no record.
func FetchRecord(t *testing.T, db DBLike, taskID uuid.UUID) (*notification.Record, int) {
	t.Helper()

	var (
		kind      string
		sentAt    time.Time
		sendCount int
	)
	err := db.QueryRow(context.Background(), `
		SELECT last_kind, last_sent_at, send_count
		FROM notification_records WHERE task_id = $1`, taskID).Scan(&kind, &sentAt, &sendCount)
	if err != nil && strings.Contains(err.Error(), "no rows") {
		return nil, 0
	}
	require.NoError(t, err)

	return &notification.Record{TaskID: taskID, LastKind: notification.Kind(kind), LastSentAt: sentAt}, sendCount
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
