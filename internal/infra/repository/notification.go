package repository

import (
	"context"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/infra"
	"todo-notifier/internal/infra/db"
	"todo-notifier/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getNotificationRecordSQL = `SELECT task_id, last_kind, last_sent_at
FROM notification_records
WHERE task_id = $1`

// A stale writer never moves last_sent_at backwards.
const upsertNotificationRecordSQL = `INSERT INTO notification_records (task_id, last_kind, last_sent_at)
VALUES ($1, $2, $3)
ON CONFLICT (task_id) DO UPDATE
SET last_kind    = EXCLUDED.last_kind,
    last_sent_at = EXCLUDED.last_sent_at,
    send_count   = notification_records.send_count + 1,
    updated_at   = now()
WHERE notification_records.last_sent_at <= EXCLUDED.last_sent_at`

type NotificationRepository struct{}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Get(ctx context.Context, tx db.DBTX, taskID uuid.UUID) (*notification.Record, error) {
	var (
		id       uuid.UUID
		lastKind string
		sentAt   pgtype.Timestamptz
	)
	err := tx.QueryRow(ctx, getNotificationRecordSQL, taskID).Scan(&id, &lastKind, &sentAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to get notification record", err)
	}

	kind, err := notification.ParseKind(lastKind)
	if err != nil {
		return nil, infra.WrapRepoErr("stored notification kind is invalid", err, infra.KindInvalidData)
	}

	return &notification.Record{
		TaskID:     id,
		LastKind:   kind,
		LastSentAt: pgconv.TimeFromPgtype(sentAt),
	}, nil
}

func (r *NotificationRepository) Upsert(ctx context.Context, tx db.DBTX, rec notification.Record) (bool, error) {
	if !rec.LastKind.IsValid() {
		return false, infra.WrapRepoErr("refusing to store notification record without a kind", nil, infra.KindInvalidData)
	}

	tag, err := tx.Exec(ctx, upsertNotificationRecordSQL,
		rec.TaskID, string(rec.LastKind), pgconv.TimeToPgtype(rec.LastSentAt))
	if err != nil {
		return false, infra.WrapRepoErr("failed to upsert notification record", err)
	}

	return tag.RowsAffected() > 0, nil
}
