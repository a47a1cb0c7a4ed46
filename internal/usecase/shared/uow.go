package shared

import (
	"context"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
	// CommandReads: Direct access to command reads outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Notifications() NotificationRecordRepository
	Checkpoints() SweepCheckpointRepository
	Reads() CommandReads
	DB() db.DBTX
}

type CommandReads interface {
	// NotificationRecordByTaskID returns nil when nothing was ever sent for the task.
	NotificationRecordByTaskID(ctx context.Context, taskID uuid.UUID) (*notification.Record, error)
	// SweepCheckpointBySlot returns nil when the slot has not been swept yet.
	SweepCheckpointBySlot(ctx context.Context, slot string) (*SweepCheckpoint, error)
}

type NotificationRecordRepository interface {
	Get(ctx context.Context, tx db.DBTX, taskID uuid.UUID) (*notification.Record, error)
	// Upsert never moves LastSentAt backwards; applied is false when a newer record won.
	Upsert(ctx context.Context, tx db.DBTX, rec notification.Record) (applied bool, err error)
}

type SweepCheckpointRepository interface {
	Get(ctx context.Context, tx db.DBTX, slot string) (*SweepCheckpoint, error)
	Save(ctx context.Context, tx db.DBTX, cp SweepCheckpoint) error
}
