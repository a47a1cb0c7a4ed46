package repository

import (
	"context"

	"todo-notifier/internal/infra"
	"todo-notifier/internal/infra/db"
	"todo-notifier/internal/pkg/pgconv"
	"todo-notifier/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgtype"
)

const getSweepCheckpointSQL = `SELECT slot, cursor, completed, processed, updated_at
FROM sweep_checkpoints
WHERE slot = $1`

const saveSweepCheckpointSQL = `INSERT INTO sweep_checkpoints (slot, cursor, completed, processed, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (slot) DO UPDATE
SET cursor     = EXCLUDED.cursor,
    completed  = EXCLUDED.completed,
    processed  = EXCLUDED.processed,
    updated_at = EXCLUDED.updated_at`

type SweepCheckpointRepository struct{}

func NewSweepCheckpointRepository() *SweepCheckpointRepository {
	return &SweepCheckpointRepository{}
}

func (r *SweepCheckpointRepository) Get(ctx context.Context, tx db.DBTX, slot string) (*shared.SweepCheckpoint, error) {
	var (
		cp        shared.SweepCheckpoint
		processed int32
		updatedAt pgtype.Timestamptz
	)
	err := tx.QueryRow(ctx, getSweepCheckpointSQL, slot).
		Scan(&cp.Slot, &cp.Cursor, &cp.Completed, &processed, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to get sweep checkpoint", err)
	}

	cp.Processed = int(processed)
	cp.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	return &cp, nil
}

func (r *SweepCheckpointRepository) Save(ctx context.Context, tx db.DBTX, cp shared.SweepCheckpoint) error {
	// #nosec G115 -- processed is bounded by the number of tasks
	processed := int32(cp.Processed)
	_, err := tx.Exec(ctx, saveSweepCheckpointSQL,
		cp.Slot, cp.Cursor, cp.Completed, processed, pgconv.TimeToPgtype(cp.UpdatedAt))
	if err != nil {
		return infra.WrapRepoErr("failed to save sweep checkpoint", err)
	}
	return nil
}
