//go:build unit || e2e

// Package fake holds in-memory stand-ins for the persistence and email ports.
package fake

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/domain/todo"
	"todo-notifier/internal/infra"
	"todo-notifier/internal/infra/db"
	"todo-notifier/internal/infra/readstore"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/usecase/shared"

	"github.com/google/uuid"
)

type TaskStore struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*todo.Task
	ListErr error
	// FindErr is returned by FindByID for any id
	FindErr error
	Pages   int
}

func NewTaskStore(tasks ...*todo.Task) *TaskStore {
	s := &TaskStore{tasks: make(map[uuid.UUID]*todo.Task)}
	for _, t := range tasks {
		s.Put(t)
	}
	return s
}

func (s *TaskStore) Put(t *todo.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
}

func (s *TaskStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

func (s *TaskStore) FindByID(_ context.Context, id uuid.UUID) (*todo.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	t, ok := s.tasks[id]
	if !ok {
		return nil, infra.WrapRepoErr("task not found", nil, infra.KindNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *TaskStore) ListActive(_ context.Context, after string, limit int) (*shared.TaskPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.Pages++

	var afterID uuid.UUID
	if after != "" {
		id, err := readstore.DecodeAfterCursor(after)
		if err != nil {
			return nil, err
		}
		afterID = id
	}

	active := make([]*todo.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.Status == todo.StatusCompleted {
			continue
		}
		if after != "" && bytes.Compare(t.ID[:], afterID[:]) <= 0 {
			continue
		}
		cp := *t
		active = append(active, &cp)
	}
	sort.Slice(active, func(i, j int) bool {
		return bytes.Compare(active[i].ID[:], active[j].ID[:]) < 0
	})

	limit = readstore.ValidatePageSize(limit)
	page := &shared.TaskPage{Tasks: active}
	if len(active) > limit {
		page.Tasks = active[:limit]
		page.NextCursor = readstore.EncodeAfterCursor(page.Tasks[limit-1].ID)
	}
	return page, nil
}

// UnitOfWork keeps records and checkpoints in memory.
type UnitOfWork struct {
	mu          sync.Mutex
	records     map[uuid.UUID]notification.Record
	checkpoints map[string]shared.SweepCheckpoint

	RecordReadErr      error
	RecordWriteErr     error
	CheckpointWriteErr error
	Upserts            int
}

func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{
		records:     make(map[uuid.UUID]notification.Record),
		checkpoints: make(map[string]shared.SweepCheckpoint),
	}
}

func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, &tx{uow: u})
}

func (u *UnitOfWork) WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *UnitOfWork) CommandReads() shared.CommandReads {
	return &reads{uow: u}
}

func (u *UnitOfWork) SeedRecord(rec *notification.Record) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.records[rec.TaskID] = *rec
}

func (u *UnitOfWork) Record(taskID uuid.UUID) (notification.Record, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	rec, ok := u.records[taskID]
	return rec, ok
}

func (u *UnitOfWork) SeedCheckpoint(cp shared.SweepCheckpoint) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.checkpoints[cp.Slot] = cp
}

func (u *UnitOfWork) Checkpoint(slot string) (shared.SweepCheckpoint, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	cp, ok := u.checkpoints[slot]
	return cp, ok
}

type tx struct {
	uow *UnitOfWork
}

func (t *tx) Notifications() shared.NotificationRecordRepository { return (*recordRepo)(t.uow) }
func (t *tx) Checkpoints() shared.SweepCheckpointRepository      { return (*checkpointRepo)(t.uow) }
func (t *tx) Reads() shared.CommandReads                         { return &reads{uow: t.uow} }
func (t *tx) DB() db.DBTX                                        { return nil }

type recordRepo UnitOfWork

func (r *recordRepo) Get(ctx context.Context, _ db.DBTX, taskID uuid.UUID) (*notification.Record, error) {
	return (&reads{uow: (*UnitOfWork)(r)}).NotificationRecordByTaskID(ctx, taskID)
}

func (r *recordRepo) Upsert(_ context.Context, _ db.DBTX, rec notification.Record) (bool, error) {
	u := (*UnitOfWork)(r)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.RecordWriteErr != nil {
		return false, u.RecordWriteErr
	}
	u.Upserts++
	if cur, ok := u.records[rec.TaskID]; ok && cur.LastSentAt.After(rec.LastSentAt) {
		return false, nil
	}
	u.records[rec.TaskID] = rec
	return true, nil
}

type checkpointRepo UnitOfWork

func (r *checkpointRepo) Get(ctx context.Context, _ db.DBTX, slot string) (*shared.SweepCheckpoint, error) {
	return (&reads{uow: (*UnitOfWork)(r)}).SweepCheckpointBySlot(ctx, slot)
}

func (r *checkpointRepo) Save(_ context.Context, _ db.DBTX, cp shared.SweepCheckpoint) error {
	u := (*UnitOfWork)(r)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.CheckpointWriteErr != nil {
		return u.CheckpointWriteErr
	}
	u.checkpoints[cp.Slot] = cp
	return nil
}

type reads struct {
	uow *UnitOfWork
}

func (r *reads) NotificationRecordByTaskID(_ context.Context, taskID uuid.UUID) (*notification.Record, error) {
	r.uow.mu.Lock()
	defer r.uow.mu.Unlock()
	if r.uow.RecordReadErr != nil {
		return nil, r.uow.RecordReadErr
	}
	rec, ok := r.uow.records[taskID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *reads) SweepCheckpointBySlot(_ context.Context, slot string) (*shared.SweepCheckpoint, error) {
	r.uow.mu.Lock()
	defer r.uow.mu.Unlock()
	cp, ok := r.uow.checkpoints[slot]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

// StoreDown is a DB_FAILURE as the Postgres adapters report it.
func StoreDown(msg string) error {
	return infra.WrapRepoErr(msg, errs.New("connection refused"))
}
