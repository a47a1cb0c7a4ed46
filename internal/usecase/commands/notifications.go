package commands

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/domain/todo"
	"todo-notifier/internal/pkg/clock"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/pkg/schedule"
	"todo-notifier/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var ErrSweepInProgress = errs.New("sweep already in progress")

type OutcomeStatus string

const (
	OutcomeSent       OutcomeStatus = "sent"
	OutcomeSuppressed OutcomeStatus = "suppressed"
	OutcomeNotDue     OutcomeStatus = "not_due"
	OutcomeSkipped    OutcomeStatus = "skipped"
	OutcomeFailed     OutcomeStatus = "failed"
)

// Failure reasons reported per task.
const (
	ReasonInvalidTaskData  = "invalid_task_data"
	ReasonDispatchFailed   = "dispatch_failed"
	ReasonStoreUnavailable = "store_unavailable"
	ReasonInternal         = "internal_error"
)

type SendOutcome struct {
	TaskID uuid.UUID
	Status OutcomeStatus
	Kind   notification.Kind
	Reason string
	Err    error
}

type TaskFailure struct {
	TaskID uuid.UUID
	Reason string
	Err    error
}

type SweepReport struct {
	Slot        string
	ResumedFrom string
	StartedAt   time.Time
	FinishedAt  time.Time
	Processed   int
	Sent        int
	Suppressed  int
	NotDue      int
	Skipped     int
	Failed      []TaskFailure
}

type NotificationCommands interface {
	// RunSweep evaluates every non-completed task once. Per-task failures are
	// collected in the report; an error is returned only when tasks could
	// not be enumerated.
	RunSweep(ctx context.Context) (*SweepReport, error)
	// HandleTaskChanged evaluates a single task. The returned error, if any,
	// is the same as outcome.Err.
	HandleTaskChanged(ctx context.Context, taskID uuid.UUID) (*SendOutcome, error)
}

// lookupTimeout bounds the store reads of one shared evaluation.
const lookupTimeout = 10 * time.Second

type SweepOptions struct {
	PageSize    int
	Concurrency int
}

type notificationUseCaseImpl struct {
	tasks      shared.TaskReadStore
	uow        shared.UnitOfWork
	dispatcher *Dispatcher
	policy     notification.Policy
	schedule   *schedule.Daily
	clock      clock.Clock
	opts       SweepOptions

	inflight singleflight.Group
	sweeping atomic.Bool
}

func NewNotificationUseCase(
	tasks shared.TaskReadStore,
	uow shared.UnitOfWork,
	dispatcher *Dispatcher,
	policy notification.Policy,
	daily *schedule.Daily,
	clk clock.Clock,
	opts SweepOptions,
) NotificationCommands {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &notificationUseCaseImpl{
		tasks:      tasks,
		uow:        uow,
		dispatcher: dispatcher,
		policy:     policy,
		schedule:   daily,
		clock:      clk,
		opts:       opts,
	}
}

func (uc *notificationUseCaseImpl) HandleTaskChanged(ctx context.Context, taskID uuid.UUID) (*SendOutcome, error) {
	find := func(ctx context.Context) (*todo.Task, error) {
		return uc.tasks.FindByID(ctx, taskID)
	}
	ev := uc.evaluateOnce(ctx, taskID, true, find)
	if !ev.fresh {
		// joined a sweep working from its page snapshot; the change may be newer
		ev = uc.evaluateOnce(ctx, taskID, true, find)
	}
	out := ev.out
	logOutcome("task change handled", out)
	return out, out.Err
}

func (uc *notificationUseCaseImpl) RunSweep(ctx context.Context) (*SweepReport, error) {
	if !uc.sweeping.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer uc.sweeping.Store(false)

	now := uc.clock.Now()
	report := &SweepReport{Slot: uc.schedule.Slot(now), StartedAt: now}

	cursor := uc.resumeCursor(ctx, report)
	slog.Info("sweep started", "slot", report.Slot, "resumed_from", report.ResumedFrom)

	err := uc.sweepPages(ctx, cursor, report)
	report.FinishedAt = uc.clock.Now()

	if err != nil {
		slog.Error("sweep aborted", "slot", report.Slot, "processed", report.Processed, "error", err.Error())
		return report, err
	}

	slog.Info("sweep finished",
		"slot", report.Slot,
		"processed", report.Processed,
		"sent", report.Sent,
		"suppressed", report.Suppressed,
		"not_due", report.NotDue,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds())
	return report, nil
}

// resumeCursor continues an unfinished sweep of the same slot. A finished or
// unreadable checkpoint starts over; suppression makes a repeat pass harmless.
func (uc *notificationUseCaseImpl) resumeCursor(ctx context.Context, report *SweepReport) string {
	cp, err := uc.uow.CommandReads().SweepCheckpointBySlot(ctx, report.Slot)
	if err != nil {
		slog.Warn("sweep checkpoint unreadable, starting from the beginning", "slot", report.Slot, "error", err.Error())
		return ""
	}
	if cp == nil || cp.Completed || cp.Cursor == "" {
		return ""
	}
	report.ResumedFrom = cp.Cursor
	report.Processed = cp.Processed
	return cp.Cursor
}

func (uc *notificationUseCaseImpl) sweepPages(ctx context.Context, cursor string, report *SweepReport) error {
	restarted := false
	for {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(err, "sweep interrupted")
		}

		page, err := uc.tasks.ListActive(ctx, cursor, uc.opts.PageSize)
		if err != nil {
			if errs.Is(err, errs.ErrInvalidCursor) && cursor != "" && !restarted {
				slog.Warn("stored sweep cursor rejected, restarting sweep", "slot", report.Slot, "cursor", cursor)
				cursor, restarted = "", true
				report.ResumedFrom = ""
				report.Processed = 0
				continue
			}
			return errs.Wrap(err, "list active tasks")
		}

		uc.processPage(ctx, page.Tasks, report)

		done := page.NextCursor == ""
		uc.saveCheckpoint(ctx, shared.SweepCheckpoint{
			Slot:      report.Slot,
			Cursor:    page.NextCursor,
			Completed: done,
			Processed: report.Processed,
			UpdatedAt: uc.clock.Now(),
		})
		if done {
			return nil
		}
		cursor = page.NextCursor
	}
}

func (uc *notificationUseCaseImpl) processPage(ctx context.Context, tasks []*todo.Task, report *SweepReport) {
	outcomes := make([]*SendOutcome, len(tasks))

	var g errgroup.Group
	g.SetLimit(uc.opts.Concurrency)
	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = uc.evaluateOnce(ctx, task.ID, false, func(context.Context) (*todo.Task, error) {
				return task, nil
			}).out
			return nil
		})
	}
	_ = g.Wait()

	for _, out := range outcomes {
		report.add(out)
		if out.Status == OutcomeFailed {
			logOutcome("sweep task failed", out)
		}
	}
}

// A lost checkpoint costs a full re-scan on restart, nothing more.
func (uc *notificationUseCaseImpl) saveCheckpoint(ctx context.Context, cp shared.SweepCheckpoint) {
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Checkpoints().Save(ctx, tx.DB(), cp)
	})
	if err != nil {
		slog.Warn("failed to save sweep checkpoint", "slot", cp.Slot, "error", err.Error())
	}
}

type evaluation struct {
	out *SendOutcome
	// fresh is set when the task was read from the store for this evaluation
	fresh bool
}

// evaluateOnce collapses concurrent evaluations of one task into a single
// decide+dispatch; later callers receive the in-flight outcome. The shared
// call runs detached from every caller, so one caller giving up neither
// cancels the send nor fails the others.
func (uc *notificationUseCaseImpl) evaluateOnce(ctx context.Context, taskID uuid.UUID, fresh bool, load func(context.Context) (*todo.Task, error)) evaluation {
	ch := uc.inflight.DoChan(taskID.String(), func() (any, error) {
		ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.evaluationTimeout())
		defer cancel()
		return evaluation{out: uc.evaluate(ectx, taskID, load), fresh: fresh}, nil
	})

	select {
	case res := <-ch:
		return res.Val.(evaluation)
	case <-ctx.Done():
		out := &SendOutcome{TaskID: taskID}
		return evaluation{out: out.fail(errs.Wrap(ctx.Err(), "task evaluation abandoned")), fresh: fresh}
	}
}

func (uc *notificationUseCaseImpl) evaluationTimeout() time.Duration {
	return lookupTimeout + uc.dispatcher.timeout + recordWriteTimeout
}

func (uc *notificationUseCaseImpl) evaluate(ctx context.Context, taskID uuid.UUID, load func(context.Context) (*todo.Task, error)) *SendOutcome {
	out := &SendOutcome{TaskID: taskID}

	task, err := load(ctx)
	if err != nil {
		if errs.Is(err, errs.ErrNotFound) {
			out.Status, out.Reason = OutcomeSkipped, "task_not_found"
			return out
		}
		return out.fail(err)
	}

	if reason := ineligibleReason(task); reason != "" {
		out.Status, out.Reason = OutcomeSkipped, reason
		return out
	}

	rec, err := uc.uow.CommandReads().NotificationRecordByTaskID(ctx, taskID)
	if err != nil {
		return out.fail(err)
	}

	decision, err := notification.Decide(uc.policy, task, rec, uc.clock.Now())
	if err != nil {
		return out.fail(err)
	}
	out.Kind = decision.Candidate

	switch {
	case decision.Suppressed():
		out.Status = OutcomeSuppressed
		return out
	case !decision.ShouldSend():
		out.Status = OutcomeNotDue
		return out
	}

	if _, err := uc.dispatcher.Dispatch(ctx, task, decision.Intent); err != nil {
		return out.fail(err)
	}
	out.Status = OutcomeSent
	return out
}

func ineligibleReason(task *todo.Task) string {
	switch {
	case task.IsTerminal():
		return "completed"
	case !task.Assignee.IsSet():
		return "no_assignee"
	case !task.HasDueDate():
		return "no_due_date"
	default:
		return ""
	}
}

func (o *SendOutcome) fail(err error) *SendOutcome {
	o.Status = OutcomeFailed
	o.Reason = FailureReason(err)
	o.Err = err
	return o
}

// FailureReason maps an error onto the failure taxonomy.
func FailureReason(err error) string {
	switch {
	case errs.Is(err, errs.ErrInvalidTaskData):
		return ReasonInvalidTaskData
	case errs.Is(err, errs.ErrDispatch):
		return ReasonDispatchFailed
	case errs.Is(err, errs.ErrStoreUnavailable):
		return ReasonStoreUnavailable
	default:
		return ReasonInternal
	}
}

func (r *SweepReport) add(o *SendOutcome) {
	r.Processed++
	switch o.Status {
	case OutcomeSent:
		r.Sent++
	case OutcomeSuppressed:
		r.Suppressed++
	case OutcomeNotDue:
		r.NotDue++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed = append(r.Failed, TaskFailure{TaskID: o.TaskID, Reason: o.Reason, Err: o.Err})
	}
}

func logOutcome(msg string, o *SendOutcome) {
	attrs := []any{
		"task_id", o.TaskID.String(),
		"status", string(o.Status),
	}
	if o.Kind != notification.KindNone {
		attrs = append(attrs, "kind", o.Kind.String())
	}
	if o.Reason != "" {
		attrs = append(attrs, "reason", o.Reason)
	}
	if o.Err != nil {
		attrs = append(attrs, "error", o.Err.Error())
		slog.Warn(msg, attrs...)
		return
	}
	slog.Info(msg, attrs...)
}
