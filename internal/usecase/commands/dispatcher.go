package commands

import (
	"context"
	"log/slog"
	"net/mail"
	"time"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/domain/todo"
	"todo-notifier/internal/pkg/clock"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/usecase/shared"
)

const (
	defaultSendTimeout = 15 * time.Second
	recordWriteTimeout = 5 * time.Second
)

type DispatchResult struct {
	SentAt time.Time
	// RecordApplied is false when a concurrent send already stored a newer record.
	RecordApplied bool
}

// Dispatcher sends one reminder and records it. It never retries; the next
// sweep or trigger is the retry.
type Dispatcher struct {
	sender   shared.EmailSender
	uow      shared.UnitOfWork
	renderer *Renderer
	clock    clock.Clock
	timeout  time.Duration
}

func NewDispatcher(sender shared.EmailSender, uow shared.UnitOfWork, renderer *Renderer, clk clock.Clock, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{
		sender:   sender,
		uow:      uow,
		renderer: renderer,
		clock:    clk,
		timeout:  timeout,
	}
}

// Dispatch returns an error marked errs.ErrDispatch when the email was not
// confirmed, in which case the record is untouched. An error marked
// errs.ErrStoreUnavailable means the email went out but the record write failed.
func (d *Dispatcher) Dispatch(ctx context.Context, task *todo.Task, intent *notification.Intent) (*DispatchResult, error) {
	if _, err := mail.ParseAddress(task.Assignee.Email); err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "invalid recipient %q", task.Assignee.Email), errs.ErrDispatch)
	}

	msg, err := d.renderer.Render(task, intent)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDispatch)
	}

	if err := d.send(ctx, msg); err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "send %s for task %s", intent.Kind, task.ID), errs.ErrDispatch)
	}

	sentAt := d.clock.Now()
	rec := notification.Record{TaskID: task.ID, LastKind: intent.Kind, LastSentAt: sentAt}

	// the email is out; losing the record to a cancelled caller only buys a duplicate
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordWriteTimeout)
	defer cancel()

	var applied bool
	err = d.uow.Within(wctx, func(ctx context.Context, tx shared.Tx) error {
		var werr error
		applied, werr = tx.Notifications().Upsert(ctx, tx.DB(), rec)
		return werr
	})
	if err != nil {
		slog.Error("email sent but notification record not written; next run may resend",
			"task_id", task.ID.String(),
			"kind", intent.Kind.String(),
			"error", err.Error())
		if !errs.Is(err, errs.ErrStoreUnavailable) {
			err = errs.Mark(err, errs.ErrStoreUnavailable)
		}
		return &DispatchResult{SentAt: sentAt}, errs.Wrap(err, "record notification")
	}

	return &DispatchResult{SentAt: sentAt, RecordApplied: applied}, nil
}

// send bounds the collaborator call even if it ignores ctx.
func (d *Dispatcher) send(ctx context.Context, msg shared.EmailMessage) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.sender.Send(sendCtx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-sendCtx.Done():
		return errs.Wrapf(sendCtx.Err(), "email send not confirmed within %s", d.timeout)
	}
}
