package notification

import (
	"time"

	"todo-notifier/internal/domain/todo"
	"todo-notifier/internal/pkg/errs"
)

// Decide reports whether a reminder for task must be sent at now, given the
// task's notification history. It is pure: the same inputs always produce the
// same decision. A task with a malformed due date yields an error marked
// errs.ErrInvalidTaskData.
func Decide(p Policy, task *todo.Task, rec *Record, now time.Time) (Decision, error) {
	if task == nil || task.IsTerminal() || !task.Assignee.IsSet() || !task.HasDueDate() {
		return Decision{}, nil
	}

	if !task.Status.IsValid() {
		return Decision{}, errs.Mark(errs.Newf("task %s has unknown status %q", task.ID, task.Status), errs.ErrInvalidTaskData)
	}

	due, err := task.Due()
	if err != nil {
		return Decision{}, errs.Wrapf(err, "task %s", task.ID)
	}

	kind := p.candidate(due, now)
	if kind == KindNone {
		return Decision{}, nil
	}

	d := Decision{Candidate: kind}
	if p.suppressed(kind, rec, now) {
		return d, nil
	}

	d.Intent = &Intent{
		TaskID: task.ID,
		Kind:   kind,
		DueAt:  due,
		Fresh:  rec == nil && p.isFresh(task, now),
		Key:    task.ID.String() + ":" + string(kind) + ":" + p.Bucket(kind, now),
	}
	return d, nil
}

// candidate picks the lifecycle window. DueToday wins over DayBefore whenever
// now is on the due calendar date; Overdue starts the day after.
func (p Policy) candidate(due, now time.Time) Kind {
	if due.Sub(now) > DayBeforeWindow {
		return KindNone
	}

	today := p.DayStart(now)
	dueDay := p.DayStart(due)
	switch {
	case today.Equal(dueDay):
		return KindDueToday
	case today.Before(dueDay):
		return KindDayBefore
	default:
		return KindOverdue
	}
}

func (p Policy) suppressed(kind Kind, rec *Record, now time.Time) bool {
	if rec == nil || rec.LastKind != kind {
		return false
	}
	if kind == KindOverdue {
		return now.Sub(rec.LastSentAt) < p.overdueThreshold()
	}
	// DayBefore and DueToday go out at most once per calendar day.
	return !p.DayStart(now).After(p.DayStart(rec.LastSentAt))
}

func (p Policy) isFresh(task *todo.Task, now time.Time) bool {
	if task.UpdatedAt.IsZero() || p.FreshWindow <= 0 {
		return false
	}
	age := now.Sub(task.UpdatedAt)
	return age >= 0 && age <= p.FreshWindow
}
