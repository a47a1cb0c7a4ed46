package notification

import (
	"time"

	"todo-notifier/internal/pkg/errs"

	"github.com/google/uuid"
)

type Kind string

const (
	KindNone      Kind = ""
	KindDayBefore Kind = "DayBefore"
	KindDueToday  Kind = "DueToday"
	KindOverdue   Kind = "Overdue"
)

var ErrUnknownKind = errs.New("unknown notification kind")

func (k Kind) String() string {
	if k == KindNone {
		return "None"
	}
	return string(k)
}

func (k Kind) IsValid() bool {
	switch k {
	case KindDayBefore, KindDueToday, KindOverdue:
		return true
	default:
		return false
	}
}

func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if !k.IsValid() {
		return KindNone, errs.Mark(errs.Newf("unknown kind %q", raw), ErrUnknownKind)
	}
	return k, nil
}

// Record is the per-task notification history. It exists only after a
// confirmed send and is never deleted.
type Record struct {
	TaskID     uuid.UUID
	LastKind   Kind
	LastSentAt time.Time
}

// Intent asks the dispatcher to send exactly one email.
type Intent struct {
	TaskID uuid.UUID
	Kind   Kind
	DueAt  time.Time
	// Fresh is set when nothing was sent yet and the task was just created or edited.
	Fresh bool
	// Key is task id + kind + time bucket; equal keys denote the same reminder.
	Key string
}

type Decision struct {
	Intent *Intent
	// Candidate is the window the task is in, even when the send was suppressed.
	Candidate Kind
}

func (d Decision) ShouldSend() bool {
	return d.Intent != nil
}

func (d Decision) Suppressed() bool {
	return d.Intent == nil && d.Candidate != KindNone
}
