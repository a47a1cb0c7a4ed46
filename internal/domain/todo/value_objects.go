package todo

import (
	"strings"
	"time"

	"todo-notifier/internal/pkg/errs"
)

type Assignee struct {
	ID    string
	Name  string
	Email string
}

func (a Assignee) IsSet() bool {
	return strings.TrimSpace(a.ID) != ""
}

// DisplayName falls back to a neutral greeting when the name is unknown.
func (a Assignee) DisplayName() string {
	if n := strings.TrimSpace(a.Name); n != "" {
		return n
	}
	return "there"
}

// ParseDueAt requires an RFC 3339 timestamp carrying an explicit offset.
// Guessing a timezone for a bare local timestamp would shift reminders by hours.
func ParseDueAt(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errs.Mark(errs.New("due date is empty"), errs.ErrInvalidTaskData)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if hasNoOffset(s) {
			return time.Time{}, errs.Mark(errs.Newf("due date %q has no timezone offset", s), errs.ErrInvalidTaskData)
		}
		return time.Time{}, errs.Mark(errs.Wrapf(err, "due date %q is not RFC 3339", s), errs.ErrInvalidTaskData)
	}
	return t, nil
}

func hasNoOffset(s string) bool {
	_, err := time.Parse("2006-01-02T15:04:05", s)
	if err == nil {
		return true
	}
	_, err = time.Parse("2006-01-02", s)
	return err == nil
}
