package todo

import (
	"strings"

	"todo-notifier/internal/pkg/errs"
)

type Status string

const (
	StatusNotStarted Status = "NotStarted"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusBlocked    Status = "Blocked"
)

var ErrInvalidStatus = errs.New("invalid todo status")

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	default:
		return false
	}
}

// Label is the human-readable form used in emails.
func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "Not started"
	case StatusInProgress:
		return "In progress"
	case StatusCompleted:
		return "Completed"
	case StatusBlocked:
		return "Blocked"
	default:
		return string(s)
	}
}

// ParseStatus accepts the stored labels, including the legacy "Pending" and
// "Not Started" spellings written by older versions of the web app.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", "")) {
	case "notstarted", "pending":
		return StatusNotStarted, nil
	case "inprogress":
		return StatusInProgress, nil
	case "completed", "done":
		return StatusCompleted, nil
	case "blocked":
		return StatusBlocked, nil
	default:
		return "", errs.Mark(errs.Newf("unknown status %q", raw), ErrInvalidStatus)
	}
}
