package errs

// Notification engine error taxonomy. None of these is fatal to the process.
var (
	// missing or unparseable due date / timezone on a task
	ErrInvalidTaskData = New("invalid task data")
	// transport or recipient failure while sending; retried by the next invocation
	ErrDispatch = New("dispatch failed")
	// history or task store unreachable; aborts only the current task
	ErrStoreUnavailable = New("store unavailable")

	ErrNotFound = New("not found")

	ErrInvalidCursor = New("invalid cursor")
)
