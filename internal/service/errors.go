package service

import (
	"errors"
	"fmt"
)

// ErrNoTask is returned when a task-scoped operation runs before a task exists.
var ErrNoTask = errors.New("no task: upload an image or allocate a task first")

// ErrStreamActive is returned when a solve is requested while another
// stream for the same task is still open.
var ErrStreamActive = errors.New("a solve stream is already open for this task")

// ExpiredTaskError reports that the server no longer knows the task.
// The server drops tasks after its retention window; the only recovery is
// to start over with a new upload or allocation.
type ExpiredTaskError struct {
	TaskID string
	Body   string
}

func (e *ExpiredTaskError) Error() string {
	if e.TaskID == "" {
		return "task expired"
	}
	return fmt.Sprintf("task expired: %s", e.TaskID)
}

// ServerError is a non-2xx response. Body is kept verbatim for display.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// TransportError is a network or stream failure. It is terminal for the
// operation in flight and never retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports malformed numeric input. It is corrected locally
// and never surfaced to the user.
type ValidationError struct {
	Field string
	Input string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Input)
}

// IsExpired reports whether err is or wraps an ExpiredTaskError.
func IsExpired(err error) bool {
	var expired *ExpiredTaskError
	return errors.As(err, &expired)
}
