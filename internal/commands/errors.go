package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"astroctl/internal/exitcode"
	"astroctl/internal/service"
)

// ExpiredNotice is printed when the backend no longer knows the task.
const ExpiredNotice = "task expired (the server deletes tasks after 10 minutes); start over with 'astroctl upload' or 'astroctl new'"

// reportError prints err and returns the exit code for it.
func reportError(errOut io.Writer, err error) int {
	var serverErr *service.ServerError
	var transportErr *service.TransportError

	switch {
	case service.IsExpired(err):
		fmt.Fprintf(errOut, "error: %s\n", ExpiredNotice)
		return exitcode.TaskExpired
	case errors.Is(err, service.ErrNoTask):
		fmt.Fprintln(errOut, "error: no task (run: astroctl upload <image> or astroctl new)")
		return exitcode.UserError
	case errors.Is(err, service.ErrStreamActive):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.UserError
	case errors.As(err, &serverErr):
		fmt.Fprintf(errOut, "error: backend error: %d: %s\n", serverErr.StatusCode, serverErr.Body)
		return exitcode.BackendError
	case errors.As(err, &transportErr):
		fmt.Fprintf(errOut, "error: backend unreachable: %v\n", transportErr)
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
