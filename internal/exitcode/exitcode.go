// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, no task, stream already open).
	UserError = 1

	// ConfigError indicates a config or credentials error.
	ConfigError = 2

	// BackendError indicates a backend, server, or network error.
	BackendError = 3

	// TaskExpired indicates the server no longer knows the task.
	// The only way forward is a new upload or task allocation.
	TaskExpired = 4
)
