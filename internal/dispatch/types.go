package dispatch

import (
	"errors"
	"time"
)

// ErrInvalidAction is returned for any action other than open or shell.
var ErrInvalidAction = errors.New("unknown action")

// CommandRequest asks the daemon to run a command.
type CommandRequest struct {
	Action string   `json:"action"`
	Args   []string `json:"args"`

	// Remote identifies the caller in logs. It is not part of the wire body.
	Remote string `json:"-"`
}

// Result is the payload of a successfully dispatched request.
type Result interface {
	result()
}

// OpenResult reports a detached process that was started.
type OpenResult struct {
	Status string   `json:"status"`
	Args   []string `json:"args"`

	// ProcessID is the registry ID of the child, empty when untracked.
	ProcessID string `json:"-"`
	PID       int    `json:"-"`
}

// ShellResult carries the captured output of a completed process.
type ShellResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	ExitCode int           `json:"-"`
	Duration time.Duration `json:"-"`
}

func (OpenResult) result()  {}
func (ShellResult) result() {}

// ExecutionError wraps an OS-level failure to create or run a process.
// Its message is the underlying error text unchanged.
type ExecutionError struct {
	Action Action
	Args   []string
	Err    error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
