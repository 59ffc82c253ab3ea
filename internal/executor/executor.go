// Package executor starts host processes for the command dispatcher.
//
// Two strategies are provided: Start launches a detached child and returns
// immediately, Run launches a child, waits for it and captures its output.
package executor

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// ErrNoCommand is returned when the argument list is empty.
var ErrNoCommand = errors.New("no command specified")

// Executor starts host processes.
type Executor interface {
	// Start launches args as a new process in its own process group and
	// returns without waiting. The child's stdio is the null device.
	Start(args []string) (Process, error)

	// Run launches args, waits for it to exit and captures stdout and
	// stderr. A non-zero exit status is not an error.
	Run(args []string) (RunResult, error)
}

// Process is a started child process.
type Process interface {
	// Pid returns the OS process ID.
	Pid() int
	// Wait blocks until the process exits and returns its exit code.
	// A child killed by a signal reports -1.
	Wait() (exitCode int, err error)
	// Signal sends sig to the child's process group.
	Signal(sig unix.Signal) error
}

// RunResult is the outcome of Run.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}
