package executor

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// RealExecutor starts processes using os/exec.
type RealExecutor struct{}

// NewRealExecutor creates a new RealExecutor.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

var _ Executor = (*RealExecutor)(nil)

// Start implements Executor.Start.
func (e *RealExecutor) Start(args []string) (Process, error) {
	if len(args) == 0 {
		return nil, ErrNoCommand
	}

	cmd := exec.Command(args[0], args[1:]...) //nolint:gosec // G204: running caller-supplied commands is the point
	// Own process group so signals aimed at the daemon's group don't reach
	// the child, and so the child's whole group can be signalled later.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

// Run implements Executor.Run.
func (e *RealExecutor) Run(args []string) (RunResult, error) {
	if len(args) == 0 {
		return RunResult{}, ErrNoCommand
	}

	cmd := exec.Command(args[0], args[1:]...) //nolint:gosec // G204: running caller-supplied commands is the point

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return RunResult{}, err
	}
	return result, nil
}

// execProcess wraps exec.Cmd to implement Process.
type execProcess struct {
	cmd *exec.Cmd

	once     sync.Once
	exitCode int
	waitErr  error
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

// Wait may be called more than once; later calls return the first result.
func (p *execProcess) Wait() (int, error) {
	p.once.Do(func() {
		err := p.cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			p.exitCode = 0
		case errors.As(err, &exitErr):
			p.exitCode = exitErr.ExitCode()
		default:
			p.exitCode = -1
			p.waitErr = err
		}
	})
	return p.exitCode, p.waitErr
}

// Signal refuses to signal the group once the leader has been waited on,
// since its PID may then belong to an unrelated process group.
func (p *execProcess) Signal(sig unix.Signal) error {
	if err := p.cmd.Process.Signal(syscall.Signal(0)); errors.Is(err, os.ErrProcessDone) {
		return unix.ESRCH
	}
	return SignalGroup(p.Pid(), sig)
}

// SignalGroup sends sig to the process group led by pid.
func SignalGroup(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return unix.ESRCH
	}
	return unix.Kill(-pid, sig)
}
