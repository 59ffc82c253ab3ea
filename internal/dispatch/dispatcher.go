package dispatch

import (
	"slices"

	"github.com/xdg/consolex/internal/audit"
	"github.com/xdg/consolex/internal/clog"
	"github.com/xdg/consolex/internal/cmdline"
	"github.com/xdg/consolex/internal/executor"
)

// Tracker takes ownership of a started process and reaps it.
type Tracker interface {
	Track(proc executor.Process, args []string) string
}

// Dispatcher executes command requests. Requests are independent of each
// other; a Dispatcher holds no per-request state and is safe for concurrent
// use.
type Dispatcher struct {
	// Executor starts processes. Required.
	Executor executor.Executor

	// Tracker supervises open children. If nil, each child is reaped by an
	// anonymous goroutine and no ID is reported.
	Tracker Tracker

	// AuditLogger records request events. May be nil.
	AuditLogger *audit.Logger
}

// New creates a Dispatcher.
func New(exec executor.Executor, tracker Tracker, auditLogger *audit.Logger) *Dispatcher {
	return &Dispatcher{
		Executor:    exec,
		Tracker:     tracker,
		AuditLogger: auditLogger,
	}
}

// Handle executes req and returns an OpenResult or ShellResult.
// Unknown actions fail with ErrInvalidAction before any process is created.
// Process creation failures are returned as *ExecutionError.
func (d *Dispatcher) Handle(req CommandRequest) (Result, error) {
	action := ParseAction(req.Action)
	cmd := cmdline.Format(req.Args)
	clog.Debug("run request from %s: action=%q cmd=%s", req.Remote, req.Action, cmd)

	switch action {
	case ActionOpen:
		_ = d.AuditLogger.LogRequest(action.String(), req.Remote, cmd)
		return d.open(req, cmd)
	case ActionShell:
		_ = d.AuditLogger.LogRequest(action.String(), req.Remote, cmd)
		return d.shell(req, cmd)
	case ActionInvalid:
		_ = d.AuditLogger.LogInvalid(req.Action, req.Remote, cmd, "unknown action")
		return nil, ErrInvalidAction
	}
	return nil, ErrInvalidAction
}

func (d *Dispatcher) open(req CommandRequest, cmd string) (Result, error) {
	proc, err := d.Executor.Start(req.Args)
	if err != nil {
		clog.Warn("open %s failed: %v", cmd, err)
		_ = d.AuditLogger.LogError(ActionOpen.String(), req.Remote, cmd, err.Error())
		return nil, &ExecutionError{Action: ActionOpen, Args: req.Args, Err: err}
	}

	var id string
	if d.Tracker != nil {
		id = d.Tracker.Track(proc, req.Args)
	} else {
		go func() { _, _ = proc.Wait() }()
	}

	clog.Info("started %s (pid %d)", cmd, proc.Pid())
	_ = d.AuditLogger.LogStart(req.Remote, cmd, id, proc.Pid())

	return OpenResult{
		Status:    "started",
		Args:      argsOrEmpty(req.Args),
		ProcessID: id,
		PID:       proc.Pid(),
	}, nil
}

func (d *Dispatcher) shell(req CommandRequest, cmd string) (Result, error) {
	res, err := d.Executor.Run(req.Args)
	if err != nil {
		clog.Warn("shell %s failed: %v", cmd, err)
		_ = d.AuditLogger.LogError(ActionShell.String(), req.Remote, cmd, err.Error())
		return nil, &ExecutionError{Action: ActionShell, Args: req.Args, Err: err}
	}

	clog.Info("shell %s exited %d after %s", cmd, res.ExitCode, res.Duration)
	_ = d.AuditLogger.LogComplete(req.Remote, cmd, res.ExitCode, res.Duration)

	return ShellResult{
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: res.ExitCode,
		Duration: res.Duration,
	}, nil
}

// argsOrEmpty keeps the echoed args a JSON array even when none were given.
func argsOrEmpty(args []string) []string {
	if args == nil {
		return []string{}
	}
	return slices.Clone(args)
}
