package procreg

import (
	"errors"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrUnknownSignal is returned by ParseSignal for names it does not accept.
var ErrUnknownSignal = errors.New("unknown signal")

// allowedSignals are the signals clients may deliver to tracked processes.
var allowedSignals = map[unix.Signal]bool{
	unix.SIGTERM: true,
	unix.SIGKILL: true,
	unix.SIGINT:  true,
	unix.SIGHUP:  true,
	unix.SIGQUIT: true,
	unix.SIGUSR1: true,
	unix.SIGUSR2: true,
	unix.SIGSTOP: true,
	unix.SIGCONT: true,
}

// ParseSignal parses a signal name such as "TERM", "sigkill" or "SIGINT".
// An empty name means SIGTERM.
func ParseSignal(name string) (unix.Signal, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return unix.SIGTERM, nil
	}
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	if sig == 0 || !allowedSignals[sig] {
		return 0, ErrUnknownSignal
	}
	return sig, nil
}

// SignalName returns the short name of sig, e.g. "TERM".
func SignalName(sig unix.Signal) string {
	return strings.TrimPrefix(unix.SignalName(sig), "SIG")
}
