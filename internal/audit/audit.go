// Package audit writes one key=value line per command event so that every
// process consolex starts on the host can be traced afterwards.
package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EventType represents the type of run event.
type EventType string

// Event types.
const (
	EventRequest  EventType = "REQUEST"
	EventInvalid  EventType = "INVALID"
	EventStart    EventType = "START"
	EventComplete EventType = "COMPLETE"
	EventError    EventType = "ERROR"
	EventExit     EventType = "EXIT"
	EventSignal   EventType = "SIGNAL"
)

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time
	Type      EventType

	// Action is the requested action as sent by the client.
	Action string
	// Remote is the client address.
	Remote string
	// Cmd is the display form of the argument vector.
	Cmd string

	// ID and PID identify a process started by "open" (START, EXIT, SIGNAL).
	ID  string
	PID int

	// ExitCode and Duration are set for COMPLETE and EXIT.
	ExitCode int
	Duration time.Duration

	// Reason is set for ERROR and INVALID.
	Reason string

	// Signal is set for SIGNAL.
	Signal string
}

// Format returns the log entry as a single line.
// Format: 2024-01-15T14:32:05Z RUN START action="open" remote=127.0.0.1:50312 cmd="xdg-open a.pdf" id="..." pid=4242
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" RUN ")
	b.WriteString(string(e.Type))

	writeOptionalField(&b, "action", e.Action)
	if e.Remote != "" {
		b.WriteString(" remote=")
		b.WriteString(e.Remote)
	}
	b.WriteString(" cmd=")
	b.WriteString(quoteValue(e.Cmd))

	switch e.Type {
	case EventStart:
		writeOptionalField(&b, "id", e.ID)
		writePID(&b, e.PID)
	case EventComplete:
		writeExit(&b, e.ExitCode, e.Duration)
	case EventExit:
		writeOptionalField(&b, "id", e.ID)
		writePID(&b, e.PID)
		writeExit(&b, e.ExitCode, e.Duration)
	case EventSignal:
		writeOptionalField(&b, "id", e.ID)
		writePID(&b, e.PID)
		writeOptionalField(&b, "signal", e.Signal)
	case EventError, EventInvalid:
		writeOptionalField(&b, "reason", e.Reason)
	}

	return b.String()
}

func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

func writePID(b *strings.Builder, pid int) {
	if pid <= 0 {
		return
	}
	b.WriteString(" pid=")
	b.WriteString(strconv.Itoa(pid))
}

func writeExit(b *strings.Builder, code int, d time.Duration) {
	b.WriteString(" exit=")
	b.WriteString(strconv.Itoa(code))
	b.WriteString(" duration=")
	b.WriteString(formatDuration(d))
}

func quoteValue(s string) string {
	return strconv.Quote(s)
}

// formatDuration formats a duration as "12.5ms", "2.3s" or "1m30s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// Logger writes audit events to an io.Writer.
// A nil *Logger is valid and discards everything.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewLogger creates a new audit logger that writes to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// OpenFile opens path for appending, creating parent directories, and
// returns a Logger writing to it. Close the Logger to release the file.
func OpenFile(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return NewLogger(f), nil
}

// Close closes the underlying writer if it is an io.Closer.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Log writes an event. A zero Timestamp is filled with the current time.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	if _, err := io.WriteString(l.w, e.Format()+"\n"); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// LogRequest logs a REQUEST event.
func (l *Logger) LogRequest(action, remote, cmd string) error {
	return l.Log(&Event{Type: EventRequest, Action: action, Remote: remote, Cmd: cmd})
}

// LogInvalid logs an INVALID event for a rejected action.
func (l *Logger) LogInvalid(action, remote, cmd, reason string) error {
	return l.Log(&Event{Type: EventInvalid, Action: action, Remote: remote, Cmd: cmd, Reason: reason})
}

// LogStart logs a START event for a detached process.
func (l *Logger) LogStart(remote, cmd, id string, pid int) error {
	return l.Log(&Event{Type: EventStart, Action: "open", Remote: remote, Cmd: cmd, ID: id, PID: pid})
}

// LogComplete logs a COMPLETE event for a captured run.
func (l *Logger) LogComplete(remote, cmd string, exitCode int, duration time.Duration) error {
	return l.Log(&Event{Type: EventComplete, Action: "shell", Remote: remote, Cmd: cmd, ExitCode: exitCode, Duration: duration})
}

// LogError logs an ERROR event for a process that could not be run.
func (l *Logger) LogError(action, remote, cmd, reason string) error {
	return l.Log(&Event{Type: EventError, Action: action, Remote: remote, Cmd: cmd, Reason: reason})
}

// LogExit logs an EXIT event when a detached process is reaped.
func (l *Logger) LogExit(cmd, id string, pid, exitCode int, duration time.Duration) error {
	return l.Log(&Event{Type: EventExit, Cmd: cmd, ID: id, PID: pid, ExitCode: exitCode, Duration: duration})
}

// LogSignal logs a SIGNAL event for a signal delivered to a detached process.
func (l *Logger) LogSignal(remote, cmd, id string, pid int, signal string) error {
	return l.Log(&Event{Type: EventSignal, Remote: remote, Cmd: cmd, ID: id, PID: pid, Signal: signal})
}
