// Package clog is the daemon's operational log: lifecycle, spawned
// processes and failures, written to the log file at or above the
// configured level. Warnings and errors are echoed to stderr unless the
// process runs as a daemon.
//
// User-facing CLI output lives in internal/term; the per-request record of
// executed commands lives in internal/audit.
package clog

import "strings"

// Level orders log messages by severity.
type Level int

// Levels from most to least verbose. serve --debug selects LevelDebug.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// String returns the name written into log lines, e.g. "WARN".
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a config value such as "debug" or "Warning" to a Level.
// Unrecognized values fall back to LevelInfo.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "WARNING":
		return LevelWarn
	case "ERR":
		return LevelError
	}
	for l, n := range levelNames {
		if n == name {
			return Level(l)
		}
	}
	return LevelInfo
}
