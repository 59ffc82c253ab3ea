// Package term writes what the consolex CLI shows its user: command results
// on stdout, and "Warning:"/"Error:" lines on stderr. --silent mutes stdout
// only. Prefixes are colored by fatih/color when stderr is a terminal.
//
// Daemon diagnostics go through internal/clog instead.
package term

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	mu     sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	silent bool

	warnPrefix  = color.New(color.FgYellow, color.Bold)
	errorPrefix = color.New(color.FgRed, color.Bold)
)

// SetColor forces colored prefixes on or off, overriding terminal detection.
func SetColor(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	for _, c := range []*color.Color{warnPrefix, errorPrefix} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// SetSilent mutes Print, Printf and Println. Warn and Error still print.
func SetSilent(s bool) {
	mu.Lock()
	defer mu.Unlock()
	silent = s
}

// IsSilent reports whether stdout output is muted.
func IsSilent() bool {
	mu.Lock()
	defer mu.Unlock()
	return silent
}

// SetOutput redirects stdout output; nil restores os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		stdout = os.Stdout
	} else {
		stdout = w
	}
}

// SetErrOutput redirects Warn and Error; nil restores os.Stderr.
func SetErrOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		stderr = os.Stderr
	} else {
		stderr = w
	}
}

// writeOut runs write against stdout unless silent.
func writeOut(write func(io.Writer)) {
	mu.Lock()
	defer mu.Unlock()
	if !silent {
		write(stdout)
	}
}

func writeLabeled(label *color.Color, text, format string, a []any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "%s %s\n", label.Sprint(text), fmt.Sprintf(format, a...))
}

// Print writes to stdout like fmt.Print.
func Print(a ...any) {
	writeOut(func(w io.Writer) { _, _ = fmt.Fprint(w, a...) })
}

// Printf writes to stdout like fmt.Printf.
func Printf(format string, a ...any) {
	writeOut(func(w io.Writer) { _, _ = fmt.Fprintf(w, format, a...) })
}

// Println writes to stdout like fmt.Println.
func Println(a ...any) {
	writeOut(func(w io.Writer) { _, _ = fmt.Fprintln(w, a...) })
}

// Warn prints "Warning: <msg>" to stderr, even in silent mode.
func Warn(format string, a ...any) {
	writeLabeled(warnPrefix, "Warning:", format, a)
}

// Error prints "Error: <msg>" to stderr, even in silent mode.
func Error(format string, a ...any) {
	writeLabeled(errorPrefix, "Error:", format, a)
}

// Stdout is the writer for tables and other streamed output; io.Discard
// while silent.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return io.Discard
	}
	return stdout
}

// Stderr is the writer Warn and Error use.
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stderr
}

// Reset restores os.Stdout/os.Stderr, clears silent mode and turns color off.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	stdout = os.Stdout
	stderr = os.Stderr
	silent = false
	for _, c := range []*color.Color{warnPrefix, errorPrefix} {
		c.DisableColor()
	}
}

// Discard drops everything, stderr included.
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	stdout = io.Discard
	stderr = io.Discard
}
