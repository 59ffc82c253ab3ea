// Package cmdline renders argument vectors as shell-style command lines for
// logs, audit entries and CLI listings. The rendering is display-only;
// commands are always executed from the argument vector, never re-parsed.
package cmdline

import (
	"strings"
)

// Format joins args into a single command line, quoting where needed.
//
// Quoting rules:
//   - Simple args (alphanumeric, hyphen, underscore, dot, slash, colon): use as-is
//   - Args with special chars or spaces: wrap in single quotes
//   - Embedded single quotes: escape using the POSIX single-quote idiom
//
// The single-quote escape idiom works by ending the current quoted section,
// adding a backslash-escaped literal quote, then starting a new quoted section.
// See the "it's" example below - the output shows the three concatenated parts.
//
// Examples:
//
//	["xdg-open", "a.pdf"]      → "xdg-open a.pdf"
//	["echo", "hello world"]    → "echo 'hello world'"
//	["echo", "it's"]           → "echo 'it'\''s'"
//	["ls", "-la", "/tmp"]      → "ls -la /tmp"
func Format(args []string) string {
	if len(args) == 0 {
		return ""
	}

	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}

// Quote quotes a single argument for shell display.
// Returns the argument unchanged if it contains only safe characters,
// otherwise wraps it in single quotes with proper escaping.
func Quote(s string) string {
	if s == "" {
		return "''"
	}

	// Check if the string needs quoting
	needsQuote := false
	for _, c := range s {
		if !isSafeChar(c) {
			needsQuote = true
			break
		}
	}

	if !needsQuote {
		return s
	}

	// Quote with single quotes, escaping embedded single quotes as '\''
	var b strings.Builder
	b.WriteByte('\'')
	for _, c := range s {
		if c == '\'' {
			// End current quote, add escaped quote, start new quote
			b.WriteString("'\\''")
		} else {
			b.WriteRune(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// isSafeChar returns true if the character doesn't need quoting.
// Safe characters: alphanumeric, hyphen, underscore, dot, slash, colon, at, plus, equals.
func isSafeChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '/' || c == ':' || c == '@' || c == '+' || c == '='
}

// Truncate shortens a formatted command line to at most max runes,
// marking the cut with an ellipsis. max <= 0 disables truncation.
func Truncate(line string, max int) string {
	if max <= 0 {
		return line
	}
	runes := []rune(line)
	if len(runes) <= max {
		return line
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
