// Package prompt asks the user to choose between options on the terminal.
// Prompter is an interface so commands can be tested with MockPrompter.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter presents numbered options and returns the chosen one.
type Prompter interface {
	// Prompt returns the zero-based index of the selected option. Empty
	// input selects defaultIdx.
	Prompt(prompt string, options []string, defaultIdx int) (int, error)
}

// Interactive reports whether f is a terminal a user can answer from.
func Interactive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// StdinPrompter implements Prompter over a reader and writer.
type StdinPrompter struct {
	In  io.Reader
	Out io.Writer
}

// NewStdinPrompter creates a StdinPrompter that reads from r and writes to w.
func NewStdinPrompter(r io.Reader, w io.Writer) *StdinPrompter {
	return &StdinPrompter{In: r, Out: w}
}

// Prompt displays the options 1-indexed, marks the default, and reads one
// line of input.
func (p *StdinPrompter) Prompt(prompt string, options []string, defaultIdx int) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options provided")
	}
	if defaultIdx < 0 || defaultIdx >= len(options) {
		return 0, fmt.Errorf("default index %d out of range [0, %d)", defaultIdx, len(options))
	}

	_, _ = fmt.Fprintln(p.Out, prompt)
	for i, opt := range options {
		suffix := ""
		if i == defaultIdx {
			suffix = " (default)"
		}
		_, _ = fmt.Fprintf(p.Out, "  %d. %s%s\n", i+1, opt, suffix)
	}
	_, _ = fmt.Fprintf(p.Out, "Enter selection [%d]: ", defaultIdx+1)

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}

	input := strings.TrimSpace(line)
	if input == "" {
		return defaultIdx, nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q: must be a number", input)
	}
	idx := selection - 1
	if idx < 0 || idx >= len(options) {
		return 0, fmt.Errorf("selection %d out of range (1-%d)", selection, len(options))
	}
	return idx, nil
}

// MockPrompter implements Prompter for tests with queued responses.
type MockPrompter struct {
	// Responses are returned by successive calls.
	Responses []int
	// Errors, when non-nil at a call's position, are returned instead.
	Errors []error
	// Calls records every call.
	Calls []MockPrompterCall

	callIndex int
}

// MockPrompterCall records a single call to Prompt.
type MockPrompterCall struct {
	Prompt     string
	Options    []string
	DefaultIdx int
}

// NewMockPrompter creates a MockPrompter with the given responses.
func NewMockPrompter(responses ...int) *MockPrompter {
	return &MockPrompter{Responses: responses}
}

// Prompt returns the next queued response or error, then the default.
func (m *MockPrompter) Prompt(prompt string, options []string, defaultIdx int) (int, error) {
	m.Calls = append(m.Calls, MockPrompterCall{
		Prompt:     prompt,
		Options:    options,
		DefaultIdx: defaultIdx,
	})

	i := m.callIndex
	m.callIndex++
	if i < len(m.Errors) && m.Errors[i] != nil {
		return 0, m.Errors[i]
	}
	if i < len(m.Responses) {
		return m.Responses[i], nil
	}
	return defaultIdx, nil
}
