package cmd

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/xdg/consolex/internal/client"
)

// ExitCodeError makes the process exit with Code without printing anything.
type ExitCodeError struct {
	Code int
}

// NewExitCodeError creates an ExitCodeError.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// daemonNotRunningError returns a user-friendly error when no daemon is
// recorded in the state file.
func daemonNotRunningError() error {
	return fmt.Errorf("consolex is not running; start it with 'consolex serve'")
}

// requestError adds a hint about the daemon address to transport failures.
// API errors and other errors are returned unchanged.
func requestError(addr string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("cannot reach consolex at %s (is 'consolex serve' running?): %w", addr, err)
	}
	return err
}
