package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDefault writes the commented default configuration to path.
// An existing file is left untouched. Parent directories are created with
// 0700 and the file is written 0600.
func WriteDefault(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

const defaultConfigTemplate = `# consolex configuration
#
# Every field is optional; absent fields take the values shown here.

server:
  # Address the HTTP API listens on. Binding beyond loopback lets any host
  # that can reach the port run commands as this user.
  listen: 127.0.0.1:8000
  read_header_timeout: 30s
  # Grace period for in-flight requests on SIGINT/SIGTERM.
  shutdown_timeout: 10s

processes:
  # List processes started with action "open" under GET /processes.
  track: true
  # Number of exited processes kept in the listing.
  retain_exited: 100

log:
  file: ~/.local/state/consolex/consolex.log
  # debug, info, warn or error
  level: info

audit:
  # One key=value line per request, spawn and exit.
  file: ~/.local/state/consolex/audit.log
  # disabled: true
`
