// Package daemon tracks the running consolex server through a small JSON
// state file so the CLI can find and stop it.
package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/xdg/consolex/internal/pathutil"
)

// InstanceIDEnvVar suffixes the state filename so tests can run a private
// server alongside a real one.
const InstanceIDEnvVar = "CONSOLEX_INSTANCE_ID"

// State describes a running server.
type State struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
}

// StatePath returns the path to the state file:
// ~/.local/share/consolex/server.json, or server-<id>.json when
// CONSOLEX_INSTANCE_ID is set.
func StatePath() string {
	filename := "server.json"
	if id := os.Getenv(InstanceIDEnvVar); id != "" {
		filename = "server-" + id + ".json"
	}
	return filepath.Join(pathutil.DataDir(), filename)
}

// SaveState writes the state file with user-only permissions.
func SaveState(state *State) error {
	path := StatePath()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// LoadState reads the state file. Returns nil, nil if it doesn't exist.
func LoadState() (*State, error) {
	data, err := os.ReadFile(StatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// RemoveState removes the state file. A missing file is not an error.
func RemoveState() error {
	if err := os.Remove(StatePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove state: %w", err)
	}
	return nil
}

// IsRunning reports whether the process recorded in state is alive.
func IsRunning(state *State) bool {
	if state == nil || state.PID <= 0 {
		return false
	}
	// Signal 0 checks for existence without delivering anything.
	// EPERM means the process exists but belongs to someone else.
	err := unix.Kill(state.PID, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Stop sends SIGTERM to the server recorded in state.
// A nil state or an already-dead process is not an error.
func Stop(state *State) error {
	if state == nil || state.PID <= 0 {
		return nil
	}
	if err := unix.Kill(state.PID, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("failed to signal server (pid %d): %w", state.PID, err)
	}
	return nil
}

// CleanupStale removes the state file if the recorded process is gone.
// It reports whether a stale file was removed.
func CleanupStale() (bool, error) {
	state, err := LoadState()
	if err != nil {
		return false, err
	}
	if state == nil || IsRunning(state) {
		return false, nil
	}
	return true, RemoveState()
}
