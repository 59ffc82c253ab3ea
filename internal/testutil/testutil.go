// Package testutil provides shared test helpers for consolex tests.
package testutil

import (
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/xdg/consolex/internal/config"
	"github.com/xdg/consolex/internal/daemon"
)

// IsolateHome points HOME and the XDG directories at a fresh temp dir and
// sets a unique instance ID, so config, logs and daemon state never touch
// the real user's files. It returns the temp root.
func IsolateHome(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv(config.PathEnvVar, "")
	t.Setenv(daemon.InstanceIDEnvVar, "test-"+uuid.NewString()[:8])
	return root
}

// RequireBinary skips the test if name is not on PATH.
func RequireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found on PATH", name)
	}
}
