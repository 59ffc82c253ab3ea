package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xdg/consolex/internal/pathutil"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "CONSOLEX_CONFIG"

// Dir returns the consolex configuration directory, honoring XDG_CONFIG_HOME.
func Dir() string {
	return pathutil.ConfigDir()
}

// EnsureDir creates the configuration directory with user-only permissions.
func EnsureDir() error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return nil
}

// Path returns the config file path: $CONSOLEX_CONFIG if set, otherwise
// Dir()/config.yaml.
func Path() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return pathutil.ExpandHome(p)
	}
	return filepath.Join(Dir(), "config.yaml")
}
