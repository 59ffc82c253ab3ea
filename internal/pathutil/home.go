// Package pathutil provides path manipulation utilities and the XDG base
// directories consolex keeps its files under.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName is the directory name used under each XDG base directory.
const AppName = "consolex"

// ExpandHome replaces a leading ~ in path with the user's home directory.
// If the home directory cannot be determined, the path is returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// StateDir returns $XDG_STATE_HOME/consolex, defaulting to ~/.local/state/consolex.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", "~/.local/state")
}

// DataDir returns $XDG_DATA_HOME/consolex, defaulting to ~/.local/share/consolex.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", "~/.local/share")
}

// ConfigDir returns $XDG_CONFIG_HOME/consolex, defaulting to ~/.config/consolex.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", "~/.config")
}

func xdgDir(envVar, fallback string) string {
	base := os.Getenv(envVar)
	if base == "" {
		base = fallback
	}
	return filepath.Join(ExpandHome(base), AppName)
}
