package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/consolex/internal/clog"
	"github.com/xdg/consolex/internal/pathutil"
)

// Load reads the configuration from Path().
// If the file doesn't exist, a commented default file is written and the
// defaults are returned. Parse and validation failures are errors.
// Defaults fill absent fields and ~ is expanded in path fields.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

// Read is Load without side effects: a missing file yields the defaults and
// nothing is written. Client commands use it.
func Read() (*Config, error) {
	return load(Path(), false)
}

func load(path string, writeMissing bool) (*Config, error) {
	clog.Debug("config: loading %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if writeMissing {
			clog.Debug("config: %s not found, writing defaults", path)
			if writeErr := WriteDefault(path); writeErr != nil {
				clog.Warn("config: failed to create default config: %v", writeErr)
			}
		}
		cfg := Default()
		expandPaths(cfg)
		return cfg, nil
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyDefaults(cfg)
	expandPaths(cfg)
	return cfg, nil
}

func expandPaths(cfg *Config) {
	cfg.Log.File = pathutil.ExpandHome(cfg.Log.File)
	cfg.Audit.File = pathutil.ExpandHome(cfg.Audit.File)
}
