package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a parsed Config:
//   - server.listen is host:port or :port with a port in 1-65535
//   - duration strings parse with time.ParseDuration
//   - processes.retain_exited is non-negative
//   - log.level is one of debug, info, warn, error (if non-empty)
//
// Empty fields are valid; defaults are applied after validation.
func Validate(cfg *Config) error {
	if cfg.Server.Listen != "" {
		if err := validateListenAddr(cfg.Server.Listen, "server.listen"); err != nil {
			return err
		}
	}
	if cfg.Server.ReadHeaderTimeout != "" {
		if err := validateDuration(cfg.Server.ReadHeaderTimeout, "server.read_header_timeout"); err != nil {
			return err
		}
	}
	if cfg.Server.ShutdownTimeout != "" {
		if err := validateDuration(cfg.Server.ShutdownTimeout, "server.shutdown_timeout"); err != nil {
			return err
		}
	}

	if cfg.Processes.RetainExited < 0 {
		return fmt.Errorf("processes.retain_exited: must be non-negative, got %d", cfg.Processes.RetainExited)
	}

	if cfg.Log.Level != "" && !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level: invalid value %q, must be one of: debug, info, warn, error", cfg.Log.Level)
	}

	return nil
}

// validateListenAddr validates a listen address in the format ":port" or "host:port".
func validateListenAddr(addr, field string) error {
	colonIdx := strings.LastIndex(addr, ":")
	if colonIdx == -1 {
		return fmt.Errorf("%s: invalid format %q, expected host:port or :port", field, addr)
	}

	portStr := addr[colonIdx+1:]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("%s: invalid port %q in %q", field, portStr, addr)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s: invalid port number %d, must be 1-65535", field, port)
	}
	return nil
}

func validateDuration(d, field string) error {
	v, err := time.ParseDuration(d)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", field, d)
	}
	if v < 0 {
		return fmt.Errorf("%s: must be non-negative, got %q", field, d)
	}
	return nil
}
