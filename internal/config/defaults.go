package config

import "time"

// Default values used when a field is absent from the config file.
const (
	DefaultListen            = "127.0.0.1:8000"
	DefaultReadHeaderTimeout = 30 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultRetainExited      = 100
)

func boolPtr(b bool) *bool {
	return &b
}

// Default returns a Config with all defaults populated.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:            DefaultListen,
			ReadHeaderTimeout: DefaultReadHeaderTimeout.String(),
			ShutdownTimeout:   DefaultShutdownTimeout.String(),
		},
		Processes: ProcessesConfig{
			Track:        boolPtr(true),
			RetainExited: DefaultRetainExited,
		},
		Log: LogConfig{
			File:  "~/.local/state/consolex/consolex.log",
			Level: "info",
		},
		Audit: AuditConfig{
			File: "~/.local/state/consolex/audit.log",
		},
	}
}

// applyDefaults fills zero-valued fields of cfg from Default().
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = def.Server.Listen
	}
	if cfg.Server.ReadHeaderTimeout == "" {
		cfg.Server.ReadHeaderTimeout = def.Server.ReadHeaderTimeout
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Processes.Track == nil {
		cfg.Processes.Track = def.Processes.Track
	}
	if cfg.Processes.RetainExited == 0 {
		cfg.Processes.RetainExited = def.Processes.RetainExited
	}
	if cfg.Log.File == "" {
		cfg.Log.File = def.Log.File
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Audit.File == "" && !cfg.Audit.Disabled {
		cfg.Audit.File = def.Audit.File
	}
}

// ReadHeaderTimeoutDuration returns the parsed server.read_header_timeout, falling
// back to the default for empty or invalid values.
func (s ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return parseDurationOr(s.ReadHeaderTimeout, DefaultReadHeaderTimeout)
}

// ShutdownTimeoutDuration returns the parsed server.shutdown_timeout,
// falling back to the default for empty or invalid values.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDurationOr(s.ShutdownTimeout, DefaultShutdownTimeout)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
