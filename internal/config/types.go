// Package config provides the consolex daemon configuration. The
// configuration maps to a single YAML file, by default
// ~/.config/consolex/config.yaml.
package config

// Config is the top-level consolex configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Processes ProcessesConfig `yaml:"processes,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`
	Audit     AuditConfig     `yaml:"audit,omitempty"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Listen            string `yaml:"listen,omitempty"`
	ReadHeaderTimeout string `yaml:"read_header_timeout,omitempty"`
	ShutdownTimeout   string `yaml:"shutdown_timeout,omitempty"`
}

// ProcessesConfig controls supervision of processes started by "open".
type ProcessesConfig struct {
	// Track is a pointer so an explicit false survives merging with defaults.
	Track        *bool `yaml:"track,omitempty"`
	RetainExited int   `yaml:"retain_exited,omitempty"`
}

// LogConfig contains operational logging settings.
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// AuditConfig contains command audit log settings.
type AuditConfig struct {
	File     string `yaml:"file,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Enabled reports whether audit events should be written.
func (a AuditConfig) Enabled() bool {
	return !a.Disabled && a.File != ""
}

// TrackingEnabled reports whether spawned processes are listed in the
// process registry. Defaults to true.
func (p ProcessesConfig) TrackingEnabled() bool {
	return p.Track == nil || *p.Track
}
