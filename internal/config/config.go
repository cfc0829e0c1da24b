// Package config provides configuration types for the Pollbase CLI.
//
// Configuration is file-based (pollbase.yaml) with environment variable
// overrides under the POLLBASE_ prefix. Named profiles let one machine talk
// to several Pollbase deployments; each profile keeps its own token in the
// credentials file.
package config

import (
	"os"
	"path/filepath"
)

// Config is the top-level configuration for the Pollbase CLI.
type Config struct {
	// API configures the default Pollbase deployment. A selected profile
	// overrides these values.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Profile selects the active profile by name. Empty means the bare
	// API section is used with the "default" credentials slot.
	Profile string `yaml:"profile" mapstructure:"profile"`

	// Profiles defines named API targets (staging, prod, ...).
	Profiles map[string]APIConfig `yaml:"profiles" mapstructure:"profiles" validate:"omitempty,dive"`

	// Output configures how command results are rendered.
	Output OutputConfig `yaml:"output" mapstructure:"output"`

	// Cache configures the local response cache used by --cached reads.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Audit configures the local audit trail of admin mutations.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// CredentialsPath is where session tokens are persisted.
	// Defaults to ~/.pollbase/credentials.json.
	CredentialsPath string `yaml:"credentials_path" mapstructure:"credentials_path"`

	// LogLevel sets the minimum log level: "debug", "info", "warn", "error".
	// Defaults to "warn"; a CLI mostly wants quiet logs.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// APIConfig describes one Pollbase deployment.
type APIConfig struct {
	// URL is the API base URL (e.g., "https://api.pollbase.example").
	URL string `yaml:"url" mapstructure:"url" validate:"omitempty,url"`

	// Timeout is the per-request timeout (e.g., "30s").
	// Defaults to "30s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`

	// ExpiryBuffer is how long before token expiry a refresh is triggered
	// (e.g., "5m"). Defaults to "5m".
	ExpiryBuffer string `yaml:"expiry_buffer" mapstructure:"expiry_buffer" validate:"omitempty,duration"`
}

// OutputConfig configures result rendering.
type OutputConfig struct {
	// Format is the default output format: "json", "yaml", or "table".
	// Defaults to "table". The -o flag overrides it per invocation.
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json yaml table"`
}

// CacheConfig configures the sqlite response cache.
type CacheConfig struct {
	// Path is the cache database file.
	// Defaults to ~/.pollbase/cache.db.
	Path string `yaml:"path" mapstructure:"path"`

	// TTL is how long cached responses stay valid (e.g., "5m").
	// Defaults to "5m".
	TTL string `yaml:"ttl" mapstructure:"ttl" validate:"omitempty,duration"`
}

// AuditConfig configures the local audit trail.
type AuditConfig struct {
	// Dir is the directory where audit files are stored.
	// Defaults to ~/.pollbase/audit.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// RetentionDays is the number of days to keep audit files.
	// Defaults to 30.
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days" validate:"omitempty,min=1"`

	// MaxFileSizeMB is the maximum size per audit file in megabytes before
	// rotation. Defaults to 50.
	MaxFileSizeMB int `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb" validate:"omitempty,min=1"`

	// CacheSize is the number of recent audit entries kept in memory.
	// Defaults to 500.
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size" validate:"omitempty,min=1"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	if c.API.Timeout == "" {
		c.API.Timeout = "30s"
	}
	if c.API.ExpiryBuffer == "" {
		c.API.ExpiryBuffer = "5m"
	}
	if c.Output.Format == "" {
		c.Output.Format = "table"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "5m"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = 30
	}
	if c.Audit.MaxFileSizeMB == 0 {
		c.Audit.MaxFileSizeMB = 50
	}
	if c.Audit.CacheSize == 0 {
		c.Audit.CacheSize = 500
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	if c.CredentialsPath == "" {
		c.CredentialsPath = filepath.Join(home, ".pollbase", "credentials.json")
	}
	if c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(home, ".pollbase", "cache.db")
	}
	if c.Audit.Dir == "" {
		c.Audit.Dir = filepath.Join(home, ".pollbase", "audit")
	}
}

// Active returns the API settings for the selected profile, falling back to
// the bare API section field by field, plus the profile name used for
// credential storage.
func (c *Config) Active() (APIConfig, string) {
	name := c.Profile
	if name == "" {
		return c.API, "default"
	}
	api, ok := c.Profiles[name]
	if !ok {
		return c.API, name
	}
	if api.URL == "" {
		api.URL = c.API.URL
	}
	if api.Timeout == "" {
		api.Timeout = c.API.Timeout
	}
	if api.ExpiryBuffer == "" {
		api.ExpiryBuffer = c.API.ExpiryBuffer
	}
	return api, name
}
