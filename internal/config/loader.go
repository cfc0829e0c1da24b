package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, it searches for pollbase.yaml/.yml in
// standard locations. The search requires an explicit YAML extension so the
// pollbase binary itself is never matched in the current directory.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file found in any standard location. Set name/type
		// without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by LoadConfig).
		viper.SetConfigName("pollbase")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: POLLBASE_API_URL overrides api.url.
	viper.SetEnvPrefix("POLLBASE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a pollbase config file
// with an explicit YAML extension (.yaml or .yml).
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".pollbase"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "pollbase"))
		}
	} else {
		paths = append(paths, "/etc/pollbase")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for pollbase.yaml or
// .yml and returns the first match, or empty string if none is found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "pollbase"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds nested config keys for environment variable
// support. Example: POLLBASE_API_URL overrides api.url.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("api.url")
	_ = viper.BindEnv("api.timeout")
	_ = viper.BindEnv("api.expiry_buffer")

	_ = viper.BindEnv("profile")
	// Note: profiles is a map, complex to override via env.
	// Users should use the config file for profile definitions.

	_ = viper.BindEnv("output.format")

	_ = viper.BindEnv("cache.path")
	_ = viper.BindEnv("cache.ttl")

	_ = viper.BindEnv("audit.dir")
	_ = viper.BindEnv("audit.retention_days")
	_ = viper.BindEnv("audit.max_file_size_mb")

	_ = viper.BindEnv("credentials_path")
	_ = viper.BindEnv("log_level")
}

// LoadConfig reads the configuration file, applies environment overrides
// and defaults, validates, and returns the Config. A missing config file is
// not an error; the CLI then runs on env vars and flags alone.
func LoadConfig() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was
// loaded, or an empty string in env-vars-only mode.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
