package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	if cfg.API.Timeout != "30s" {
		t.Errorf("expected timeout 30s, got %q", cfg.API.Timeout)
	}
	if cfg.API.ExpiryBuffer != "5m" {
		t.Errorf("expected expiry buffer 5m, got %q", cfg.API.ExpiryBuffer)
	}
	if cfg.Output.Format != "table" {
		t.Errorf("expected table output, got %q", cfg.Output.Format)
	}
	if cfg.Cache.TTL != "5m" {
		t.Errorf("expected cache ttl 5m, got %q", cfg.Cache.TTL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected log level warn, got %q", cfg.LogLevel)
	}
	if cfg.Audit.RetentionDays != 30 || cfg.Audit.MaxFileSizeMB != 50 || cfg.Audit.CacheSize != 500 {
		t.Errorf("unexpected audit defaults: %+v", cfg.Audit)
	}
	if cfg.CredentialsPath == "" || !strings.Contains(cfg.CredentialsPath, ".pollbase") {
		t.Errorf("unexpected credentials path: %q", cfg.CredentialsPath)
	}
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		API:    APIConfig{Timeout: "10s"},
		Output: OutputConfig{Format: "json"},
	}
	cfg.SetDefaults()

	if cfg.API.Timeout != "10s" {
		t.Errorf("explicit timeout overwritten: %q", cfg.API.Timeout)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("explicit format overwritten: %q", cfg.Output.Format)
	}
}

func TestActiveWithoutProfile(t *testing.T) {
	cfg := Config{API: APIConfig{URL: "https://api.example.org", Timeout: "30s"}}

	api, name := cfg.Active()
	if name != "default" {
		t.Errorf("expected default profile name, got %q", name)
	}
	if api.URL != "https://api.example.org" {
		t.Errorf("unexpected URL: %q", api.URL)
	}
}

func TestActiveProfileInheritsBaseFields(t *testing.T) {
	cfg := Config{
		API:     APIConfig{URL: "https://api.example.org", Timeout: "30s", ExpiryBuffer: "5m"},
		Profile: "staging",
		Profiles: map[string]APIConfig{
			"staging": {URL: "https://staging.example.org"},
		},
	}

	api, name := cfg.Active()
	if name != "staging" {
		t.Errorf("expected staging, got %q", name)
	}
	if api.URL != "https://staging.example.org" {
		t.Errorf("profile URL not used: %q", api.URL)
	}
	if api.Timeout != "30s" || api.ExpiryBuffer != "5m" {
		t.Errorf("base fields not inherited: %+v", api)
	}
}

func TestFindConfigFileInPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pollbase.yaml")
	writeFile(t, path, "api:\n  url: https://api.example.org\n")

	if got := findConfigFileInPaths([]string{t.TempDir(), dir}); got != path {
		t.Errorf("expected %q, got %q", path, got)
	}
	if got := findConfigFileInPaths([]string{t.TempDir()}); got != "" {
		t.Errorf("expected no match, got %q", got)
	}
}
