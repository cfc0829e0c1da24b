package config

import (
	"os"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func validConfig() Config {
	cfg := Config{API: APIConfig{URL: "https://api.pollbase.example"}}
	cfg.SetDefaults()
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	cfg := validConfig()
	cfg.API.URL = "not a url"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "must be a valid URL") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateRejectsBadDuration(t *testing.T) {
	cfg := validConfig()
	cfg.API.Timeout = "half an hour"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "duration") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateRejectsBadOutputFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Output.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateUnknownProfileReference(t *testing.T) {
	cfg := validConfig()
	cfg.Profile = "prod"
	cfg.Profiles = map[string]APIConfig{
		"staging": {URL: "https://staging.pollbase.example"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), `"prod" is not defined`) {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateProfileWithoutProfilesSection(t *testing.T) {
	// Selecting a profile with no profiles section only picks the
	// credentials slot; it must not fail validation.
	cfg := validConfig()
	cfg.Profile = "staging"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateProfileEntries(t *testing.T) {
	cfg := validConfig()
	cfg.Profiles = map[string]APIConfig{
		"staging": {URL: "https://staging.pollbase.example", Timeout: "bogus"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for profile timeout")
	}
}
