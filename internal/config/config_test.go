package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	home := t.TempDir()

	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Rows != 30 {
		t.Errorf("Rows = %d, want 30", cfg.Rows)
	}
	if cfg.RedeemURL != DefaultRedeemURL || cfg.SubmitURL != DefaultSubmitURL {
		t.Errorf("unexpected URLs %q %q", cfg.RedeemURL, cfg.SubmitURL)
	}
	if cfg.Database != filepath.Join(home, "controlcard.db") {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.Scan.WatchDir != filepath.Join(home, "scans") {
		t.Errorf("WatchDir = %q", cfg.Scan.WatchDir)
	}
	if cfg.Timeout() != 15*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	home := filepath.Join(t.TempDir(), "nested")

	cfg := DefaultConfig()
	cfg.Rows = 40
	cfg.SubmitURL = "http://localhost:9999/insert"
	cfg.HTTPTimeout = "3s"
	cfg.Logging.Format = "json"

	if err := SaveConfig(home, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "config.json")); err != nil {
		t.Fatalf("config.json not written: %v", err)
	}

	loaded, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Rows != 40 {
		t.Errorf("Rows = %d, want 40", loaded.Rows)
	}
	if loaded.SubmitURL != "http://localhost:9999/insert" {
		t.Errorf("SubmitURL = %q", loaded.SubmitURL)
	}
	if loaded.Timeout() != 3*time.Second {
		t.Errorf("Timeout = %v", loaded.Timeout())
	}
	if loaded.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q", loaded.Logging.Format)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CONTROLCARD_ROWS", "40")
	t.Setenv("CONTROLCARD_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Rows != 40 {
		t.Errorf("Rows = %d, want 40 from env", cfg.Rows)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug from env", cfg.Logging.Level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero rows", `{"rows": 0}`, "rows"},
		{"bad timeout", `{"httpTimeout": "soon"}`, "httpTimeout"},
		{"bad format", `{"logging": {"format": "xml"}}`, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			if err := os.WriteFile(filepath.Join(home, "config.json"), []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := LoadConfig(home)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(home); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestHome(t *testing.T) {
	t.Setenv(EnvHome, "/tmp/cc-home")
	got, err := Home()
	if err != nil {
		t.Fatalf("Home failed: %v", err)
	}
	if got != "/tmp/cc-home" {
		t.Errorf("Home = %q", got)
	}

	t.Setenv(EnvHome, "")
	got, err = Home()
	if err != nil {
		t.Fatalf("Home failed: %v", err)
	}
	userHome, _ := os.UserHomeDir()
	if got != filepath.Join(userHome, ".controlcard") {
		t.Errorf("Home = %q", got)
	}
}
