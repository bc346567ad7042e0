package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncCron != "*/15 * * * *" {
		t.Fatalf("SyncCron=%q, want the default schedule", cfg.SyncCron)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm=%o, want 0600", info.Mode().Perm())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := &Config{
		DBPath:         "/tmp/custom.db",
		GoogleClientID: "client-123",
		GeminiAPIKey:   "gm-key",
		SyncCron:       "0 * * * *",
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DBPath != want.DBPath || got.GoogleClientID != want.GoogleClientID ||
		got.GeminiAPIKey != want.GeminiAPIKey || got.SyncCron != want.SyncCron {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvGoogleClientID, "env-client")
	t.Setenv(EnvGeminiAPIKey, "env-gemini")

	cfg := &Config{GoogleClientID: "file-client"}
	cfg.Normalize()
	if cfg.GoogleClientID != "env-client" {
		t.Fatalf("GoogleClientID=%q, want the env override", cfg.GoogleClientID)
	}
	if cfg.GeminiAPIKey != "env-gemini" {
		t.Fatalf("GeminiAPIKey=%q, want the env override", cfg.GeminiAPIKey)
	}
	if cfg.SyncCron == "" {
		t.Fatal("Normalize should fill the default schedule")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte(":\n\t- bad"), 0o600)

	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject malformed YAML")
	}
}
