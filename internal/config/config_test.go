package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Capture.AssetTimeout != 3*time.Second {
		t.Fatalf("expected 3s asset timeout, got %s", cfg.Capture.AssetTimeout)
	}
	if cfg.Capture.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Capture.MaxAttempts)
	}
	if cfg.Capture.BackoffUnit != 2*time.Second {
		t.Fatalf("expected 2s backoff unit, got %s", cfg.Capture.BackoffUnit)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	body := []byte("port: \"9000\"\nassociation_name: Physics Society\ncapture:\n  attempt_timeout: 30s\n  max_attempts: 5\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9100" {
		t.Fatalf("env should win over file, got port %q", cfg.Port)
	}
	if cfg.AssociationName != "Physics Society" {
		t.Fatalf("unexpected association %q", cfg.AssociationName)
	}
	if cfg.Capture.AttemptTimeout != 30*time.Second || cfg.Capture.MaxAttempts != 5 {
		t.Fatalf("file capture settings not applied: %+v", cfg.Capture)
	}
	if cfg.Capture.AssetTimeout != 3*time.Second {
		t.Fatalf("unset file keys should keep defaults, got %s", cfg.Capture.AssetTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestValidateRejectsZeroAttempts(t *testing.T) {
	cfg := Defaults()
	cfg.Capture.MaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ASSET_TIMEOUT", "soon")
	t.Setenv("JPEG_QUALITY", "high")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Capture.AssetTimeout != 3*time.Second || cfg.Capture.JPEGQuality != 92 {
		t.Fatalf("expected fallbacks, got %+v", cfg.Capture)
	}
}

func TestMaxScale(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MAX_SCALE", "2.5")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Capture.MaxScale != 2.5 {
		t.Fatalf("expected max scale 2.5, got %v", cfg.Capture.MaxScale)
	}

	cfg.Capture.MaxScale = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for max scale below 1")
	}
}
