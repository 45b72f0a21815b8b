package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port: want=8080 got=%q", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("ttl: want=24h got=%v", cfg.TokenTTL)
	}
	if cfg.StorageMode != "local" {
		t.Fatalf("storage mode: want=local got=%q", cfg.StorageMode)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := "port: \"9090\"\ntoken_ttl_seconds: 3600\nstorage_mode: gcs\ngcs_bucket: training-media\n"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVICE_NAME", "from-env")

	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port overlay: want=9090 got=%q", cfg.Port)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("ttl overlay: want=1h got=%v", cfg.TokenTTL)
	}
	if cfg.StorageMode != "gcs" || cfg.GCSBucket != "training-media" {
		t.Fatalf("storage overlay: mode=%q bucket=%q", cfg.StorageMode, cfg.GCSBucket)
	}
	// Keys absent from the file keep their env values.
	if cfg.ServiceName != "from-env" {
		t.Fatalf("service name: want=from-env got=%q", cfg.ServiceName)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("port: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := LoadConfig(logger.NewNop()); err == nil {
		t.Fatal("malformed config file should fail")
	}
}
