package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_DefaultsWithoutFile(t *testing.T) {
	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))

	if cfg.Station.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Station.Addr)
	}
	if cfg.Scan.KeyGap != 100*time.Millisecond {
		t.Fatalf("expected 100ms key gap, got %s", cfg.Scan.KeyGap)
	}
	if cfg.Scan.HistoryCap != 10 {
		t.Fatalf("expected history cap 10, got %d", cfg.Scan.HistoryCap)
	}
	if cfg.Scan.IdleTimeout != time.Minute {
		t.Fatalf("expected idle timeout 1m, got %s", cfg.Scan.IdleTimeout)
	}
	if cfg.Scan.ExportMode != "blob" {
		t.Fatalf("expected blob export mode, got %q", cfg.Scan.ExportMode)
	}
}

func TestLoadFile_ReadsYAMLAndClampsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pickstation.yaml")
	body := []byte(`
backend:
  base_url: "http://backend.local/"
scan:
  history_cap: 500
  export_mode: JSON
  key_gap: 80ms
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadFile(path)
	if cfg.Backend.BaseURL != "http://backend.local" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Scan.HistoryCap != 50 {
		t.Fatalf("expected history cap clamped to 50, got %d", cfg.Scan.HistoryCap)
	}
	if cfg.Scan.ExportMode != "json" {
		t.Fatalf("expected json export mode, got %q", cfg.Scan.ExportMode)
	}
	if cfg.Scan.KeyGap != 80*time.Millisecond {
		t.Fatalf("expected 80ms key gap, got %s", cfg.Scan.KeyGap)
	}
}

func TestLoadFile_AppAddrOverride(t *testing.T) {
	t.Setenv("APP_ADDR", "127.0.0.1:9999")
	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg.Station.Addr != "127.0.0.1:9999" {
		t.Fatalf("expected APP_ADDR override, got %q", cfg.Station.Addr)
	}
}
