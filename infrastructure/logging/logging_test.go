package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONCarriesStationAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", StationID: "kiosk-3", Output: &buf})
	logger.Info("scan submitted")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if entry["station"] != "kiosk-3" {
		t.Fatalf("expected station attr, got %v", entry["station"])
	}
	if entry["service"] != "pickstation" {
		t.Fatalf("expected service attr, got %v", entry["service"])
	}
	ts, _ := entry["time"].(string)
	if !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected UTC RFC3339 time, got %q", ts)
	}
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "text", Output: &buf})
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("expected warn line, got %q", buf.String())
	}
}
