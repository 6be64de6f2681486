package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/apex/log"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup(&buf, "info", "json"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	log.WithField("analysis_id", "rec-1").Info("analysis stored")
	log.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["message"] != "analysis stored" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetupRejectsUnknown(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup(&buf, "loud", "text"); err == nil {
		t.Error("expected level error")
	}
	if err := Setup(&buf, "info", "xml"); err == nil {
		t.Error("expected format error")
	}
}
