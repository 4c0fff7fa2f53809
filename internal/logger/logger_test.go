package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetupWithJSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := SetupWith(&buf, "warn", "json")
	l.Info("hidden_event")
	l.Warn("shown_event", "k", 1)
	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden_event") {
		t.Fatalf("info record should be filtered at warn level: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("expected json record, got %q: %v", out, err)
	}
	if rec["msg"] != "shown_event" {
		t.Fatalf("unexpected msg: %v", rec["msg"])
	}
	if L() != l {
		t.Fatalf("L should return the configured logger")
	}
}

func TestWithAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupWith(&buf, "debug", "text")
	With("track").Debug("parsed")
	if !strings.Contains(buf.String(), "component=track") {
		t.Fatalf("expected component attr, got %q", buf.String())
	}
}
