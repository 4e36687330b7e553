package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewDevelopmentIsTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Dev: true, Output: &buf})
	log.Debug("listing ready", "posts", 3)

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "posts=3") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestNewProductionIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Site: "spacetraveling"})
	log.Debug("hidden")
	log.Info("request", "status", 200)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "request" || rec["status"] != float64(200) || rec["site"] != "spacetraveling" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestInitReplacesGlobal(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	log := Init(Options{Output: &buf})
	if Log != log {
		t.Error("global logger not replaced")
	}
}

func TestNewWithBadSentryDSNFallsBack(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, SentryDSN: "not a dsn"})
	log.Error("boom")
	out := buf.String()
	if !strings.Contains(out, "sentry disabled") || !strings.Contains(out, `"msg":"boom"`) {
		t.Errorf("console handler lost: %q", out)
	}
}
