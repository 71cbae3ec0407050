package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"text", "json", "pretty", ""} {
		var buf bytes.Buffer
		logger, err := New(&buf, "debug", format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		logger.Debug("turn resolved", "turn", 3)
		if !strings.Contains(buf.String(), "turn resolved") {
			t.Fatalf("%s: output %q", format, buf.String())
		}
	}
	if _, err := New(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Fatalf("unknown format accepted")
	}
	if _, err := New(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Fatalf("unknown level accepted")
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(&buf, "warn", "pretty")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
}

func TestPrettyHandler_Nesting(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil)).
		With("game", "g1").
		WithGroup("agent").
		With("name", "bot")
	logger.Info("agent exited",
		"err", errors.New("broken pipe"),
		"grace", 500*time.Millisecond,
		slog.Group("proc", "pid", 42))

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if got["msg"] != "agent exited" || got["game"] != "g1" || got["level"] != "INFO" {
		t.Fatalf("top level=%v", got)
	}
	agent, ok := got["agent"].(map[string]any)
	if !ok {
		t.Fatalf("agent group missing: %v", got)
	}
	if agent["name"] != "bot" || agent["err"] != "broken pipe" || agent["grace"] != "500ms" {
		t.Fatalf("agent group=%v", agent)
	}
	proc, ok := agent["proc"].(map[string]any)
	if !ok || proc["pid"] != float64(42) {
		t.Fatalf("proc group=%v", agent["proc"])
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatalf("output not indented: %q", buf.String())
	}
}
