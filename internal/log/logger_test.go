package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Format: FormatJSON, Output: &buf})

	l := base.With(FieldRequestID, "req_1").WithComponent(ComponentLedger)
	l.Info("booked")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if lines[0][FieldComponent] != ComponentLedger {
		t.Errorf("component = %v, want %s", lines[0][FieldComponent], ComponentLedger)
	}
	if lines[0][FieldRequestID] != "req_1" {
		t.Errorf("request_id = %v, want req_1", lines[0][FieldRequestID])
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Errorf("component emitted more than once: %s", buf.String())
	}
	if l.Component() != ComponentLedger {
		t.Errorf("Component() = %q", l.Component())
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got == nil || got.Component() != "unknown" {
		t.Fatalf("fallback logger = %+v", got)
	}

	l := New(Config{Component: ComponentHTTP, Format: FormatJSON, Output: &bytes.Buffer{}})
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext did not return the installed logger")
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentHTTP, Format: FormatJSON, Output: &buf})

	NewStructuredLogger(l).LogError(context.Background(), "Request failed", errors.New("disk full"),
		ComponentStorage, OpCreate, NewFields().WithErrorKind("internal_error"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	got := lines[0]
	want := map[string]any{
		"level":        "ERROR",
		FieldComponent: ComponentStorage,
		FieldOperation: OpCreate,
		FieldError:     "disk full",
		FieldErrorKind: "internal_error",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Format: FormatText, Output: &buf})
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output: %q", out)
	}
}
