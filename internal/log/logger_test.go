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

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
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

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf, Level: slog.LevelDebug})
	if logger.Component() != ComponentApp {
		t.Fatalf("default component = %q", logger.Component())
	}

	logger.WithComponent(ComponentRecorder).Info("hello", FieldMood, 4)
	logger.Debug("debugging")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0][FieldComponent] != ComponentRecorder || lines[0][FieldMood] != float64(4) {
		t.Errorf("first line = %v", lines[0])
	}
	if lines[1][FieldComponent] != ComponentApp {
		t.Errorf("second line = %v", lines[1])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: slog.LevelWarn})
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	ctx := context.Background()

	sl.LogMoodRecorded(ctx, 5, 9, "2024-01-01 09:00:00", "'Moods'!A2:C2")
	sl.LogError(ctx, "append failed", errors.New("quota"), ErrorTypeNetwork, ComponentSheets, OpAppend,
		NewFields().WithMood(2, 0))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	rec := lines[0]
	if rec[FieldNoteLength] != float64(9) || rec[FieldRowRef] != "'Moods'!A2:C2" || rec[FieldOperation] != OpAppend {
		t.Errorf("recorded line = %v", rec)
	}
	if _, ok := rec["note"]; ok {
		t.Error("note text must never be logged")
	}
	fail := lines[1]
	if fail[FieldError] != "quota" || fail[FieldErrorType] != ErrorTypeNetwork || fail[FieldComponent] != ComponentSheets {
		t.Errorf("error line = %v", fail)
	}
	if fail["level"] != "ERROR" {
		t.Errorf("level = %v", fail["level"])
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext should fall back to the default logger")
	}
	logger := Nop().WithComponent(ComponentHTTP)
	got := FromContext(NewContext(context.Background(), logger))
	if got != logger {
		t.Fatal("FromContext should return the stored logger")
	}
}
