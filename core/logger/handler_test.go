package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// capture logs through a fresh handler and returns the written lines.
func capture(t *testing.T, f format, fn func(*slog.Logger)) []string {
	t.Helper()
	var buf bytes.Buffer
	w := newAsyncWriter([]io.Writer{&buf}, 1024)
	fn(slog.New(newHandler(slog.LevelDebug, w, f, defaultKeyOrder)))
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestKVKeyOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(Background(), "rid-123"), 42, 7, 9)
	lines := capture(t, formatKV, func(log *slog.Logger) {
		LogEvent(ctx, log.With("component", "app"), slog.LevelInfo, "test.event",
			slog.String("cause", "unit"),
			slog.String("status", "ok"),
		)
	})
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	tokens := strings.Fields(lines[0])
	want := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "cause=unit"}
	if len(tokens) != len(want) {
		t.Fatalf("unexpected tokens: %s", lines[0])
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestJSONRecord(t *testing.T) {
	ctx := WithConversation(WithRID(Background(), "12:34:56"), "whatsapp", "+15145550000")
	lines := capture(t, formatJSON, func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelWarn, "flow.step",
			slog.Duration("duration_ms", 1500*time.Millisecond),
			slog.Any("err", errors.New("boom")),
			slog.String("status", "error"),
			slog.String("outcome", "bogus"),
			slog.String("empty", ""),
			slog.Group("req", slog.Int("size", 3)),
		)
	})
	var got map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("invalid json %q: %v", lines[0], err)
	}
	checks := map[string]any{
		"level":       "WARN",
		"component":   "app",
		"event":       "flow.step",
		"status":      "fail",
		"rid":         "c:y:1k",
		"rid_full":    "12:34:56",
		"platform":    "whatsapp",
		"user":        "+15145550000",
		"duration_ms": float64(1500),
		"err":         "boom",
		"req.size":    float64(3),
	}
	for k, want := range checks {
		if got[k] != want {
			t.Fatalf("%s = %v, want %v (%s)", k, got[k], want, lines[0])
		}
	}
	for _, k := range []string{"outcome", "empty"} {
		if _, ok := got[k]; ok {
			t.Fatalf("%s should be dropped: %s", k, lines[0])
		}
	}
	if !strings.HasPrefix(lines[0], `{"ts":`) {
		t.Fatalf("ts must lead: %s", lines[0])
	}
	if strings.Index(lines[0], `"platform"`) > strings.Index(lines[0], `"user"`) {
		t.Fatalf("platform must precede user: %s", lines[0])
	}
}

func TestKVCompactsRID(t *testing.T) {
	lines := capture(t, formatKV, func(log *slog.Logger) {
		LogEvent(WithRID(Background(), "100:200:300"), log, slog.LevelInfo, "x")
	})
	if !strings.Contains(lines[0], "rid=2s:5k:8c") || strings.Contains(lines[0], "rid_full") {
		t.Fatalf("unexpected line: %s", lines[0])
	}
}

func TestExplicitFieldsWinOverScope(t *testing.T) {
	ctx := WithHandler(WithUpdateMeta(Background(), 1, 2, 3), "start")
	lines := capture(t, formatKV, func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "x", slog.Int64("user_id", 99), slog.String("handler", "aide"))
	})
	if !strings.Contains(lines[0], "user_id=99") || !strings.Contains(lines[0], "handler=aide") {
		t.Fatalf("unexpected line: %s", lines[0])
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	w := newAsyncWriter([]io.Writer{&buf}, 256)
	log := slog.New(newHandler(slog.LevelWarn, w, formatKV, defaultKeyOrder))
	log.Info("hidden")
	log.Error("shown", "msg", `say "hi"`)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `msg="say \"hi\""`) {
		t.Fatalf("unexpected output: %s", out)
	}
}
