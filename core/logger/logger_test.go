package logger

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestSampler(t *testing.T) {
	var s sampler
	s.set(parseRatio("1/4"))
	hits := 0
	for i := 0; i < 40; i++ {
		if s.allow() {
			hits++
		}
	}
	if hits != 10 {
		t.Fatalf("hits = %d, want 10", hits)
	}
	s.set(parseRatio("off"))
	if !s.allow() {
		t.Fatal("disabled sampler must admit")
	}
}

func TestParseRatio(t *testing.T) {
	cases := map[string][2]int{
		"":      {1, 50},
		"10":    {1, 10},
		"2/7":   {2, 7},
		"0":     {0, 0},
		"junk":  {1, 50},
		"-1/3":  {1, 50},
		" 1/5 ": {1, 5},
	}
	for in, want := range cases {
		n, d := parseRatio(in)
		if n != want[0] || d != want[1] {
			t.Fatalf("parseRatio(%q) = %d/%d, want %v", in, n, d, want)
		}
	}
}

func TestAsyncWriterOrderAndClose(t *testing.T) {
	var buf bytes.Buffer
	w := newAsyncWriter([]io.Writer{&buf}, 16)
	for i := 0; i < 50; i++ {
		if err := w.Write([]byte("line\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := strings.Count(buf.String(), "line\n"); got != 50 {
		t.Fatalf("flushed %d lines, want 50", got)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Write([]byte("late\n")); err != errWriterClosed {
		t.Fatalf("write after close = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush after close: %v", err)
	}
}

func TestContextScope(t *testing.T) {
	ctx := WithRID(nil, " r1 ")
	ctx = WithUpdateMeta(ctx, 5, 6, 7)
	ctx = WithConversation(ctx, "telegram", "6")
	ctx = WithConversation(ctx, "", "")
	ctx = WithHandler(ctx, "")
	if RIDFrom(ctx) != "r1" || UpdateIDFrom(ctx) != 5 || UserIDFrom(ctx) != 6 || ChatIDFrom(ctx) != 7 {
		t.Fatalf("unexpected scope %+v", scopeOf(ctx))
	}
	if s := scopeOf(ctx); s.platform != "telegram" || s.user != "6" || s.handler != "" {
		t.Fatalf("unexpected scope %+v", s)
	}
	if FromContext(ctx) != L {
		t.Fatal("expected package logger fallback")
	}
}

func TestTextHelpers(t *testing.T) {
	if got := SanitizeLimit("héllo\x00\u200b wörld", 7); got != "héllo w" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := BuildRID(1, -2, 3); got != "1:-2:3" {
		t.Fatalf("BuildRID = %q", got)
	}
	if got := CompactRID("1:-2:3"); got != "1:-2:3" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("a:b"); got != "a:b" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := RoundMS(1499 * time.Microsecond); got != time.Millisecond {
		t.Fatalf("RoundMS = %v", got)
	}
	if s, cut := SummarizeStrings([]string{"a", "b", "c"}, 2); s != "a, b" || !cut {
		t.Fatalf("SummarizeStrings = %q,%v", s, cut)
	}
}
