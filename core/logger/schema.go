package logger

import (
	"log/slog"
	"strings"
)

// Enumerated values accepted for the status and outcome fields. Anything else
// is dropped so dashboards only ever see these.
var (
	statusValues = map[string]string{
		"ok":           "ok",
		"success":      "ok",
		"fail":         "fail",
		"error":        "fail",
		"skip":         "skip",
		"skipped":      "skip",
		"retry":        "retry",
		"rate_limited": "rate_limited",
		"cancelled":    "cancelled",
		"canceled":     "cancelled",
	}
	outcomeValues = map[string]string{
		"sent":    "sent",
		"edited":  "edited",
		"ignored": "ignored",
		"reply":   "reply",
		"stored":  "stored",
		"expired": "expired",
	}
)

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	}
	return "ERROR"
}

func canonical(table map[string]string, v string) (string, bool) {
	out, ok := table[strings.ToLower(strings.TrimSpace(v))]
	return out, ok
}

// defaultKeyOrder ranks the well-known keys. Unknown keys follow in
// alphabetical order.
var defaultKeyOrder = []string{
	// envelope
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	// who
	"update_id", "platform", "user", "user_id", "chat_id", "chat_type",
	// what
	"handler", "op", "outcome", "duration_ms",
	"state", "from", "to", "service", "booking_id", "provider_id", "providers",
	"messages", "kb", "mode", "listen", "public_url", "http_code",
	"db", "host", "port",
	// failure
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms", "rate_limited",
}
