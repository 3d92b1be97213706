package middleware

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/qemplois/assistant/core/logger"
	tghelpers "github.com/qemplois/assistant/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers the most recent update ids so an update routed
// through several wrapped handlers is logged once.
type seenUpdates struct {
	mu   sync.Mutex
	ring [128]int
	next int
}

func (s *seenUpdates) first(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.ring[:], id) {
		return false
	}
	s.ring[s.next] = id
	s.next = (s.next + 1) % len(s.ring)
	return true
}

var received seenUpdates

// LoggerMiddleware prepares the update's logging context and logs a sampled
// receipt line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.Context(c)
		ids := tghelpers.IdsOf(c)
		if ids.Update == 0 || !logger.ShouldSampleDebug() || !received.first(ids.Update) {
			return next(c)
		}
		attrs := []slog.Attr{slog.String("status", "ok")}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if user := c.Sender(); user != nil {
			if user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			if user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
		}
		if text := c.Text(); text != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(text, 256)))
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)
		return next(c)
	}
}
