package middleware

import (
	"log/slog"
	"strconv"

	coreconfig "github.com/qemplois/assistant/core/config"
	"github.com/qemplois/assistant/core/logger"
	"github.com/qemplois/assistant/core/ratelimit"
	tghelpers "github.com/qemplois/assistant/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimitMiddleware. Exclude holds update kinds
// (see the coreconfig.Update* constants) that bypass the limiter.
type RateLimitOptions struct {
	Limiter   *ratelimit.Keyed
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

func updateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return coreconfig.UpdateCallback
	case u.Query != nil:
		return coreconfig.UpdateInlineQuery
	case u.Message != nil:
		return coreconfig.UpdateMessage
	}
	return "other"
}

// RateLimitMiddleware gives every sender a token bucket. Throttled updates
// are answered by OnLimited and go no further.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if opts.Limiter == nil || user == nil {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if opts.Limiter.Allow(strconv.FormatInt(user.ID, 10)) {
				return next(c)
			}
			logger.Warn(tghelpers.Context(c), "tg", "tg.rate_limit", slog.String("status", "rate_limited"))
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
