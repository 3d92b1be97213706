package telegram

import (
	"time"

	coreconfig "github.com/qemplois/assistant/core/config"
	"github.com/qemplois/assistant/core/ratelimit"
	"github.com/qemplois/assistant/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares is the global chain, outermost first: panic recovery,
// per-user rate limiting when rate_limit.interval_ms is set, the update log
// line and reply counters. onLimited answers throttled updates.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	chain := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}
	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		rl := cfg.RateLimit
		exclude := make(map[string]struct{}, len(rl.ExcludeUpdates))
		for _, kind := range rl.ExcludeUpdates {
			exclude[kind] = struct{}{}
		}
		chain = append(chain, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Limiter:   ratelimit.New(time.Duration(rl.IntervalMS)*time.Millisecond, rl.Burst),
				Exclude:   exclude,
				OnLimited: onLimited,
			}),
		})
	}
	return append(chain,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}
