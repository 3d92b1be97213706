package router

import (
	"strings"

	tg "github.com/qemplois/assistant/core/telegram"
	"github.com/qemplois/assistant/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text/media updates.
type TextOptions struct {
	UnknownText      tele.HandlerFunc
	UnsupportedMedia tele.HandlerFunc
}

// TextRoutes builds handlers for text and non-text updates. Text matching a
// registered command or alias runs that command, everything else goes to the
// registry fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		text := c.Text()
		if reg != nil && strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				return handled(c, handlerName(key), cmd.Handler)
			}
		}
		if reg != nil && reg.TextFallback() != nil {
			return handled(c, "fallback", reg.TextFallback())
		}
		if opts.UnknownText != nil {
			return handled(c, "unknown_text", opts.UnknownText)
		}
		return skipped(c, "unknown_text")
	}

	media := func(c tele.Context) error {
		if opts.UnsupportedMedia != nil {
			return handled(c, "unsupported_media", opts.UnsupportedMedia)
		}
		return skipped(c, "unsupported_media")
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrap(handler)}}
	for _, ep := range []string{tele.OnDocument, tele.OnPhoto, tele.OnVoice, tele.OnSticker, tele.OnLocation} {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrap(media)})
	}
	return routes
}
