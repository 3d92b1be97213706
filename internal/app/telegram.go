package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/flow"
	"github.com/qemplois/assistant/booking/format"
	"github.com/qemplois/assistant/core/logger"
	coretelegram "github.com/qemplois/assistant/core/telegram"
	tghelpers "github.com/qemplois/assistant/core/telegram/helpers"
	"github.com/qemplois/assistant/core/telegram/keyboard"
	"github.com/qemplois/assistant/core/telegram/router"
	tgsender "github.com/qemplois/assistant/core/telegram/sender"
)

// choicesPerRow lays quick replies out on the Telegram keyboard.
const choicesPerRow = 3

func telegramKey(c tele.Context) (booking.Key, bool) {
	user := c.Sender()
	if user == nil {
		return booking.Key{}, false
	}
	return booking.Key{Platform: booking.PlatformTelegram, UserID: strconv.FormatInt(user.ID, 10)}, true
}

// relay hands an update's text to the bot and sends the reply back.
func (a *App) relay(c tele.Context) error {
	key, ok := telegramKey(c)
	if !ok {
		return nil
	}
	ctx := tghelpers.Context(c)
	reply, err := a.bot.HandleText(ctx, key, c.Text())
	if err != nil {
		// the reply already carries a user-facing apology
		logger.Warn(ctx, "tg", "relay",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return tghelpers.SendWithMarkup(c, reply.Text, keyboard.Choices(reply.Choices, choicesPerRow))
}

// sessionStats answers the hidden admin /sessions command.
func (a *App) sessionStats(rt *coretelegram.Runtime) tele.HandlerFunc {
	return func(c tele.Context) error {
		text := "Sessions: stockage externe"
		if n := a.Sessions(); n >= 0 {
			text = fmt.Sprintf("Sessions actives: %d", n)
		}
		if rt.Dispatcher != nil {
			text += fmt.Sprintf("\nEnvois en attente: %d\nEnvois en échec: %d",
				rt.Dispatcher.Pending(), rt.Dispatcher.ErrorCount())
		}
		return tghelpers.SendText(c, text)
	}
}

// telegramNotifier pushes platform notifications to Telegram chats.
type telegramNotifier struct {
	bot *tele.Bot
}

func (n telegramNotifier) Notify(ctx context.Context, userID string, text string) error {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", userID, err)
	}
	return tghelpers.SendTo(ctx, n.bot, &tele.Chat{ID: id}, text)
}

func (a *App) buildRegistry(rt *coretelegram.Runtime) *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	for _, cmd := range flow.Commands {
		c := coretelegram.Command{Handler: a.relay, Description: cmd.Description}
		if cmd.Name == flow.CmdHelp {
			c.Aliases = []string{flow.CmdHelpEN}
		}
		reg.RegisterCommand("/"+cmd.Name, c)
	}
	reg.RegisterCommand("/sessions", coretelegram.Command{
		Handler:     a.sessionStats(rt),
		Description: "Statistiques des sessions",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.SetTextFallback(a.relay)
	return reg
}

// telegramOptions assembles the Telegram runtime: menu commands relay to the
// bot, free text goes through the fallback, media gets a text-only notice.
func (a *App) telegramOptions() coretelegram.RunOptions {
	core := a.cfg.CoreConfig()
	rt := &coretelegram.Runtime{}
	dispatcher := tgsender.NewDispatcher(tgsender.Options{MaxRetries: 2, PerSecond: 25})
	rt.Dispatcher = dispatcher

	reg := a.buildRegistry(rt)
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
		// non-admins get the regular unknown-command answer
		OnAdminReject: a.relay,
	})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		UnsupportedMedia: func(c tele.Context) error {
			return tghelpers.SendText(c, format.TextOnly)
		},
	})...)

	onLimited := func(c tele.Context) error {
		return tghelpers.SendText(c, format.SlowDown)
	}

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Dispatcher:  dispatcher,
		Middlewares: coretelegram.DefaultMiddlewares(core, onLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, started coretelegram.Runtime) error {
			*rt = started
			a.bot.RegisterNotifier(booking.PlatformTelegram, telegramNotifier{bot: started.Bot})
			logger.Info(ctx, "tg", "ready",
				slog.Int("commands", len(reg.Commands())),
			)
			return nil
		},
	}
}
