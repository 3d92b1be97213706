package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coreconfig "github.com/qemplois/assistant/core/config"
	"github.com/qemplois/assistant/core/logger"
	"github.com/qemplois/assistant/core/netutil"
	tghelpers "github.com/qemplois/assistant/core/telegram/helpers"
	tgsender "github.com/qemplois/assistant/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a global handler decorator installed with bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint: a command string or one of
// the tele.On* constants.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher carries outbound sends. When nil one is built from
	// DispatcherOptions and owned by RunTelegram.
	Dispatcher        *tgsender.Dispatcher
	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to see of a running bot.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram starts the bot and blocks until ctx is cancelled or the poller
// stops on its own. Cancellation is a clean exit.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if !opts.Config.Telegram.Enabled() {
		return errors.New("telegram: bot token is required")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(opts.Dispatcher)
	defer func() {
		opts.Dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	bot, err := newBot(ctx, opts.Config)
	if err != nil {
		return err
	}
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, opts.Registry)

	rt := Runtime{Bot: bot, Dispatcher: opts.Dispatcher, Registry: opts.Registry}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-stopped
	case <-stopped:
	}

	if opts.OnStop != nil {
		return opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	return nil
}

// newBot builds the telebot client for the configured run mode. Long polling
// first clears any webhook left over from an earlier webhook deployment.
func newBot(ctx context.Context, cfg *coreconfig.Config) (*tele.Bot, error) {
	start := time.Now()
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
			Secret: cfg.Webhook.Secret,
		},
	})
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: netutil.NewClient(netutil.ClientOptions{}),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	attrs := []slog.Attr{slog.Int64("duration_ms", logger.Took(start).Milliseconds())}
	switch p := poller.(type) {
	case *tele.Webhook:
		attrs = append(attrs,
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	case *tele.LongPoller:
		attrs = append(attrs,
			slog.String("mode", "polling"),
			slog.Int64("timeout_seconds", int64(p.Timeout/time.Second)),
		)
		if strings.EqualFold(cfg.Telegram.RunMode, coreconfig.RunModeLongpoll) {
			status := "ok"
			if err := bot.RemoveWebhook(false); err != nil {
				status = "fail"
				logger.Warn(ctx, "tg", "delete_webhook", slog.String("err", err.Error()))
			}
			attrs = append(attrs, slog.String("status", status))
		}
	}
	logger.Info(ctx, "tg", "mode", attrs...)
	return bot, nil
}
