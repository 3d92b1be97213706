package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/qemplois/assistant/core/logger"
	"github.com/qemplois/assistant/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes the Send helpers through d. With nil they call the
// Telegram API inline.
func SetDispatcher(d *sender.Dispatcher) { dispatcher.Store(d) }

// deliver queues call on the dispatcher. A full or closed queue degrades to a
// synchronous call so the reply is not lost.
func deliver(ctx context.Context, op string, call func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return call()
	}
	err := d.Enqueue(ctx, op, "sendMessage", call)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return call()
	}
	return err
}

// SendText replies with plain text to the chat of the current update.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	args := make([]any, 0, 1)
	if len(opts) > 0 && opts[0] != nil {
		args = append(args, opts[0])
	}
	return deliver(Context(c), "send.text", func() error { return c.Send(text, args...) })
}

// SendWithMarkup replies with text and a reply keyboard. A nil markup sends
// plain text.
func SendWithMarkup(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if markup == nil {
		return SendText(c, text)
	}
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

// SendTo pushes text to a chat outside any update, for notifications.
func SendTo(ctx context.Context, bot *tele.Bot, to tele.Recipient, text string) error {
	if bot == nil {
		return errors.New("telegram: bot not running")
	}
	return deliver(ctx, "send.push", func() error {
		_, err := bot.Send(to, text)
		return err
	})
}
