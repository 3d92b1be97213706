// Package bot is the platform-neutral front of the assistant. Transports hand
// it inbound text and platform events; it answers with text to send back.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/auth"
	"github.com/qemplois/assistant/booking/flow"
	"github.com/qemplois/assistant/booking/format"
	"github.com/qemplois/assistant/core/logger"
)

const component = "bot"

// Conversation runs one booking turn.
type Conversation interface {
	HandleMessage(ctx context.Context, key booking.Key, raw string) (flow.Reply, error)
}

// Notifier delivers a message to a user of one platform.
type Notifier interface {
	Notify(ctx context.Context, userID, text string) error
}

// Bot gates conversations on account linking and fans out platform events.
type Bot struct {
	conv      Conversation
	gate      auth.Gate
	links     format.Links

	mu        sync.RWMutex
	notifiers map[booking.Platform]Notifier
}

// New wires a bot. A nil gate lets everyone through.
func New(conv Conversation, gate auth.Gate, links format.Links) *Bot {
	if gate == nil {
		gate = auth.Open{}
	}
	if links.PaymentFmt == "" {
		links = format.DefaultLinks
	}
	return &Bot{
		conv:      conv,
		gate:      gate,
		links:     links,
		notifiers: make(map[booking.Platform]Notifier),
	}
}

// Gate exposes the identity gate for link callbacks.
func (b *Bot) Gate() auth.Gate { return b.gate }

// RegisterNotifier routes event notifications for platform through n. It is
// safe to call while events are being handled.
func (b *Bot) RegisterNotifier(platform booking.Platform, n Notifier) {
	b.mu.Lock()
	b.notifiers[platform] = n
	b.mu.Unlock()
}

func (b *Bot) notifier(platform booking.Platform) (Notifier, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.notifiers[platform]
	return n, ok
}

// HandleText answers an inbound message. Errors are infrastructure failures;
// the reply then carries format.Unavailable for the user.
func (b *Bot) HandleText(ctx context.Context, key booking.Key, text string) (flow.Reply, error) {
	ctx = logger.WithConversation(ctx, string(key.Platform), key.UserID)

	_, linked, err := b.gate.Linked(ctx, key)
	if err != nil {
		logger.Error(ctx, component, "auth.check",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return flow.Reply{Text: format.Unavailable}, fmt.Errorf("bot: auth check: %w", err)
	}
	if !linked {
		return b.unlinked(ctx, key, text)
	}

	reply, err := b.conv.HandleMessage(ctx, key, text)
	if err != nil {
		logger.Error(ctx, component, "turn",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return flow.Reply{Text: format.Unavailable}, err
	}
	return reply, nil
}

func (b *Bot) unlinked(ctx context.Context, key booking.Key, text string) (flow.Reply, error) {
	name, _, isCmd := flow.ParseCommand(strings.ToLower(text))
	if !isCmd || name != flow.CmdStart {
		return flow.Reply{Text: format.AuthPrompt}, nil
	}
	link, err := b.gate.LinkURL(ctx, key)
	if err != nil {
		logger.Error(ctx, component, "auth.link",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return flow.Reply{Text: format.Unavailable}, fmt.Errorf("bot: issue link: %w", err)
	}
	logger.Info(ctx, component, "auth.link", slog.String("status", "ok"))
	return flow.Reply{Text: format.AuthRequired(link)}, nil
}
