package bot

import (
	"context"
	"log/slog"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/format"
	"github.com/qemplois/assistant/core/logger"
)

// Platform event names.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// ProviderRef identifies the provider to alert.
type ProviderRef struct {
	ID string `json:"id"`
}

// ConfirmedBooking is the booking.confirmed payload.
type ConfirmedBooking struct {
	format.ClientBooking
	ClientID string `json:"client_id"`
}

// Event is a booking lifecycle notification pushed by the platform.
type Event struct {
	Event string `json:"event"`
	// Platform selects the chat network to deliver on. Empty means the
	// result is only returned to the caller.
	Platform  booking.Platform `json:"platform,omitempty"`
	Provider  ProviderRef      `json:"provider"`
	Job       format.Job       `json:"job"`
	Booking   ConfirmedBooking `json:"booking"`
	ClientID  string           `json:"client_id"`
	BookingID string           `json:"booking_id"`
}

// Notification is the message produced for an event.
type Notification struct {
	Recipient string   `json:"user_id,omitempty"`
	Message   string   `json:"message,omitempty"`
	Actions   []string `json:"actions,omitempty"`
	Status    string   `json:"status,omitempty"`
	Delivered bool     `json:"delivered,omitempty"`
}

// Ignored reports whether the event had no handler.
func (n Notification) Ignored() bool { return n.Status == "ignored" }

// HandleEvent formats ev and, when a notifier is registered for its platform,
// delivers it. Delivery failures are logged, not returned.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) Notification {
	var n Notification
	switch ev.Event {
	case EventBookingCreated:
		n = Notification{
			Recipient: ev.Provider.ID,
			Message:   format.JobAlert(ev.Job),
			Actions:   []string{"accept", "decline"},
		}
	case EventBookingConfirmed:
		n = Notification{
			Recipient: ev.Booking.ClientID,
			Message:   format.ClientConfirmed(ev.Booking.ClientBooking, b.links),
		}
	case EventBookingCancelled:
		n = Notification{
			Recipient: ev.ClientID,
			Message:   format.Cancelled(ev.BookingID),
		}
	default:
		logger.Debug(ctx, component, "event.ignored", slog.String("op", ev.Event))
		return Notification{Status: "ignored"}
	}

	notifier, ok := b.notifier(ev.Platform)
	if !ok || n.Recipient == "" {
		return n
	}
	if err := notifier.Notify(ctx, n.Recipient, n.Message); err != nil {
		logger.Warn(ctx, component, "event.deliver",
			slog.String("op", ev.Event),
			slog.String("platform", string(ev.Platform)),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return n
	}
	n.Delivered = true
	logger.Info(ctx, component, "event.deliver",
		slog.String("op", ev.Event),
		slog.String("platform", string(ev.Platform)),
		slog.String("status", "ok"),
	)
	return n
}
