package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/format"
	"github.com/qemplois/assistant/core/logger"
)

// bookingsShown caps the /mesreservations listing.
const bookingsShown = 5

// Command names understood in any state.
const (
	CmdStart     = "start"
	CmdHelp      = "aide"
	CmdHelpEN    = "help"
	CmdBookings  = "mesreservations"
	CmdCancel    = "annuler"
	CmdProfile   = "profil"
	CmdBecomePro = "devenirpro"
)

// Commands lists the user-facing commands with their menu descriptions.
var Commands = []struct {
	Name        string
	Description string
}{
	{CmdStart, "Commencer une réservation"},
	{CmdHelp, "Afficher l'aide"},
	{CmdBookings, "Voir mes réservations"},
	{CmdCancel, "Annuler une réservation"},
	{CmdProfile, "Mon profil"},
	{CmdBecomePro, "Devenir prestataire"},
}

// ParseCommand splits "/annuler@qemplois_bot 12" into ("annuler", "12").
// It reports false when text is not a command.
func ParseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, args, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(args), true
}

// command handles slash commands before state dispatch. Only /start touches
// the session.
func (e *Engine) command(ctx context.Context, key booking.Key, text string) (Reply, error) {
	name, _, _ := ParseCommand(text)
	logger.Debug(ctx, component, "command",
		slog.String("op", name),
	)
	links := e.cfg.Links

	switch name {
	case CmdStart:
		return e.restart(ctx, key)
	case CmdHelp, CmdHelpEN:
		return Reply{Text: format.Help()}, nil
	case CmdBookings:
		return e.bookings(ctx, key), nil
	case CmdCancel:
		return Reply{Text: format.CancelInfo(links)}, nil
	case CmdProfile:
		return Reply{Text: format.ProfileInfo(links)}, nil
	case CmdBecomePro:
		return Reply{Text: format.BecomeProInfo(links)}, nil
	}
	return Reply{Text: format.UnknownCommand()}, nil
}

func (e *Engine) restart(ctx context.Context, key booking.Key) (Reply, error) {
	from := booking.StateIdle
	if old, ok, err := e.deps.Store.Get(ctx, key); err == nil && ok {
		from = old.State
	}
	if err := e.deps.Store.Delete(ctx, key); err != nil {
		return Reply{}, fmt.Errorf("flow: reset session %s: %w", key, err)
	}
	s := booking.NewSession(key)
	s.State = booking.StateAskService
	if err := e.deps.Store.Put(ctx, s); err != nil {
		return Reply{}, fmt.Errorf("flow: save session %s: %w", key, err)
	}
	transition(ctx, from, s.State)
	return welcome(), nil
}

func (e *Engine) bookings(ctx context.Context, key booking.Key) Reply {
	if e.deps.Ledger == nil {
		return Reply{Text: format.Bookings(nil)}
	}
	var recs []booking.Record
	err := guard(func() error {
		var err error
		recs, err = e.deps.Ledger.ListByUser(ctx, key, bookingsShown)
		return err
	})
	if err != nil {
		logger.Error(ctx, component, "ledger.list",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return Reply{Text: format.BookingsUnavailable}
	}
	return Reply{Text: format.Bookings(recs)}
}
