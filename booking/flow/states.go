package flow

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/format"
	"github.com/qemplois/assistant/booking/parse"
	"github.com/qemplois/assistant/core/logger"
)

var (
	greetings   = []string{"bonjour", "salut", "hey", "hello", "hi", "coucou"}
	changeDate  = []string{"autre", "autres", "changer", "autre date"}
	affirmative = []string{"oui", "yes", "ok", "daccord", "d'accord", "confirmer"}
	negative    = []string{"non", "no", "annuler", "cancel"}
)

func oneOf(text string, words []string) bool {
	for _, w := range words {
		if text == w {
			return true
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func serviceChoices() []string {
	out := make([]string, 0, len(booking.Catalog))
	for _, s := range booking.Catalog {
		out = append(out, s.Label())
	}
	return out
}

func welcome() Reply {
	return Reply{Text: format.Welcome(), Choices: serviceChoices()}
}

func providerChoices(n int) []string {
	if n == 0 {
		return []string{"oui", "non"}
	}
	out := make([]string, 0, n+1)
	for i := 1; i <= n; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return append(out, "autre")
}

func (e *Engine) idle(s *booking.Session, text string) (Reply, bool) {
	if containsAny(text, greetings) {
		s.State = booking.StateAskService
		return welcome(), true
	}
	if _, ok := booking.MatchService(text); ok {
		s.State = booking.StateAskService
		return e.askService(s, text)
	}
	return welcome(), false
}

func (e *Engine) askService(s *booking.Session, text string) (Reply, bool) {
	svc, ok := booking.ServiceByKey(text)
	if !ok {
		svc, ok = booking.MatchService(text)
	}
	if !ok {
		return Reply{Text: format.ServiceReprompt, Choices: serviceChoices()}, false
	}
	s.Service = svc.ID
	s.State = booking.StateAskDate
	return Reply{Text: format.ServiceChosen(svc), Choices: []string{"aujourd'hui", "demain", "après-demain"}}, true
}

func (e *Engine) askDate(s *booking.Session, text string) (Reply, bool) {
	d, ok := parse.Date(text, e.now())
	if !ok {
		return Reply{Text: format.DateReprompt}, false
	}
	s.Date = &d
	s.State = booking.StateAskTime
	return Reply{Text: format.DateChosen(s)}, true
}

func (e *Engine) askTime(s *booking.Session, text string) (Reply, bool) {
	c, ok := parse.TimeOfDay(text)
	if !ok {
		return Reply{Text: format.TimeReprompt}, false
	}
	s.Time = &c
	s.State = booking.StateAskLocation
	return Reply{Text: format.TimeChosen(s)}, true
}

func (e *Engine) askLocation(ctx context.Context, s *booking.Session, raw string) (Reply, bool) {
	if !parse.IsAddress(raw) {
		return Reply{Text: format.AddressReprompt}, false
	}
	geo := e.geocode(ctx, raw)
	s.Location = &booking.Location{
		Raw:         raw,
		Lat:         geo.Lat,
		Lng:         geo.Lng,
		DisplayName: geo.DisplayName,
		Found:       geo.Found,
	}
	s.State = booking.StateSearchingProviders
	transition(ctx, booking.StateAskLocation, s.State)
	return e.search(ctx, s), true
}

// search replaces the provider list and any selection derived from the old one.
func (e *Engine) search(ctx context.Context, s *booking.Session) Reply {
	s.ClearSearch()
	s.Providers = e.searchProviders(ctx, s)
	s.State = booking.StateShowProviders
	logger.Info(ctx, component, "providers.found",
		slog.String("service", string(s.Service)),
		slog.Int("providers", len(s.Providers)),
	)
	return Reply{Text: format.ProviderList(s), Choices: providerChoices(len(s.Providers))}
}

func (e *Engine) showProviders(s *booking.Session, text string) (Reply, bool) {
	n := len(s.Providers)
	if oneOf(text, changeDate) || (n == 0 && oneOf(text, affirmative)) {
		s.ClearSearch()
		s.Date = nil
		s.Time = nil
		s.State = booking.StateAskDate
		return Reply{Text: format.NewDatePrompt, Choices: []string{"aujourd'hui", "demain", "après-demain"}}, true
	}
	if n == 0 {
		if oneOf(text, negative) {
			return Reply{Text: format.RetryDeclined}, false
		}
		return Reply{Text: format.EmptyListPrompt, Choices: providerChoices(0)}, false
	}
	pick, err := strconv.Atoi(text)
	if err != nil || !s.Select(pick) {
		return Reply{Text: format.ProviderReprompt(n), Choices: providerChoices(n)}, false
	}
	s.State = booking.StateConfirmBooking
	return Reply{Text: format.Summary(s), Choices: []string{"oui", "non"}}, true
}

func (e *Engine) confirm(ctx context.Context, s *booking.Session, text string) (Reply, bool) {
	switch {
	case oneOf(text, affirmative):
		conf := e.createBooking(ctx, s)
		s.BookingID = conf.BookingID
		s.PaymentURL = conf.PaymentURL
		if s.PaymentURL == "" {
			s.PaymentURL = e.cfg.Links.PaymentURL(s.BookingID)
		}
		s.State = booking.StateCompleted
		e.record(ctx, s)
		logger.Info(ctx, component, "booking.confirmed",
			slog.String("booking_id", s.BookingID),
			slog.String("provider_id", s.Selected.ID),
			slog.String("service", string(s.Service)),
		)
		return Reply{Text: format.Confirmation(s)}, true
	case oneOf(text, negative):
		s.ClearSelection()
		s.State = booking.StateShowProviders
		n := len(s.Providers)
		return Reply{Text: format.OtherProviderPrompt(n), Choices: providerChoices(n)}, true
	}
	return Reply{Text: format.ConfirmReprompt, Choices: []string{"oui", "non"}}, false
}
