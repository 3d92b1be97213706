// Package flow drives the booking conversation: one inbound message in, one
// reply out, with the session read and written around each turn.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/format"
	"github.com/qemplois/assistant/booking/session"
	"github.com/qemplois/assistant/core/logger"
)

const component = "flow"

// ErrNoStore is returned by New when no session store is supplied.
var ErrNoStore = errors.New("flow: session store is required")

// Reply is the answer to one inbound message.
type Reply struct {
	Text string
	// Choices are optional quick replies a transport may render as buttons.
	Choices []string
}

// Deps are the collaborators the engine calls. Only Store is required: a nil
// Geocoder yields fallback coordinates, a nil Searcher finds nobody and a nil
// Creator makes every booking local.
type Deps struct {
	Store    session.Store
	Geocoder booking.Geocoder
	Searcher booking.ProviderSearcher
	Creator  booking.BookingCreator
	Ledger   booking.Ledger
}

// Config tunes collaborator calls and rendered links.
type Config struct {
	SearchRadiusKm int
	SearchTimeout  time.Duration
	CreateTimeout  time.Duration
	Links          format.Links
	// Location resolves relative dates. Nil means time.Local.
	Location *time.Location
}

// DefaultConfig matches production settings.
func DefaultConfig() Config {
	return Config{
		SearchRadiusKm: 25,
		SearchTimeout:  10 * time.Second,
		CreateTimeout:  10 * time.Second,
		Links:          format.DefaultLinks,
	}
}

// Engine is the conversation state machine. It is safe for concurrent use:
// turns for the same key run one at a time, different keys run in parallel.
type Engine struct {
	deps  Deps
	cfg   Config
	locks keyedMutex

	// Now is the clock used for relative dates and local booking ids.
	Now func() time.Time
}

// New builds an engine around deps.
func New(deps Deps, cfg Config) (*Engine, error) {
	if deps.Store == nil {
		return nil, ErrNoStore
	}
	def := DefaultConfig()
	if cfg.SearchRadiusKm <= 0 {
		cfg.SearchRadiusKm = def.SearchRadiusKm
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = def.SearchTimeout
	}
	if cfg.CreateTimeout <= 0 {
		cfg.CreateTimeout = def.CreateTimeout
	}
	if cfg.Links.PaymentFmt == "" {
		cfg.Links = def.Links
	}
	return &Engine{deps: deps, cfg: cfg, Now: time.Now}, nil
}

func (e *Engine) now() time.Time {
	now := e.Now()
	if e.cfg.Location != nil {
		now = now.In(e.cfg.Location)
	}
	return now
}

// Session returns a copy of the stored session for key, if any.
func (e *Engine) Session(ctx context.Context, key booking.Key) (*booking.Session, bool, error) {
	return e.deps.Store.Get(ctx, key)
}

// HandleMessage runs one conversation turn. The returned error is reserved for
// session store failures; user input never produces one.
func (e *Engine) HandleMessage(ctx context.Context, key booking.Key, raw string) (Reply, error) {
	unlock := e.locks.Lock(key)
	defer unlock()

	ctx = logger.WithConversation(ctx, string(key.Platform), key.UserID)
	raw = strings.TrimSpace(raw)
	text := strings.ToLower(raw)

	if strings.HasPrefix(text, "/") {
		return e.command(ctx, key, text)
	}

	s, created, err := session.Load(ctx, e.deps.Store, key)
	if err != nil {
		return Reply{}, fmt.Errorf("flow: load session %s: %w", key, err)
	}
	from := s.State

	reply, accepted := e.dispatch(ctx, s, text, raw)
	if !accepted {
		logger.Debug(ctx, component, "input.rejected",
			slog.String("state", string(from)),
		)
		if !created {
			return reply, nil
		}
		// The first message opens the conversation even when it is not
		// understood; s is still the pristine idle session.
		s = booking.NewSession(key)
	}
	if err := e.deps.Store.Put(ctx, s); err != nil {
		return Reply{}, fmt.Errorf("flow: save session %s: %w", key, err)
	}
	transition(ctx, from, s.State)
	return reply, nil
}

func transition(ctx context.Context, from, to booking.State) {
	if from == to {
		return
	}
	logger.Debug(ctx, component, "transition",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

// dispatch mutates s in place and reports whether the input was accepted.
// Rejected input must leave s untouched.
func (e *Engine) dispatch(ctx context.Context, s *booking.Session, text, raw string) (Reply, bool) {
	switch s.State {
	case booking.StateIdle:
		return e.idle(s, text)
	case booking.StateAskService:
		return e.askService(s, text)
	case booking.StateAskDate:
		return e.askDate(s, text)
	case booking.StateAskTime:
		return e.askTime(s, text)
	case booking.StateAskLocation:
		return e.askLocation(ctx, s, raw)
	case booking.StateSearchingProviders:
		// A turn interrupted mid-search is resumed.
		return e.search(ctx, s), true
	case booking.StateShowProviders:
		return e.showProviders(s, text)
	case booking.StateConfirmBooking:
		return e.confirm(ctx, s, text)
	case booking.StateCompleted:
		return Reply{Text: format.WelcomeAgain()}, false
	default:
		logger.Warn(ctx, component, "state.unknown",
			slog.String("state", string(s.State)),
		)
		return welcome(), false
	}
}
