// Package app wires the booking assistant: storage, collaborators, the
// conversation engine and the Telegram and WhatsApp transports.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/auth"
	"github.com/qemplois/assistant/booking/bot"
	"github.com/qemplois/assistant/booking/collab"
	"github.com/qemplois/assistant/booking/flow"
	"github.com/qemplois/assistant/booking/ledger"
	"github.com/qemplois/assistant/booking/session"
	corecmd "github.com/qemplois/assistant/core/cmd"
	"github.com/qemplois/assistant/core/logger"
	"github.com/qemplois/assistant/core/netutil"
	"github.com/qemplois/assistant/core/ratelimit"
	coretelegram "github.com/qemplois/assistant/core/telegram"
	"github.com/qemplois/assistant/core/whatsapp"
)

const (
	component      = "app"
	sweepInterval  = time.Minute
	defaultWAEvery = time.Second
)

// Deps carries infrastructure opened by bootstrap. Both fields are optional.
type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// App is the assembled assistant.
type App struct {
	cfg    *Config
	deps   Deps
	engine *flow.Engine
	bot    *bot.Bot

	sessions session.Store
	// memory is set when sessions live in process and need sweeping.
	memory *session.Memory
}

// New builds the assistant from cfg and the opened infrastructure.
func New(cfg *Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	ctx := logger.Background()
	b := cfg.Booking

	loc, err := b.Location()
	if err != nil {
		return nil, fmt.Errorf("app: timezone: %w", err)
	}

	a := &App{cfg: cfg, deps: deps}

	if deps.Redis != nil {
		a.sessions = session.NewRedis(deps.Redis, b.SessionTTL())
	} else {
		a.memory = session.NewMemory(session.WithPolicy(session.TTL(b.SessionTTL())))
		a.sessions = a.memory
	}

	var ldg booking.Ledger
	if deps.DB != nil {
		ldg = ledger.NewRepository(deps.DB)
	} else {
		ldg = ledger.NewMemory()
	}

	links := b.Links()
	client := netutil.NewClient(netutil.ClientOptions{})

	fdeps := flow.Deps{Store: a.sessions, Ledger: ldg}
	if b.GeocoderURL != "" {
		fdeps.Geocoder = collab.NewNominatim(b.GeocoderURL, b.GeocoderUserAgent, client)
	}
	if b.Demo {
		fdeps.Searcher = collab.Static{Providers: collab.DemoProviders()}
		fdeps.Creator = collab.LocalCreator{Links: links}
	} else {
		api := collab.NewAPIClient(b.APIBaseURL, b.APIToken, client)
		fdeps.Searcher = api
		fdeps.Creator = api
	}

	a.engine, err = flow.New(fdeps, flow.Config{
		SearchRadiusKm: b.SearchRadiusKm,
		SearchTimeout:  time.Duration(b.SearchTimeoutSeconds) * time.Second,
		CreateTimeout:  time.Duration(b.CreateTimeoutSeconds) * time.Second,
		Links:          links,
		Location:       loc,
	})
	if err != nil {
		return nil, fmt.Errorf("app: engine: %w", err)
	}

	a.bot = bot.New(a.engine, a.gate(), links)

	logger.Info(ctx, component, "wired",
		slog.Bool("demo", b.Demo),
		slog.Bool("auth", b.AuthRequired),
		slog.String("sessions", storeName(a.memory == nil)),
		slog.String("ledger", storeName(deps.DB != nil)),
		slog.Bool("geocoder", fdeps.Geocoder != nil),
	)
	return a, nil
}

func (a *App) gate() auth.Gate {
	b := a.cfg.Booking
	if !b.AuthRequired {
		return auth.Open{LinkBase: b.AuthLinkBase}
	}
	if a.deps.Redis != nil {
		return auth.NewRedis(a.deps.Redis, auth.WithLinkBase(b.AuthLinkBase))
	}
	return auth.NewMemory(auth.WithLinkBase(b.AuthLinkBase))
}

func storeName(external bool) string {
	if external {
		return "external"
	}
	return "memory"
}

// Bot exposes the gated conversation surface.
func (a *App) Bot() *bot.Bot { return a.bot }

// Engine exposes the conversation engine.
func (a *App) Engine() *flow.Engine { return a.engine }

// Sessions reports the live in-memory session count, or -1 when sessions are
// stored externally.
func (a *App) Sessions() int {
	if a.memory == nil {
		return -1
	}
	return a.memory.Len()
}

// Services implements cmd.App.
func (a *App) Services() ([]corecmd.Service, error) {
	var out []corecmd.Service
	core := a.cfg.CoreConfig()

	if core.Telegram.Enabled() {
		opts := a.telegramOptions()
		out = append(out, corecmd.Service{
			Name: "telegram",
			Run: func(ctx context.Context) error {
				return coretelegram.RunTelegram(ctx, opts)
			},
		})
	}

	if core.WhatsApp.Enabled() {
		every := time.Duration(core.RateLimit.IntervalMS) * time.Millisecond
		if every <= 0 {
			every = defaultWAEvery
		}
		srv := whatsapp.New(a.bot, whatsapp.Options{
			Listen:          core.WhatsApp.Listen,
			APIToken:        core.WhatsApp.APIToken,
			Limiter:         ratelimit.New(every, core.RateLimit.Burst),
			ShutdownTimeout: time.Duration(core.WhatsApp.ShutdownTimeoutSeconds) * time.Second,
		})
		out = append(out, corecmd.Service{Name: "whatsapp", Run: srv.Run})
	}

	if len(out) > 0 && a.memory != nil {
		out = append(out, corecmd.Service{
			Name: "session.janitor",
			Run: func(ctx context.Context) error {
				a.memory.Janitor(ctx, sweepInterval)
				return nil
			},
		})
	}
	return out, nil
}

// Close releases the database and Redis handles.
func (a *App) Close() error {
	var errs []error
	if a.deps.DB != nil {
		errs = append(errs, a.deps.DB.Close())
	}
	if a.deps.Redis != nil {
		errs = append(errs, a.deps.Redis.Close())
	}
	return errors.Join(errs...)
}

var _ corecmd.App = (*App)(nil)
