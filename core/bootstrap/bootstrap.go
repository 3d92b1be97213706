package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/qemplois/assistant/core/config"
	coredatabase "github.com/qemplois/assistant/core/database"
	"github.com/qemplois/assistant/core/logger"
)

// Options control the generic bootstrap pipeline.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil when no database host is configured.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database handle if one was opened.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

func (o *Options) fill() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Run starts logging and, when a database host is configured, opens the
// pool and migrates the schema. A failed migration closes the pool again.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.fill()
	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	if !opts.Database.Enabled() {
		logger.Info(logger.Background(), "db", "db.skip",
			slog.String("status", "skip"),
			slog.String("reason", "no_host"),
		)
		return &Result{}, nil
	}
	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database: %w", err)
	}
	if err := opts.Migrate(opts.Database); err != nil {
		return nil, errors.Join(fmt.Errorf("bootstrap: migrations: %w", err), db.Close())
	}
	return &Result{DB: db}, nil
}
