package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	coreconfig "github.com/qemplois/assistant/core/config"
	"github.com/qemplois/assistant/core/logger"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// Service is a long-running transport started by Run.
type Service struct {
	Name string
	Run  func(ctx context.Context) error
}

// App is the minimal interface required to run the assistant transports.
type App interface {
	Services() ([]Service, error)
	Close() error
}

// Options describe how to load configuration, bootstrap the app, and run it.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string
	// ConfigPath overrides the environment and default lookup when set.
	ConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (App, error)

	ShutdownLogger func() error
	// Context defaults to one cancelled on SIGINT or SIGTERM.
	Context context.Context
}

// ResolveConfigPath returns ConfigPath, else the file named by the
// ConfigEnvVar environment variable (CONFIG_PATH by default), else
// DefaultConfigPath.
func (o Options) ResolveConfigPath() (string, error) {
	env := cmp.Or(o.ConfigEnvVar, "CONFIG_PATH")
	if p := cmp.Or(o.ConfigPath, os.Getenv(env), o.DefaultConfigPath); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("cmd: no config path: set %s or pass one explicitly", env)
}

// Run loads the config, bootstraps the app and runs its services together.
// The first service to fail cancels the others and its error is returned.
func Run(opts Options) error {
	switch {
	case opts.LoadConfig == nil:
		return errors.New("cmd: LoadConfig is required")
	case opts.Bootstrap == nil:
		return errors.New("cmd: Bootstrap is required")
	}
	start := time.Now()
	app, err := boot(opts)
	if err != nil {
		return err
	}
	shutdown := opts.ShutdownLogger
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	defer flushLogs(shutdown)
	defer closeApp(app)

	services, err := app.Services()
	if err != nil {
		return fmt.Errorf("cmd: services build failed: %w", err)
	}
	if len(services) == 0 {
		return errors.New("cmd: no transport enabled")
	}

	ctx := opts.Context
	if ctx == nil {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
	}
	err = serve(ctx, services, start)
	logger.Info(logger.Background(), "app", "shutdown",
		slog.Int64("uptime_ms", logger.Took(start).Milliseconds()),
	)
	return err
}

func boot(opts Options) (App, error) {
	path, err := opts.ResolveConfigPath()
	if err != nil {
		return nil, err
	}
	log.Printf("loading config: %s", path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return nil, errors.New("cmd: loaded config is missing core configuration")
	}
	app, err := opts.Bootstrap(cfg)
	if err != nil {
		return nil, fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	return app, nil
}

func serve(ctx context.Context, services []Service, start time.Time) error {
	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.Name
	}
	logger.Info(ctx, "app", "ready",
		slog.String("services", strings.Join(names, ", ")),
		slog.Int64("startup_duration_ms", logger.Took(start).Milliseconds()),
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range services {
		g.Go(func() error {
			if err := s.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", s.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func closeApp(app App) {
	if err := app.Close(); err != nil {
		logger.Warn(logger.Background(), "app", "close",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func flushLogs(shutdown func() error) {
	if err := shutdown(); err != nil {
		log.Printf("logger shutdown error: %v", err)
	}
}
