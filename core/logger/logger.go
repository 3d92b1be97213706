package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/qemplois/assistant/core/buildinfo"
	coreconfig "github.com/qemplois/assistant/core/config"
)

var (
	initOnce sync.Once
	stopOnce sync.Once

	writer  *asyncWriter
	files   []io.Closer
	level   slog.LevelVar
	debug   sampler
	traceOn bool

	// L is the process logger. It stays nil until InitLogger runs, and every
	// helper in this package is a no-op while it is.
	L *slog.Logger
)

// InitLogger builds the process logger from cfg and installs it as the slog
// default. Only the first call has any effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() { err = setup(cfg) })
	return err
}

func setup(cfg *coreconfig.Config) error {
	var lc coreconfig.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}
	level.Set(parseLevel(lc.Level))
	debug.set(parseRatio(lc.DebugSample))
	traceOn = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

	sinks := []io.Writer{os.Stdout}
	if lc.Dir != "" && lc.File != "" {
		f, err := openFile(lc.Dir, lc.File)
		if err != nil {
			return err
		}
		sinks = append(sinks, f)
		files = append(files, f)
	}
	writer = newAsyncWriter(sinks, 64<<10)
	L = slog.New(newHandler(&level, writer, pickFormat(lc), keyOrder(lc.KeysOrder)))
	slog.SetDefault(L)

	Info(context.Background(), "app", "startup",
		slog.String("go_version", runtime.Version()),
		slog.String("version", buildinfo.String()),
		slog.String("profile", profile(lc)),
	)
	return nil
}

func openFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open %s: %w", path, err)
	}
	return f, nil
}

// Shutdown writes out buffered records and closes file sinks.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if writer != nil {
			errs = append(errs, writer.Flush(), writer.Close())
		}
		for _, f := range files {
			errs = append(errs, f.Close())
		}
	})
	return errors.Join(errs...)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// pickFormat honours an explicit format and otherwise uses key=value output
// for debug and dev profiles.
func pickFormat(lc coreconfig.LoggingConfig) format {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "json":
		return formatJSON
	case "kv", "text", "pretty":
		return formatKV
	}
	switch profile(lc) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func profile(lc coreconfig.LoggingConfig) string {
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		return p
	}
	return "prod"
}

// keyOrder reads a comma separated key list; empty or "default" selects the
// built-in ranking.
func keyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return defaultKeyOrder
	}
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return defaultKeyOrder
	}
	return out
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Background is the context used for logging outside any request.
func Background() context.Context { return context.Background() }

// Component returns L tagged with the given component, or nil before
// InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With(slog.String("component", name))
}

// LogEvent writes one record carrying event. A nil log falls back to the
// context logger and then to L.
func LogEvent(ctx context.Context, log *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if log == nil {
		log = FromContext(ctx)
	}
	if log == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !log.Enabled(ctx, lvl) {
		return
	}
	log.LogAttrs(ctx, lvl, event, attrs...)
}

// Event logs event for component at lvl.
func Event(ctx context.Context, component string, lvl slog.Level, event string, attrs ...slog.Attr) {
	log := FromContext(ctx)
	if log == nil {
		return
	}
	if component = strings.TrimSpace(component); component != "" {
		log = log.With(slog.String("component", component))
	}
	LogEvent(ctx, log, lvl, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug record should be
// written. TRACE=1 in the environment admits all of them.
func ShouldSampleDebug() bool {
	return traceOn || debug.allow()
}
