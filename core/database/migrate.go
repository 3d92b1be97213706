package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/qemplois/assistant/core/logger"
)

const component = "db.migrate"

// DefaultMigrationsDir is used when Config.Migrations is empty.
const DefaultMigrationsDir = "migrations"

// RunMigrations brings the schema up to the newest migration in the
// configured directory. Being already current is not an error.
func RunMigrations(cfg Config) error {
	ctx := context.Background()
	fail := func(step string, err error) error {
		logger.Error(ctx, component, step,
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("migrate %s: %w", step, err)
	}

	if err := WaitForPostgres(cfg.URL(), 30*time.Second); err != nil {
		return fail("wait", err)
	}
	dir, err := resolveDir(cfg.Migrations)
	if err != nil {
		return fail("resolve", err)
	}
	files := upFiles(dir)
	logger.Debug(ctx, component, "resolve", append(
		[]slog.Attr{slog.String("path", dir)}, fileAttrs(files)...)...)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.URL())
	if err != nil {
		return fail("init", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fail("apply", err)
	}
	to, _, _ := m.Version()

	applied := appliedBetween(files, uint64(from), uint64(to))
	if len(applied) > 0 {
		logger.Debug(ctx, component, "apply", fileAttrs(applied)...)
	}
	logger.Info(ctx, component, "summary",
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	)
	return nil
}

func fileAttrs(files []string) []slog.Attr {
	attrs := []slog.Attr{slog.Int("files_total", len(files))}
	if preview, cut := logger.SummarizeStrings(files, 6); preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview), slog.Bool("files_truncated", cut))
	}
	return attrs
}

func resolveDir(dir string) (string, error) {
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	return filepath.Abs(dir)
}

// upFiles lists the *.up.sql files in dir, sorted by name.
func upFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// appliedBetween keeps the files whose numeric prefix lies in (from, to].
func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		prefix, _, _ := strings.Cut(f, "_")
		if v, err := strconv.ParseUint(prefix, 10, 64); err == nil && v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
