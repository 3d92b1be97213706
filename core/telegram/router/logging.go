package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/qemplois/assistant/core/logger"
	tghelpers "github.com/qemplois/assistant/core/telegram/helpers"
	"github.com/qemplois/assistant/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// handled runs fn as the named handler and logs one summary line for it.
func handled(c tele.Context, name string, fn tele.HandlerFunc) error {
	start := time.Now()
	tghelpers.TagHandler(c, name)
	err := fn(c)
	status := "ok"
	if err != nil {
		status = "fail"
	}
	summarize(c, name, start, status, err)
	return err
}

// skipped logs an update nobody handled.
func skipped(c tele.Context, name string) error {
	tghelpers.TagHandler(c, name)
	summarize(c, name, time.Now(), "skip", nil)
	return nil
}

func summarize(c tele.Context, name string, start time.Time, status string, err error) {
	msgs, kb := middleware.Counters(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errCode(err)),
		)
	}
	logger.Info(tghelpers.Context(c), "tg", "handler.handled", attrs...)
}

// handlerName turns a command key into a log-friendly handler name.
func handlerName(key string) string {
	key = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(key), "/"))
	if key == "" {
		return "unknown"
	}
	return strings.Join(strings.Fields(key), "_")
}

// errCode prefers an explicit Code() and otherwise uses the error's type name.
func errCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.Join(strings.Fields(code), "_"))
		}
	}
	name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(name)
}
