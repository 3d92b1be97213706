package logger

import (
	"context"
	"log/slog"
	"strings"
)

type scopeKey struct{}

type loggerKey struct{}

// scope is the request metadata merged into every record logged with the
// carrying context.
type scope struct {
	rid      string
	handler  string
	platform string
	user     string
	updateID int
	userID   int64
	chatID   int64
}

func scopeOf(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func modify(ctx context.Context, fn func(*scope)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	s := scopeOf(ctx)
	fn(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// fill adds scope fields the record has not set explicitly.
func (s scope) fill(r *record) {
	if s.rid != "" {
		r.setDefault("rid", s.rid)
	}
	if s.updateID != 0 {
		r.setDefault("update_id", int64(s.updateID))
	}
	if s.userID != 0 {
		r.setDefault("user_id", s.userID)
	}
	if s.chatID != 0 {
		r.setDefault("chat_id", s.chatID)
	}
	if s.platform != "" {
		r.setDefault("platform", s.platform)
	}
	if s.user != "" {
		r.setDefault("user", s.user)
	}
	if s.handler != "" {
		r.setDefault("handler", s.handler)
	}
}

// WithLogger stores log in ctx for handlers further down the chain.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored by WithLogger, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return log
		}
	}
	return L
}

// WithRID attaches a correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return modify(ctx, func(s *scope) { s.rid = strings.TrimSpace(rid) })
}

// RIDFrom returns the correlation id, if any.
func RIDFrom(ctx context.Context) string { return scopeOf(ctx).rid }

// WithUpdateMeta records the transport identifiers of the update being handled.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return modify(ctx, func(s *scope) {
		s.updateID = updateID
		s.userID = userID
		s.chatID = chatID
	})
}

func UpdateIDFrom(ctx context.Context) int { return scopeOf(ctx).updateID }

func UserIDFrom(ctx context.Context) int64 { return scopeOf(ctx).userID }

func ChatIDFrom(ctx context.Context) int64 { return scopeOf(ctx).chatID }

// WithHandler names the handler serving the update. Empty names are ignored.
func WithHandler(ctx context.Context, handler string) context.Context {
	handler = strings.TrimSpace(handler)
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return modify(ctx, func(s *scope) { s.handler = handler })
}

func HandlerFrom(ctx context.Context) string { return scopeOf(ctx).handler }

// WithConversation tags records with the conversation key. Empty parts keep
// whatever the context already carries.
func WithConversation(ctx context.Context, platform, user string) context.Context {
	return modify(ctx, func(s *scope) {
		if p := strings.TrimSpace(platform); p != "" {
			s.platform = p
		}
		if u := strings.TrimSpace(user); u != "" {
			s.user = u
		}
	})
}
