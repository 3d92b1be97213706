package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/core/logger"
)

type backend interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	del(ctx context.Context, keys ...string) error
}

type pending struct {
	Platform  string    `json:"platform"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Links is a Gate backed by a key-value store. Tokens live under
// auth:token:<token>, links under auth:link:<platform>:<user> with a reverse
// entry auth:user:<account>:<platform>.
type Links struct {
	kv       backend
	base     string
	now      func() time.Time
	newToken func() string
}

// Option configures Links.
type Option func(*Links)

// WithLinkBase sets the account page URL.
func WithLinkBase(base string) Option {
	return func(l *Links) {
		if base != "" {
			l.base = base
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Links) { l.now = now }
}

func newLinks(kv backend, opts ...Option) *Links {
	l := &Links{
		kv:       kv,
		base:     DefaultLinkBase,
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func tokenKey(token string) string { return "auth:token:" + token }

func linkKey(key booking.Key) string { return "auth:link:" + key.String() }

func reverseKey(userID string, platform booking.Platform) string {
	return "auth:user:" + userID + ":" + string(platform)
}

// Linked implements Gate.
func (l *Links) Linked(ctx context.Context, key booking.Key) (Account, bool, error) {
	data, ok, err := l.kv.get(ctx, linkKey(key))
	if err != nil || !ok {
		return Account{}, false, err
	}
	var acc Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return Account{}, false, fmt.Errorf("auth: decode link %s: %w", key, err)
	}
	return acc, true, nil
}

// LinkURL issues a single-use token valid for TokenTTL.
func (l *Links) LinkURL(ctx context.Context, key booking.Key) (string, error) {
	token := l.newToken()
	data, err := json.Marshal(pending{Platform: string(key.Platform), UserID: key.UserID, CreatedAt: l.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("auth: encode token: %w", err)
	}
	if err := l.kv.set(ctx, tokenKey(token), data, TokenTTL); err != nil {
		return "", err
	}
	logger.Debug(ctx, component, "token.issue", slog.String("status", "ok"))

	q := url.Values{}
	q.Set("token", token)
	q.Set("platform", string(key.Platform))
	return l.base + "?" + q.Encode(), nil
}

// Link consumes req.Token and records the account link.
func (l *Links) Link(ctx context.Context, req LinkRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	data, ok, err := l.kv.get(ctx, tokenKey(req.Token))
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidToken
	}
	var p pending
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("auth: decode token: %w", err)
	}
	key := req.Key()
	if p.Platform != string(key.Platform) || p.UserID != key.UserID {
		logger.Warn(ctx, component, "link.mismatch", slog.String("status", "fail"))
		return ErrTokenMismatch
	}

	acc, err := json.Marshal(Account{
		UserID:   req.UserID,
		Token:    req.Token,
		Username: req.PlatformUsername,
		LinkedAt: l.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("auth: encode link: %w", err)
	}
	if err := l.kv.set(ctx, linkKey(key), acc, LinkTTL); err != nil {
		return err
	}
	if err := l.kv.set(ctx, reverseKey(req.UserID, key.Platform), []byte(key.UserID), LinkTTL); err != nil {
		return err
	}
	if err := l.kv.del(ctx, tokenKey(req.Token)); err != nil {
		logger.Warn(ctx, component, "token.consume", slog.String("status", "fail"), slog.String("err", err.Error()))
	}
	logger.Info(ctx, component, "link.ok",
		slog.String("status", "ok"),
		slog.String("platform", string(key.Platform)),
	)
	return nil
}

// Unlink forgets the account linked to key. It reports whether one existed.
func (l *Links) Unlink(ctx context.Context, key booking.Key) (bool, error) {
	acc, ok, err := l.Linked(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := l.kv.del(ctx, linkKey(key), reverseKey(acc.UserID, key.Platform)); err != nil {
		return false, err
	}
	return true, nil
}

// IsInvalid reports whether err means the caller sent a bad link request.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenMismatch) || errors.Is(err, ErrMissingField)
}
