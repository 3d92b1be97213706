package auth

import (
	"context"
	"errors"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qemplois/assistant/booking"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func tokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	return u.Query().Get("token")
}

func TestLinkFlow(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)}
	g := NewMemory(WithClock(clk.now))
	key := booking.Key{Platform: booking.PlatformTelegram, UserID: "42"}

	if _, ok, err := g.Linked(ctx, key); ok || err != nil {
		t.Fatalf("fresh identity linked: ok=%v err=%v", ok, err)
	}
	link, err := g.LinkURL(ctx, key)
	if err != nil {
		t.Fatalf("link url: %v", err)
	}
	u, _ := url.Parse(link)
	if u.Host != "qemplois.ca" || u.Path != "/auth" || u.Query().Get("platform") != "telegram" {
		t.Fatalf("unexpected link %q", link)
	}

	req := LinkRequest{Token: tokenFrom(t, link), UserID: "acc-1", Platform: "telegram", PlatformUserID: "42", PlatformUsername: "marie"}
	if err := g.Link(ctx, req); err != nil {
		t.Fatalf("link: %v", err)
	}
	acc, ok, err := g.Linked(ctx, key)
	if err != nil || !ok || acc.UserID != "acc-1" || acc.Username != "marie" {
		t.Fatalf("unexpected account %+v ok=%v err=%v", acc, ok, err)
	}
	if err := g.Link(ctx, req); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token reused: %v", err)
	}

	removed, err := g.Unlink(ctx, key)
	if err != nil || !removed {
		t.Fatalf("unlink: removed=%v err=%v", removed, err)
	}
	if _, ok, _ := g.Linked(ctx, key); ok {
		t.Fatal("still linked after unlink")
	}
	if removed, _ := g.Unlink(ctx, key); removed {
		t.Fatal("second unlink reported removal")
	}
}

func TestLinkTokenExpires(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)}
	g := NewMemory(WithClock(clk.now))
	key := booking.Key{Platform: booking.PlatformWhatsApp, UserID: "+15145550000"}

	link, _ := g.LinkURL(ctx, key)
	clk.t = clk.t.Add(TokenTTL)
	err := g.Link(ctx, LinkRequest{Token: tokenFrom(t, link), UserID: "acc", Platform: "whatsapp", PlatformUserID: "+15145550000"})
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestLinkRejectsOtherIdentity(t *testing.T) {
	ctx := context.Background()
	g := NewMemory()
	link, _ := g.LinkURL(ctx, booking.Key{Platform: booking.PlatformTelegram, UserID: "1"})

	err := g.Link(ctx, LinkRequest{Token: tokenFrom(t, link), UserID: "acc", Platform: "telegram", PlatformUserID: "2"})
	if !errors.Is(err, ErrTokenMismatch) || !IsInvalid(err) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := g.Link(ctx, LinkRequest{Token: "x", Platform: "telegram", PlatformUserID: "2"}); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
}

func TestOpenGate(t *testing.T) {
	var g Gate = Open{}
	if _, ok, _ := g.Linked(context.Background(), booking.Key{}); !ok {
		t.Fatal("open gate refused")
	}
	if u, _ := g.LinkURL(context.Background(), booking.Key{}); u != DefaultLinkBase {
		t.Fatalf("unexpected link %q", u)
	}
}

func TestRedisLinkFlow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	g := NewRedis(client, WithLinkBase("https://example.test/auth"))
	key := booking.Key{Platform: booking.PlatformTelegram, UserID: "redis-test"}
	t.Cleanup(func() { _, _ = g.Unlink(ctx, key) })

	link, err := g.LinkURL(ctx, key)
	if err != nil {
		t.Fatalf("link url: %v", err)
	}
	if err := g.Link(ctx, LinkRequest{Token: tokenFrom(t, link), UserID: "acc", Platform: "telegram", PlatformUserID: "redis-test"}); err != nil {
		t.Fatalf("link: %v", err)
	}
	if _, ok, err := g.Linked(ctx, key); !ok || err != nil {
		t.Fatalf("linked: ok=%v err=%v", ok, err)
	}
}
