package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/qemplois/assistant/core/ratelimit"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the middlewares touch.
type fakeContext struct {
	tele.Context
	update tele.Update
	sender *tele.User
	store  map[string]any
	sent   []any
}

func newFake(userID int64, text string) *fakeContext {
	msg := &tele.Message{ID: 1, Text: text, Sender: &tele.User{ID: userID}, Chat: &tele.Chat{ID: userID}}
	return &fakeContext{
		update: tele.Update{ID: 10, Message: msg},
		sender: msg.Sender,
		store:  make(map[string]any),
	}
}

func (f *fakeContext) Update() tele.Update {
	return f.update
}

func (f *fakeContext) Sender() *tele.User {
	return f.sender
}

func (f *fakeContext) Chat() *tele.Chat {
	return f.update.Message.Chat
}

func (f *fakeContext) Text() string {
	return f.update.Message.Text
}

func (f *fakeContext) Get(key string) any {
	return f.store[key]
}

func (f *fakeContext) Set(key string, val any) {
	f.store[key] = val
}

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func TestRateLimitMiddleware(t *testing.T) {
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Limiter:   ratelimit.New(time.Hour, 1),
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	_ = h(newFake(1, "a"))
	_ = h(newFake(1, "b"))
	_ = h(newFake(2, "c"))
	if calls != 2 || limited != 1 {
		t.Fatalf("calls=%d limited=%d", calls, limited)
	}
}

func TestRateLimitExclusions(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitOptions{
		Limiter: ratelimit.New(time.Hour, 1),
		Exclude: map[string]struct{}{"message": {}},
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })
	for i := 0; i < 3; i++ {
		_ = h(newFake(1, "x"))
	}
	if calls != 3 {
		t.Fatalf("excluded updates were limited: calls=%d", calls)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	if err := h(newFake(1, "x")); err == nil {
		t.Fatal("panic not converted to error")
	}
	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	if err := h(newFake(1, "x")); !errors.Is(err, want) {
		t.Fatalf("error not passed through: %v", err)
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{AdminID: 7, OnReject: func(tele.Context) error { rejected++; return nil }})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	_ = h(newFake(7, "/sessions"))
	_ = h(newFake(8, "/sessions"))
	if calls != 1 || rejected != 1 {
		t.Fatalf("calls=%d rejected=%d", calls, rejected)
	}

	if (AdminOptions{}).IsAdmin(newFake(7, "")) {
		t.Fatal("admin matched without configured id")
	}
}

func TestMessageMetricsMiddleware(t *testing.T) {
	fc := newFake(1, "x")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("one")
		return c.Send("two", &tele.ReplyMarkup{})
	})
	if err := h(fc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs, kb := Counters(fc)
	if msgs != 2 || !kb {
		t.Fatalf("msgs=%d kb=%v", msgs, kb)
	}
}
