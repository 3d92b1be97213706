package router

import (
	"errors"
	"testing"

	tg "github.com/qemplois/assistant/core/telegram"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
}

func newFake(text string) *fakeContext {
	msg := &tele.Message{ID: 1, Text: text, Sender: &tele.User{ID: 7}, Chat: &tele.Chat{ID: 7}}
	return &fakeContext{update: tele.Update{ID: 3, Message: msg}, store: make(map[string]any)}
}

func (f *fakeContext) Update() tele.Update     { return f.update }
func (f *fakeContext) Sender() *tele.User      { return f.update.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat        { return f.update.Message.Chat }
func (f *fakeContext) Text() string            { return f.update.Message.Text }
func (f *fakeContext) Get(key string) any      { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }

func textHandler(t *testing.T, routes []tg.Route) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no text route")
	return nil
}

func TestTextRoutesDispatch(t *testing.T) {
	var hit []string
	reg := tg.NewRegistry()
	reg.RegisterCommand("/aide", tg.Command{
		Description: "Aide",
		Aliases:     []string{"help"},
		Handler: func(tele.Context) error {
			hit = append(hit, "aide")
			return nil
		},
	})
	reg.SetTextFallback(func(c tele.Context) error {
		hit = append(hit, "fallback:"+c.Text())
		return nil
	})
	h := textHandler(t, TextRoutes(reg, TextOptions{}))

	for _, text := range []string{"/AIDE@QEmploisBot", "/help", "demain", "/inconnu"} {
		if err := h(newFake(text)); err != nil {
			t.Fatalf("%q: %v", text, err)
		}
	}
	want := []string{"aide", "aide", "fallback:demain", "fallback:/inconnu"}
	if len(hit) != len(want) {
		t.Fatalf("hits %v", hit)
	}
	for i := range want {
		if hit[i] != want[i] {
			t.Fatalf("hits %v want %v", hit, want)
		}
	}
}

func TestTextRoutesUnknown(t *testing.T) {
	called := false
	h := textHandler(t, TextRoutes(nil, TextOptions{UnknownText: func(tele.Context) error {
		called = true
		return nil
	}}))
	if err := h(newFake("bonjour")); err != nil || !called {
		t.Fatalf("unknown handler not used: %v", err)
	}
}

func TestCommandRoutesAliases(t *testing.T) {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/mesreservations", tg.Command{
		Description: "Mes réservations",
		Aliases:     []string{"reservations"},
		Handler:     func(tele.Context) error { return nil },
	})
	routes := CommandRoutes(reg, CommandRouteOptions{})
	if len(routes) != 2 || routes[1].Endpoint != "/reservations" {
		t.Fatalf("unexpected routes %+v", routes)
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "boom" }
func (codedErr) Code() string  { return "http 502" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestErrCode(t *testing.T) {
	if got := errCode(codedErr{}); got != "HTTP_502" {
		t.Fatalf("got %q", got)
	}
	if got := errCode(&plainErr{}); got != "PLAINERR" {
		t.Fatalf("got %q", got)
	}
	if got := errCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("got %q", got)
	}
	if got := handlerName(" /Mes Reservations "); got != "mes_reservations" {
		t.Fatalf("got %q", got)
	}
}
