package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerLongpoll(t *testing.T) {
	p, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	if !ok {
		t.Fatal("expected long poller")
	}
	if p.Timeout != DefaultLongPollTimeout || len(p.AllowedUpdates) != 1 {
		t.Fatalf("unexpected poller %+v", p)
	}
	p = BuildPoller(PollerOptions{LongPollTimeoutSeconds: 30}).(*tele.LongPoller)
	if p.Timeout != 30*time.Second {
		t.Fatalf("timeout %v", p.Timeout)
	}
}

func TestBuildPollerWebhook(t *testing.T) {
	p, ok := BuildPoller(PollerOptions{
		RunMode: " Webhook ",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.qemplois.ca/tg", Secret: "s3"},
	}).(*tele.Webhook)
	if !ok {
		t.Fatal("expected webhook poller")
	}
	if p.Listen != "0.0.0.0:8443" || p.SecretToken != "s3" || p.Endpoint.PublicURL != "https://bot.qemplois.ca/tg" {
		t.Fatalf("unexpected webhook %+v", p)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	h := func(tele.Context) error { return nil }
	if reg.RegisterCommand("aide", Command{Handler: h, Description: "x"}) {
		t.Fatal("command without slash accepted")
	}
	if !reg.RegisterCommand("/aide", Command{Handler: h, Description: "Aide", Aliases: []string{"help"}}) {
		t.Fatal("valid command rejected")
	}
	if reg.RegisterCommand("/aide", Command{Handler: h, Description: "Aide"}) {
		t.Fatal("duplicate accepted")
	}
	reg.RegisterCommand("/sessions", Command{Handler: h, Description: "Stats", AdminOnly: true, Hidden: true})

	for _, text := range []string{"/aide", "/AIDE 3", "/aide@QEmploisBot", "/help", "aide"} {
		if key, _, ok := reg.LookupCommand(text); !ok || key != "/aide" {
			t.Fatalf("LookupCommand(%q) = %q, %v", text, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("/inconnu"); ok {
		t.Fatal("unknown command resolved")
	}
	if got := reg.ListCommands(true); len(got) != 1 || got[0].Text != "aide" {
		t.Fatalf("visible commands %+v", got)
	}
	if got := reg.ListCommands(false); len(got) != 2 {
		t.Fatalf("all commands %+v", got)
	}
}
