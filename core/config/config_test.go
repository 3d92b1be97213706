package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeWithoutTelegram(t *testing.T) {
	cfg := &Config{WhatsApp: WhatsAppConfig{Listen: ":8080"}, Telegram: TelegramConfig{RunMode: "bogus"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Telegram.Enabled() || !cfg.WhatsApp.Enabled() {
		t.Fatalf("unexpected transports: %+v", cfg)
	}
	if cfg.RateLimit.Burst != 1 {
		t.Fatalf("burst default not applied: %d", cfg.RateLimit.Burst)
	}
}

func TestNormalizeRunModes(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
		mode    string
	}{
		{"default longpoll", Config{Telegram: TelegramConfig{Token: "t"}}, false, RunModeLongpoll},
		{"polling alias", Config{Telegram: TelegramConfig{Token: "t", RunMode: "Polling"}}, false, RunModeLongpoll},
		{"webhook without url", Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}, true, ""},
		{"webhook", Config{
			Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
			Webhook:  WebhookConfig{URL: "https://x", Listen: "0.0.0.0", Port: 8443},
		}, false, RunModeWebhook},
		{"unknown", Config{Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}}, true, ""},
	}
	for _, tc := range cases {
		cfg := tc.cfg
		err := Normalize(&cfg)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: err=%v wantErr=%v", tc.name, err, tc.wantErr)
		}
		if err == nil && cfg.Telegram.RunMode != tc.mode {
			t.Fatalf("%s: mode=%q want %q", tc.name, cfg.Telegram.RunMode, tc.mode)
		}
	}
}

func TestNormalizeExcludeUpdates(t *testing.T) {
	cfg := &Config{RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Message "}}}
	if err := Normalize(cfg); err != nil || cfg.RateLimit.ExcludeUpdates[0] != UpdateMessage {
		t.Fatalf("unexpected %v %v", err, cfg.RateLimit.ExcludeUpdates)
	}
	cfg.RateLimit.ExcludeUpdates = []string{"photo"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown update type")
	}
}

func TestLoadOverlaysEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "telegram:\n  token: from-file\nwhatsapp:\n  listen: \":8080\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" || cfg.WhatsApp.Listen != ":8080" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
