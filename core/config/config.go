package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram transport settings. An empty token disables it.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// Enabled reports whether a bot token is configured.
func (t TelegramConfig) Enabled() bool { return strings.TrimSpace(t.Token) != "" }

// WhatsAppConfig holds the HTTP gateway settings. An empty listen address
// disables it.
type WhatsAppConfig struct {
	Listen string `yaml:"listen" envconfig:"WHATSAPP_LISTEN"`
	// APIToken, when set, must be sent as a bearer token on gateway routes.
	APIToken string `yaml:"api_token" envconfig:"WHATSAPP_API_TOKEN"`
	// ShutdownTimeoutSeconds bounds graceful shutdown; 0 -> default
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds" envconfig:"WHATSAPP_SHUTDOWN_TIMEOUT_SECONDS"`
}

// Enabled reports whether the gateway should listen.
func (w WhatsAppConfig) Enabled() bool { return strings.TrimSpace(w.Listen) != "" }

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	// Dir and File together enable a file sink next to stdout.
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	Burst          int      `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	WhatsApp  WhatsAppConfig  `yaml:"whatsapp"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load reads the core sections from path.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if err := Decode(path, cfg); err != nil {
		return nil, err
	}
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals the YAML file at path into out and then applies
// environment overrides. Applications that embed Config decode their whole
// struct with it.
func Decode(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := envconfig.Process("", out); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// Normalize validates cfg and fills defaults in place.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if cfg.WhatsApp.ShutdownTimeoutSeconds < 0 {
		return errors.New("whatsapp.shutdown_timeout_seconds must be >= 0")
	}
	if err := cfg.RateLimit.normalize(); err != nil {
		return err
	}
	if !cfg.Telegram.Enabled() {
		return nil
	}
	return cfg.Telegram.normalize(cfg.Webhook)
}

var runModeAliases = map[string]string{
	"":              RunModeLongpoll,
	"polling":       RunModeLongpoll,
	RunModeLongpoll: RunModeLongpoll,
	RunModeWebhook:  RunModeWebhook,
}

func (t *TelegramConfig) normalize(wh WebhookConfig) error {
	mode, ok := runModeAliases[strings.ToLower(strings.TrimSpace(t.RunMode))]
	if !ok {
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", t.RunMode)
	}
	t.RunMode = mode
	if mode == RunModeLongpoll {
		if t.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
		return nil
	}
	var missing []string
	if strings.TrimSpace(wh.URL) == "" {
		missing = append(missing, "webhook.url")
	}
	if strings.TrimSpace(wh.Listen) == "" {
		missing = append(missing, "webhook.listen")
	}
	if wh.Port <= 0 {
		missing = append(missing, "webhook.port")
	}
	if len(missing) > 0 {
		return fmt.Errorf("webhook mode requires %s", strings.Join(missing, ", "))
	}
	return nil
}

var excludable = []string{UpdateCallback, UpdateMessage, UpdateInlineQuery}

func (r *RateLimitConfig) normalize() error {
	if r.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	r.Burst = max(r.Burst, 1)
	for i, v := range r.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		if kind != "" && !slices.Contains(excludable, kind) {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: %s", v, strings.Join(excludable, ", "))
		}
		r.ExcludeUpdates[i] = kind
	}
	return nil
}
