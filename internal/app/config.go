package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/qemplois/assistant/booking/auth"
	"github.com/qemplois/assistant/booking/collab"
	"github.com/qemplois/assistant/booking/format"
	corecmd "github.com/qemplois/assistant/core/cmd"
	coreconfig "github.com/qemplois/assistant/core/config"
	coredatabase "github.com/qemplois/assistant/core/database"
)

// RedisConfig points at the Redis instance backing sessions and account links.
// An empty address keeps both in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// Enabled reports whether Redis is configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

// BookingConfig tunes the conversation and its collaborators.
type BookingConfig struct {
	// Demo serves the fixed provider roster and confirms bookings locally.
	Demo bool `yaml:"demo" envconfig:"BOOKING_DEMO"`
	// AuthRequired gates conversations on a linked Q-Emplois account.
	AuthRequired bool `yaml:"auth_required" envconfig:"BOOKING_AUTH_REQUIRED"`

	SearchRadiusKm       int    `yaml:"search_radius_km" envconfig:"BOOKING_SEARCH_RADIUS_KM"`
	SearchTimeoutSeconds int    `yaml:"search_timeout_seconds" envconfig:"BOOKING_SEARCH_TIMEOUT_SECONDS"`
	CreateTimeoutSeconds int    `yaml:"create_timeout_seconds" envconfig:"BOOKING_CREATE_TIMEOUT_SECONDS"`
	SessionTTLMinutes    int    `yaml:"session_ttl_minutes" envconfig:"BOOKING_SESSION_TTL_MINUTES"`
	Timezone             string `yaml:"timezone" envconfig:"BOOKING_TIMEZONE"`

	APIBaseURL        string `yaml:"api_base_url" envconfig:"QEMPLOIS_API_URL"`
	APIToken          string `yaml:"api_token" envconfig:"QEMPLOIS_API_TOKEN"`
	GeocoderURL       string `yaml:"geocoder_url" envconfig:"GEOCODER_URL"`
	GeocoderUserAgent string `yaml:"geocoder_user_agent" envconfig:"GEOCODER_USER_AGENT"`

	PaymentURLFormat string `yaml:"payment_url_format" envconfig:"PAYMENT_URL_FORMAT"`
	CancelURL        string `yaml:"cancel_url" envconfig:"CANCEL_URL"`
	ProfileURL       string `yaml:"profile_url" envconfig:"PROFILE_URL"`
	BecomeProURL     string `yaml:"become_pro_url" envconfig:"BECOME_PRO_URL"`
	AuthLinkBase     string `yaml:"auth_link_base" envconfig:"AUTH_LINK_BASE"`
}

const (
	defaultSessionTTL = 24 * time.Hour
	defaultTimezone   = "America/Montreal"
	defaultUserAgent  = "qemplois-assistant"
)

// SessionTTL returns the idle lifetime of a conversation.
func (b BookingConfig) SessionTTL() time.Duration {
	if b.SessionTTLMinutes <= 0 {
		return defaultSessionTTL
	}
	return time.Duration(b.SessionTTLMinutes) * time.Minute
}

// Links merges configured URLs over the production defaults.
func (b BookingConfig) Links() format.Links {
	l := format.DefaultLinks
	if b.PaymentURLFormat != "" {
		l.PaymentFmt = b.PaymentURLFormat
	}
	if b.CancelURL != "" {
		l.Cancel = b.CancelURL
	}
	if b.ProfileURL != "" {
		l.Profile = b.ProfileURL
	}
	if b.BecomeProURL != "" {
		l.BecomePro = b.BecomeProURL
	}
	return l
}

// Location loads the timezone used to resolve relative dates.
func (b BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(b.Timezone)
}

// Config is the full assistant configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Redis    RedisConfig         `yaml:"redis"`
	Booking  BookingConfig       `yaml:"booking"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

var _ corecmd.ConfigCarrier = (*Config)(nil)

// LoadConfig reads path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	b := &cfg.Booking
	if b.SearchRadiusKm < 0 || b.SearchTimeoutSeconds < 0 || b.CreateTimeoutSeconds < 0 || b.SessionTTLMinutes < 0 {
		return fmt.Errorf("booking: radius, timeouts and session ttl must be >= 0")
	}
	if b.Timezone == "" {
		b.Timezone = defaultTimezone
	}
	if _, err := b.Location(); err != nil {
		return fmt.Errorf("booking.timezone: %w", err)
	}
	if b.PaymentURLFormat != "" && strings.Count(b.PaymentURLFormat, "%s") != 1 {
		return fmt.Errorf("booking.payment_url_format must contain exactly one %%s")
	}
	if !b.Demo && strings.TrimSpace(b.APIBaseURL) == "" {
		return fmt.Errorf("booking.api_base_url is required unless booking.demo is set")
	}
	if !b.Demo && b.GeocoderURL == "" {
		b.GeocoderURL = collab.DefaultNominatimURL
	}
	if b.GeocoderUserAgent == "" {
		b.GeocoderUserAgent = defaultUserAgent
	}
	if b.AuthLinkBase == "" {
		b.AuthLinkBase = auth.DefaultLinkBase
	}
	return nil
}
