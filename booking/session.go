// Package booking holds the domain model shared by the conversation engine,
// its session stores and the external collaborators it talks to.
package booking

import (
	"time"

	"github.com/qemplois/assistant/booking/parse"
)

// Platform identifies the chat network a user writes from.
type Platform string

const (
	// PlatformTelegram is the Telegram Bot API.
	PlatformTelegram Platform = "telegram"
	// PlatformWhatsApp is the WhatsApp webhook bridge.
	PlatformWhatsApp Platform = "whatsapp"
	// PlatformConsole is the local REPL used for manual testing.
	PlatformConsole Platform = "console"
)

// Key identifies one conversation.
type Key struct {
	Platform Platform `json:"platform"`
	UserID   string   `json:"user_id"`
}

// String renders the key as "platform:user".
func (k Key) String() string {
	return string(k.Platform) + ":" + k.UserID
}

// State is a step of the booking conversation.
type State string

const (
	StateIdle               State = "idle"
	StateAskService         State = "ask_service"
	StateAskDate            State = "ask_date"
	StateAskTime            State = "ask_time"
	StateAskLocation        State = "ask_location"
	StateSearchingProviders State = "searching_providers"
	StateShowProviders      State = "show_providers"
	StateConfirmBooking     State = "confirm_booking"
	StateCompleted          State = "completed"
)

// DefaultJobHours is the job duration used for price estimates. Users cannot
// change it yet.
const DefaultJobHours = 2

// Location is a geocoded job address.
type Location struct {
	Raw         string  `json:"raw"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name,omitempty"`
	Found       bool    `json:"found"`
}

// Provider is a candidate professional returned by a search.
type Provider struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Rating       *float64 `json:"rating,omitempty"`
	Reviews      *int     `json:"reviews,omitempty"`
	PricePerHour float64  `json:"price_per_hour"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
}

// Session is the mutable context of one in-progress conversation.
type Session struct {
	Key           Key          `json:"key"`
	State         State        `json:"state"`
	Service       ServiceID    `json:"service,omitempty"`
	Date          *time.Time   `json:"date,omitempty"`
	Time          *parse.Clock `json:"time,omitempty"`
	Location      *Location    `json:"location,omitempty"`
	Providers     []Provider   `json:"providers,omitempty"`
	Selected      *Provider    `json:"selected,omitempty"`
	PriceEstimate *float64     `json:"price_estimate,omitempty"`
	BookingID     string       `json:"booking_id,omitempty"`
	PaymentURL    string       `json:"payment_url,omitempty"`
}

// NewSession returns an idle session for key.
func NewSession(key Key) *Session {
	return &Session{Key: key, State: StateIdle}
}

// Clone returns a deep copy so stores never hand out shared mutable state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Date != nil {
		d := *s.Date
		out.Date = &d
	}
	if s.Time != nil {
		c := *s.Time
		out.Time = &c
	}
	if s.Location != nil {
		l := *s.Location
		out.Location = &l
	}
	if s.Providers != nil {
		out.Providers = make([]Provider, len(s.Providers))
		for i, p := range s.Providers {
			out.Providers[i] = p.clone()
		}
	}
	if s.Selected != nil {
		p := s.Selected.clone()
		out.Selected = &p
	}
	if s.PriceEstimate != nil {
		v := *s.PriceEstimate
		out.PriceEstimate = &v
	}
	return &out
}

func (p Provider) clone() Provider {
	out := p
	if p.Rating != nil {
		v := *p.Rating
		out.Rating = &v
	}
	if p.Reviews != nil {
		v := *p.Reviews
		out.Reviews = &v
	}
	if p.DistanceKm != nil {
		v := *p.DistanceKm
		out.DistanceKm = &v
	}
	return out
}

// ClearSearch drops search results and everything derived from them.
func (s *Session) ClearSearch() {
	s.Providers = nil
	s.ClearSelection()
}

// ClearSelection drops the picked provider and its price.
func (s *Session) ClearSelection() {
	s.Selected = nil
	s.PriceEstimate = nil
}

// Select picks the provider at the 1-based position shown to the user and
// computes the price estimate. It reports false for out-of-range positions.
func (s *Session) Select(position int) bool {
	if position < 1 || position > len(s.Providers) {
		return false
	}
	p := s.Providers[position-1].clone()
	s.Selected = &p
	price := p.PricePerHour * DefaultJobHours
	s.PriceEstimate = &price
	return true
}
