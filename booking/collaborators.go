package booking

import (
	"context"
	"time"

	"github.com/qemplois/assistant/booking/parse"
)

// FallbackLat and FallbackLng locate downtown Montréal. Geocoders return them
// with Found=false when an address cannot be resolved.
const (
	FallbackLat = 45.5019
	FallbackLng = -73.5674
)

// GeoResult is the outcome of a geocoding lookup.
type GeoResult struct {
	Lat         float64
	Lng         float64
	DisplayName string
	Found       bool
}

// FallbackGeoResult is returned by geocoders when the lookup fails.
func FallbackGeoResult() GeoResult {
	return GeoResult{Lat: FallbackLat, Lng: FallbackLng}
}

// Geocoder resolves free-form addresses. Implementations never fail: misses
// come back as FallbackGeoResult.
type Geocoder interface {
	Geocode(ctx context.Context, address string) GeoResult
}

// SearchQuery describes a provider search.
type SearchQuery struct {
	Service  ServiceID
	Date     time.Time
	Lat      float64
	Lng      float64
	RadiusKm int
}

// ProviderSearcher lists providers for a job. An empty slice is a valid answer.
type ProviderSearcher interface {
	SearchProviders(ctx context.Context, q SearchQuery) ([]Provider, error)
}

// BookingRequest carries everything needed to create a booking.
type BookingRequest struct {
	Key        Key
	Service    ServiceID
	Date       time.Time
	Time       parse.Clock
	Location   Location
	ProviderID string
	Estimate   float64
}

// Confirmation is returned by a successful booking creation.
type Confirmation struct {
	BookingID  string
	PaymentURL string
}

// BookingCreator creates bookings on the platform.
type BookingCreator interface {
	CreateBooking(ctx context.Context, req BookingRequest) (Confirmation, error)
}

// Record is a confirmed booking as kept in the ledger.
type Record struct {
	BookingID    string
	Key          Key
	Service      ServiceID
	ScheduledAt  time.Time
	Address      string
	ProviderID   string
	ProviderName string
	Estimate     float64
	PaymentURL   string
	CreatedAt    time.Time
}

// Ledger stores confirmed bookings for later lookup.
type Ledger interface {
	Record(ctx context.Context, rec Record) error
	ListByUser(ctx context.Context, key Key, limit int) ([]Record, error)
}
