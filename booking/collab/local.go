package collab

import (
	"context"
	"time"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/format"
)

func ptr[T any](v T) *T { return &v }

// DemoProviders is the fixed roster served in demo mode.
func DemoProviders() []booking.Provider {
	return []booking.Provider{
		{ID: "prov_001", Name: "Jean Tremblay", Rating: ptr(4.8), Reviews: ptr(127), PricePerHour: 45, DistanceKm: ptr(2.1)},
		{ID: "prov_002", Name: "Marie Gagnon", Rating: ptr(4.9), Reviews: ptr(89), PricePerHour: 50, DistanceKm: ptr(3.2)},
		{ID: "prov_003", Name: "Robert Lavoie", Rating: ptr(4.6), Reviews: ptr(203), PricePerHour: 40, DistanceKm: ptr(4.8)},
	}
}

// Static answers every search with the same providers.
type Static struct {
	Providers []booking.Provider
}

// SearchProviders implements booking.ProviderSearcher.
func (s Static) SearchProviders(ctx context.Context, _ booking.SearchQuery) ([]booking.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]booking.Provider, len(s.Providers))
	copy(out, s.Providers)
	return out, nil
}

// LocalCreator confirms bookings without calling the platform.
type LocalCreator struct {
	Links format.Links
	Now   func() time.Time
}

// CreateBooking implements booking.BookingCreator.
func (l LocalCreator) CreateBooking(_ context.Context, _ booking.BookingRequest) (booking.Confirmation, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	links := l.Links
	if links.PaymentFmt == "" {
		links = format.DefaultLinks
	}
	id := booking.NewBookingID(now())
	return booking.Confirmation{BookingID: id, PaymentURL: links.PaymentURL(id)}, nil
}
