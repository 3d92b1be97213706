package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/core/logger"
)

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flow: collaborator panic: %v", r)
		}
	}()
	return fn()
}

func (e *Engine) geocode(ctx context.Context, address string) booking.GeoResult {
	if e.deps.Geocoder == nil {
		return booking.FallbackGeoResult()
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SearchTimeout)
	defer cancel()

	res := booking.FallbackGeoResult()
	err := guard(func() error {
		res = e.deps.Geocoder.Geocode(ctx, address)
		return nil
	})
	if err != nil {
		logger.Warn(ctx, component, "geocode.fallback",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return booking.FallbackGeoResult()
	}
	if !res.Found {
		logger.Warn(ctx, component, "geocode.fallback",
			slog.String("status", "skip"),
			slog.String("cause", "not_found"),
		)
	}
	return res
}

func (e *Engine) searchProviders(ctx context.Context, s *booking.Session) []booking.Provider {
	if e.deps.Searcher == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SearchTimeout)
	defer cancel()

	q := booking.SearchQuery{
		Service:  s.Service,
		Lat:      booking.FallbackLat,
		Lng:      booking.FallbackLng,
		RadiusKm: e.cfg.SearchRadiusKm,
	}
	if s.Location != nil {
		q.Lat, q.Lng = s.Location.Lat, s.Location.Lng
	}
	if s.Date != nil {
		q.Date = *s.Date
	}

	start := time.Now()
	var providers []booking.Provider
	err := guard(func() error {
		var err error
		providers, err = e.deps.Searcher.SearchProviders(ctx, q)
		return err
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		logger.Warn(ctx, component, "search.fallback",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
		)
		return nil
	}
	return providers
}

func (e *Engine) createBooking(ctx context.Context, s *booking.Session) booking.Confirmation {
	local := booking.Confirmation{BookingID: booking.NewBookingID(e.now())}
	if e.deps.Creator == nil {
		return local
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CreateTimeout)
	defer cancel()

	req := booking.BookingRequest{
		Key:        s.Key,
		Service:    s.Service,
		Date:       *s.Date,
		Time:       *s.Time,
		Location:   *s.Location,
		ProviderID: s.Selected.ID,
		Estimate:   *s.PriceEstimate,
	}
	var conf booking.Confirmation
	err := guard(func() error {
		var err error
		conf, err = e.deps.Creator.CreateBooking(ctx, req)
		return err
	})
	if err == nil && conf.BookingID == "" {
		err = fmt.Errorf("flow: empty booking id")
	}
	if err != nil {
		logger.Warn(ctx, component, "booking.fallback",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.String("booking_id", local.BookingID),
		)
		return local
	}
	return conf
}

// record stores the confirmed booking. Failures are logged, never surfaced.
func (e *Engine) record(ctx context.Context, s *booking.Session) {
	if e.deps.Ledger == nil {
		return
	}
	rec := booking.Record{
		BookingID:    s.BookingID,
		Key:          s.Key,
		Service:      s.Service,
		ScheduledAt:  scheduledAt(s),
		Address:      s.Location.Raw,
		ProviderID:   s.Selected.ID,
		ProviderName: s.Selected.Name,
		Estimate:     *s.PriceEstimate,
		PaymentURL:   s.PaymentURL,
		CreatedAt:    e.now(),
	}
	err := guard(func() error { return e.deps.Ledger.Record(ctx, rec) })
	if err != nil {
		logger.Error(ctx, component, "ledger.record",
			slog.String("status", "fail"),
			slog.String("booking_id", s.BookingID),
			slog.String("err", err.Error()),
		)
	}
}

func scheduledAt(s *booking.Session) time.Time {
	d := *s.Date
	return time.Date(d.Year(), d.Month(), d.Day(), s.Time.Hour, s.Time.Minute, 0, 0, d.Location())
}
