// Package ledger keeps confirmed bookings so users can list them later.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/core/logger"
)

const component = "ledger"

// DefaultListLimit caps ListByUser when callers pass a non-positive limit.
const DefaultListLimit = 10

type row struct {
	BookingID    string    `db:"booking_id"`
	Platform     string    `db:"platform"`
	UserID       string    `db:"user_id"`
	Service      string    `db:"service"`
	ScheduledAt  time.Time `db:"scheduled_at"`
	Address      string    `db:"address"`
	ProviderID   string    `db:"provider_id"`
	ProviderName string    `db:"provider_name"`
	Estimate     float64   `db:"price_estimate"`
	PaymentURL   string    `db:"payment_url"`
	CreatedAt    time.Time `db:"created_at"`
}

func fromRecord(r booking.Record) row {
	return row{
		BookingID:    r.BookingID,
		Platform:     string(r.Key.Platform),
		UserID:       r.Key.UserID,
		Service:      string(r.Service),
		ScheduledAt:  r.ScheduledAt.UTC(),
		Address:      r.Address,
		ProviderID:   r.ProviderID,
		ProviderName: r.ProviderName,
		Estimate:     r.Estimate,
		PaymentURL:   r.PaymentURL,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (r row) record() booking.Record {
	return booking.Record{
		BookingID:    r.BookingID,
		Key:          booking.Key{Platform: booking.Platform(r.Platform), UserID: r.UserID},
		Service:      booking.ServiceID(r.Service),
		ScheduledAt:  r.ScheduledAt,
		Address:      r.Address,
		ProviderID:   r.ProviderID,
		ProviderName: r.ProviderName,
		Estimate:     r.Estimate,
		PaymentURL:   r.PaymentURL,
		CreatedAt:    r.CreatedAt,
	}
}

// Repository stores records in the bookings table.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps an open connection.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const insertBooking = `
INSERT INTO bookings (
	booking_id, platform, user_id, service, scheduled_at, address,
	provider_id, provider_name, price_estimate, payment_url, created_at
) VALUES (
	:booking_id, :platform, :user_id, :service, :scheduled_at, :address,
	:provider_id, :provider_name, :price_estimate, :payment_url, :created_at
)
ON CONFLICT (booking_id) DO NOTHING`

// Record inserts rec. Replaying a booking id is a no-op.
func (r *Repository) Record(ctx context.Context, rec booking.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	start := time.Now()
	res, err := r.db.NamedExecContext(ctx, insertBooking, fromRecord(rec))
	if err != nil {
		logger.Error(ctx, component, "db.insert",
			slog.String("status", "fail"),
			slog.String("booking_id", rec.BookingID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("ledger: insert %s: %w", rec.BookingID, err)
	}
	n, _ := res.RowsAffected()
	logger.Debug(ctx, component, "db.insert",
		slog.String("status", "ok"),
		slog.String("booking_id", rec.BookingID),
		slog.Int64("rows", n),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	)
	return nil
}

const selectByUser = `
SELECT booking_id, platform, user_id, service, scheduled_at, address,
	provider_id, provider_name, price_estimate, payment_url, created_at
FROM bookings
WHERE platform = $1 AND user_id = $2
ORDER BY scheduled_at DESC
LIMIT $3`

// ListByUser returns the user's most recent bookings first.
func (r *Repository) ListByUser(ctx context.Context, key booking.Key, limit int) ([]booking.Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, selectByUser, string(key.Platform), key.UserID, limit); err != nil {
		return nil, fmt.Errorf("ledger: list %s: %w", key, err)
	}
	out := make([]booking.Record, 0, len(rows))
	for _, rw := range rows {
		out = append(out, rw.record())
	}
	return out, nil
}
