// Package collab implements the booking collaborators: the platform API for
// provider search and booking creation, a Nominatim geocoder, and in-process
// stand-ins used in demo mode.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/core/logger"
)

const component = "collab"

// StatusError is returned when the platform answers with a non-2xx status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collab: %s: status %d: %s", e.Op, e.Status, e.Body)
}

// Code exposes the HTTP status for log error codes.
func (e *StatusError) Code() string {
	return "http_" + strconv.Itoa(e.Status)
}

// APIClient talks to the Q-Emplois platform API.
type APIClient struct {
	base   string
	token  string
	client *http.Client
}

// NewAPIClient targets baseURL, authenticating with a bearer token when set.
func NewAPIClient(baseURL, token string, client *http.Client) *APIClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIClient{
		base:   strings.TrimRight(baseURL, "/"),
		token:  token,
		client: client,
	}
}

type providerDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Rating       *float64 `json:"rating"`
	Reviews      *int     `json:"reviews"`
	PricePerHour float64  `json:"price_per_hour"`
	DistanceKm   *float64 `json:"distance_km"`
}

type searchResponse struct {
	Providers []providerDTO `json:"providers"`
}

// SearchProviders implements booking.ProviderSearcher.
func (a *APIClient) SearchProviders(ctx context.Context, q booking.SearchQuery) ([]booking.Provider, error) {
	params := url.Values{}
	params.Set("service_type", string(q.Service))
	if !q.Date.IsZero() {
		params.Set("date", q.Date.Format(time.DateOnly))
	}
	params.Set("lat", strconv.FormatFloat(q.Lat, 'f', 6, 64))
	params.Set("lng", strconv.FormatFloat(q.Lng, 'f', 6, 64))
	params.Set("radius_km", strconv.Itoa(q.RadiusKm))

	var out searchResponse
	if err := a.do(ctx, http.MethodGet, "/api/providers/search?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	providers := make([]booking.Provider, 0, len(out.Providers))
	for _, p := range out.Providers {
		providers = append(providers, booking.Provider{
			ID:           p.ID,
			Name:         p.Name,
			Rating:       p.Rating,
			Reviews:      p.Reviews,
			PricePerHour: p.PricePerHour,
			DistanceKm:   p.DistanceKm,
		})
	}
	return providers, nil
}

type createRequest struct {
	Platform      string      `json:"platform"`
	UserID        string      `json:"user_id"`
	ServiceType   string      `json:"service_type"`
	ScheduledDate string      `json:"scheduled_date"`
	DurationHours int         `json:"duration_hours"`
	Location      locationDTO `json:"location"`
	ProviderID    string      `json:"provider_id"`
	PriceEstimate float64     `json:"price_estimate"`
}

type locationDTO struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type createResponse struct {
	BookingID  string `json:"booking_id"`
	PaymentURL string `json:"payment_url"`
}

// CreateBooking implements booking.BookingCreator.
func (a *APIClient) CreateBooking(ctx context.Context, req booking.BookingRequest) (booking.Confirmation, error) {
	at := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), req.Time.Hour, req.Time.Minute, 0, 0, req.Date.Location())
	body := createRequest{
		Platform:      string(req.Key.Platform),
		UserID:        req.Key.UserID,
		ServiceType:   string(req.Service),
		ScheduledDate: at.Format(time.RFC3339),
		DurationHours: booking.DefaultJobHours,
		Location: locationDTO{
			Address: req.Location.Raw,
			Lat:     req.Location.Lat,
			Lng:     req.Location.Lng,
		},
		ProviderID:    req.ProviderID,
		PriceEstimate: req.Estimate,
	}
	var out createResponse
	if err := a.do(ctx, http.MethodPost, "/api/bookings", body, &out); err != nil {
		return booking.Confirmation{}, err
	}
	if out.BookingID == "" {
		return booking.Confirmation{}, fmt.Errorf("collab: create booking: empty booking id")
	}
	return booking.Confirmation{BookingID: out.BookingID, PaymentURL: out.PaymentURL}, nil
}

func (a *APIClient) do(ctx context.Context, method, path string, in, out any) error {
	op := method + " " + strings.SplitN(path, "?", 2)[0]

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("collab: %s: encode: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, body)
	if err != nil {
		return fmt.Errorf("collab: %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("collab: %s: %w", op, err)
	}
	defer resp.Body.Close()

	logger.Debug(ctx, component, "api.call",
		slog.String("op", op),
		slog.Int("http_code", resp.StatusCode),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("collab: %s: decode: %w", op, err)
	}
	return nil
}
