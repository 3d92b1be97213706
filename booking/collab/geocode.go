package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/core/logger"
)

// DefaultNominatimURL is the public OpenStreetMap search endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim geocodes addresses in Canada through a Nominatim server.
type Nominatim struct {
	base      string
	userAgent string
	client    *http.Client
}

// NewNominatim targets baseURL. Nominatim's usage policy requires a
// descriptive user agent.
func NewNominatim(baseURL, userAgent string, client *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Nominatim{
		base:      strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode implements booking.Geocoder. Misses and failures return the
// fallback location.
func (n *Nominatim) Geocode(ctx context.Context, address string) booking.GeoResult {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "ca")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.base+"/search?"+params.Encode(), nil)
	if err != nil {
		return n.fail(ctx, err)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return n.fail(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return n.fail(ctx, &StatusError{Op: "geocode", Status: resp.StatusCode})
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return n.fail(ctx, err)
	}
	if len(places) == 0 {
		return booking.FallbackGeoResult()
	}
	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return n.fail(ctx, errLat)
	}
	return booking.GeoResult{Lat: lat, Lng: lng, DisplayName: places[0].DisplayName, Found: true}
}

func (n *Nominatim) fail(ctx context.Context, err error) booking.GeoResult {
	msg := "invalid coordinates"
	if err != nil {
		msg = err.Error()
	}
	logger.Warn(ctx, component, "geocode.fail",
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(msg, 256)),
	)
	return booking.FallbackGeoResult()
}
