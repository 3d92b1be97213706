package format

import (
	"fmt"
	"strings"
)

var serviceIcons = map[string]string{
	"plomberie":    "🔧",
	"plumber":      "🔧",
	"électricité":  "⚡",
	"electricity":  "⚡",
	"électricien":  "⚡",
	"nettoyage":    "🧹",
	"cleaning":     "🧹",
	"jardinage":    "🌱",
	"gardening":    "🌱",
	"déménagement": "🚚",
	"moving":       "🚚",
	"peinture":     "🎨",
	"painting":     "🎨",
}

func serviceIcon(service string) string {
	if icon, ok := serviceIcons[strings.ToLower(strings.TrimSpace(service))]; ok {
		return icon
	}
	return "🔧"
}

func title(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// Job is a booking as announced to a provider. Client names arrive masked.
type Job struct {
	BookingID  string  `json:"booking_id"`
	Service    string  `json:"service_type"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Location   string  `json:"location"`
	DistanceKm float64 `json:"distance_km"`
	ClientName string  `json:"client_name"`
	Estimate   float64 `json:"price_estimate"`
	Notes      string  `json:"notes,omitempty"`
}

// JobAlert notifies a provider about a new request.
func JobAlert(j Job) string {
	client := j.ClientName
	if client == "" {
		client = "Client"
	}
	var b strings.Builder
	b.WriteString("🔔 NOUVELLE DEMANDE!\n\n")
	fmt.Fprintf(&b, "%s Service: %s\n", serviceIcon(j.Service), title(j.Service))
	fmt.Fprintf(&b, "📅 Date: %s\n", j.Date)
	fmt.Fprintf(&b, "🕐 Heure: %s\n", j.Time)
	fmt.Fprintf(&b, "📍 Lieu: %s (%.1f km)\n", j.Location, j.DistanceKm)
	fmt.Fprintf(&b, "👤 Client: %s\n", client)
	fmt.Fprintf(&b, "💰 Prix estimé: %s\n", Price(j.Estimate))
	if j.Notes != "" {
		fmt.Fprintf(&b, "\n📝 Notes: %s\n", j.Notes)
	}
	b.WriteString("\nAccepter? 👍 / Refuser? 👎")
	return b.String()
}

// ClientBooking is a provider-confirmed booking as announced to the client.
type ClientBooking struct {
	BookingID     string `json:"booking_id"`
	ProviderName  string `json:"provider_name"`
	ProviderPhone string `json:"provider_phone"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Service       string `json:"service_type"`
	CancelToken   string `json:"cancel_token"`
}

// ClientConfirmed tells the client their provider accepted.
func ClientConfirmed(c ClientBooking, l Links) string {
	return fmt.Sprintf(`✅ Votre réservation est confirmée!

%s Service: %s
👤 %s
📞 %s
📅 %s à %s

Numéro de suivi: #%s
Annuler: %s/%s`,
		serviceIcon(c.Service), title(c.Service),
		c.ProviderName, c.ProviderPhone, c.Date, c.Time,
		c.BookingID, l.Cancel, c.CancelToken)
}

// Cancelled tells the client a booking was cancelled.
func Cancelled(bookingID string) string {
	return fmt.Sprintf("❌ Votre réservation #%s a été annulée.", bookingID)
}
