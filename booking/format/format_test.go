package format

import (
	"strings"
	"testing"
	"time"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/parse"
)

func ptr[T any](v T) *T { return &v }

func TestPrice(t *testing.T) {
	cases := map[float64]string{
		45:    "45 $",
		45.99: "46 $",
		45.4:  "45 $",
		90:    "90 $",
		0:     "0 $",
	}
	for in, want := range cases {
		if got := Price(in); got != want {
			t.Fatalf("Price(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDistance(t *testing.T) {
	cases := map[float64]string{
		2.5:    "2.5 km",
		0.5:    "500 m",
		0.57:   "570 m",
		1:      "1.0 km",
		4.84:   "4.8 km",
		0.9996: "1.0 km",
		0.9994: "999 m",
	}
	for in, want := range cases {
		if got := Distance(in); got != want {
			t.Fatalf("Distance(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDateLong(t *testing.T) {
	d := time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)
	if got := DateLong(d); got != "Mardi 20 octobre" {
		t.Fatalf("got %q", got)
	}
	d = time.Date(2027, time.February, 20, 0, 0, 0, 0, time.UTC)
	if got := DateLong(d); got != "Samedi 20 février" {
		t.Fatalf("got %q", got)
	}
}

func TestChoices(t *testing.T) {
	cases := map[int]string{1: "1", 2: "1 ou 2", 3: "1, 2 ou 3", 4: "1, 2, 3 ou 4"}
	for n, want := range cases {
		if got := Choices(n); got != want {
			t.Fatalf("Choices(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestPaymentURL(t *testing.T) {
	got := DefaultLinks.PaymentURL("QEP-20261020-AB12CD")
	if got != "https://pay.qemplois.ca/sess_qep20261020ab12cd" {
		t.Fatalf("got %q", got)
	}
}

func sampleSession() *booking.Session {
	d := time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)
	s := booking.NewSession(booking.Key{Platform: booking.PlatformTelegram, UserID: "42"})
	s.State = booking.StateShowProviders
	s.Service = "plomberie"
	s.Date = &d
	s.Time = &parse.Clock{Hour: 14, Minute: 30}
	s.Location = &booking.Location{Raw: "1234 rue Sherbrooke, Montréal", Found: true}
	s.Providers = []booking.Provider{
		{ID: "prov_001", Name: "Jean Tremblay", Rating: ptr(4.8), Reviews: ptr(127), PricePerHour: 45, DistanceKm: ptr(2.1)},
		{ID: "prov_002", Name: "Marie Gagnon", PricePerHour: 50, DistanceKm: ptr(0.8)},
	}
	return s
}

func TestProviderList(t *testing.T) {
	s := sampleSession()
	before := s.Clone()
	got := ProviderList(s)
	want := "🔍 J'ai trouvé 2 professionnels:\n\n" +
		"1. Jean Tremblay ⭐ 4.8 (127 avis)\n   45 $/heure - 2.1 km\n\n" +
		"2. Marie Gagnon\n   50 $/heure - 800 m\n\n" +
		"Quel professionnel préférez-vous? (1 ou 2)\n" +
		"Ou tapez 'autre' pour chercher une autre date."
	if got != want {
		t.Fatalf("unexpected list:\n%s\nwant:\n%s", got, want)
	}
	if got != ProviderList(s) {
		t.Fatal("provider list is not deterministic")
	}
	if s.Providers[0].Name != before.Providers[0].Name || len(s.Providers) != len(before.Providers) {
		t.Fatal("formatter mutated the session")
	}
}

func TestProviderListEmpty(t *testing.T) {
	s := sampleSession()
	s.Providers = nil
	if got := ProviderList(s); got != NoProviders() {
		t.Fatalf("got %q", got)
	}
}

func TestSummaryAndConfirmation(t *testing.T) {
	s := sampleSession()
	s.Select(1)
	sum := Summary(s)
	for _, want := range []string{
		"Service: 🔧 Plomberie",
		"Date: Mardi 20 octobre à 14h30",
		"Lieu: 1234 rue Sherbrooke, Montréal",
		"Professionnel: Jean Tremblay",
		"⭐ 4.8 (127 avis)",
		"💰 Prix estimé: 90 $ (2 heures)",
	} {
		if !strings.Contains(sum, want) {
			t.Fatalf("summary missing %q:\n%s", want, sum)
		}
	}

	s.BookingID = "QEP-20261020-AB12CD"
	s.PaymentURL = DefaultLinks.PaymentURL(s.BookingID)
	conf := Confirmation(s)
	for _, want := range []string{
		"#QEP-20261020-AB12CD",
		"https://pay.qemplois.ca/sess_qep20261020ab12cd",
		"Jean arrivera mardi 20 octobre entre 14h15 et 14h45.",
	} {
		if !strings.Contains(conf, want) {
			t.Fatalf("confirmation missing %q:\n%s", want, conf)
		}
	}
}

func TestConfirmationArrivalWindowClamps(t *testing.T) {
	s := sampleSession()
	s.Select(2)
	s.Time = &parse.Clock{Hour: 9, Minute: 50}
	s.BookingID = "X"
	if got := Confirmation(s); !strings.Contains(got, "entre 9h35 et 9h59") {
		t.Fatalf("unexpected window:\n%s", got)
	}
	s.Time = &parse.Clock{Hour: 9}
	if got := Confirmation(s); !strings.Contains(got, "entre 9h00 et 9h15") {
		t.Fatalf("unexpected window:\n%s", got)
	}
}

func TestBookings(t *testing.T) {
	if got := Bookings(nil); !strings.Contains(got, "aucune réservation") {
		t.Fatalf("got %q", got)
	}
	recs := []booking.Record{{
		BookingID:    "QEP-1",
		Service:      "nettoyage",
		ScheduledAt:  time.Date(2026, time.October, 20, 9, 30, 0, 0, time.UTC),
		ProviderName: "Robert Lavoie",
		Estimate:     80,
	}}
	got := Bookings(recs)
	if !strings.Contains(got, "#QEP-1\n🧹 Nettoyage - Mardi 20 octobre à 9h30\nRobert Lavoie - 80 $") {
		t.Fatalf("got %q", got)
	}
}

func TestJobAlert(t *testing.T) {
	got := JobAlert(Job{
		BookingID:  "QEP-1",
		Service:    "plomberie",
		Date:       "2026-10-20",
		Time:       "14h",
		Location:   "Montréal",
		DistanceKm: 2.14,
		Estimate:   90,
		Notes:      "Fuite sous l'évier",
	})
	for _, want := range []string{"🔧 Service: Plomberie", "(2.1 km)", "👤 Client: Client", "💰 Prix estimé: 90 $", "📝 Notes: Fuite"} {
		if !strings.Contains(got, want) {
			t.Fatalf("alert missing %q:\n%s", want, got)
		}
	}
}
