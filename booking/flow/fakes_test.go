package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/booking/session"
)

type fakeGeocoder struct{ panics bool }

func (g fakeGeocoder) Geocode(_ context.Context, address string) booking.GeoResult {
	if g.panics {
		panic("geocoder down")
	}
	return booking.GeoResult{Lat: 45.52, Lng: -73.58, DisplayName: address, Found: true}
}

type fakeSearcher struct {
	providers []booking.Provider
	err       error
	block     bool
	calls     int
}

func (f *fakeSearcher) SearchProviders(ctx context.Context, _ booking.SearchQuery) ([]booking.Provider, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]booking.Provider(nil), f.providers...), nil
}

type fakeCreator struct {
	conf booking.Confirmation
	err  error
	last booking.BookingRequest
}

func (f *fakeCreator) CreateBooking(_ context.Context, req booking.BookingRequest) (booking.Confirmation, error) {
	f.last = req
	return f.conf, f.err
}

type fakeLedger struct {
	mu   sync.Mutex
	recs []booking.Record
	err  error
}

func (l *fakeLedger) Record(_ context.Context, rec booking.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.recs = append(l.recs, rec)
	return nil
}

func (l *fakeLedger) ListByUser(_ context.Context, key booking.Key, limit int) ([]booking.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	var out []booking.Record
	for i := len(l.recs) - 1; i >= 0 && len(out) < limit; i-- {
		if l.recs[i].Key == key {
			out = append(out, l.recs[i])
		}
	}
	return out, nil
}

type failingStore struct{ session.Store }

func (failingStore) Put(context.Context, *booking.Session) error { return errors.New("store down") }

func ptr[T any](v T) *T { return &v }

func demoProviders() []booking.Provider {
	return []booking.Provider{
		{ID: "prov_001", Name: "Jean Tremblay", Rating: ptr(4.8), Reviews: ptr(127), PricePerHour: 45, DistanceKm: ptr(2.1)},
		{ID: "prov_002", Name: "Marie Gagnon", Rating: ptr(4.9), Reviews: ptr(89), PricePerHour: 50, DistanceKm: ptr(3.2)},
		{ID: "prov_003", Name: "Robert Lavoie", Rating: ptr(4.6), Reviews: ptr(203), PricePerHour: 40, DistanceKm: ptr(4.8)},
	}
}

// refTime is Monday 19 October 2026, 10:00 UTC.
var refTime = time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)

type harness struct {
	engine   *Engine
	store    *session.Memory
	searcher *fakeSearcher
	creator  *fakeCreator
	ledger   *fakeLedger
	key      booking.Key
}

func newHarness(t *testing.T, providers []booking.Provider) *harness {
	t.Helper()
	h := &harness{
		store:    session.NewMemory(),
		searcher: &fakeSearcher{providers: providers},
		creator:  &fakeCreator{conf: booking.Confirmation{BookingID: "QEP-20261020-API001", PaymentURL: "https://pay.example/abc"}},
		ledger:   &fakeLedger{},
		key:      booking.Key{Platform: booking.PlatformTelegram, UserID: "42"},
	}
	eng, err := New(Deps{
		Store:    h.store,
		Geocoder: fakeGeocoder{},
		Searcher: h.searcher,
		Creator:  h.creator,
		Ledger:   h.ledger,
	}, Config{SearchTimeout: 50 * time.Millisecond, CreateTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	eng.Now = func() time.Time { return refTime }
	h.engine = eng
	return h
}

func (h *harness) send(t *testing.T, text string) Reply {
	t.Helper()
	r, err := h.engine.HandleMessage(context.Background(), h.key, text)
	if err != nil {
		t.Fatalf("HandleMessage(%q): %v", text, err)
	}
	return r
}

func (h *harness) session(t *testing.T) *booking.Session {
	t.Helper()
	s, ok, err := h.store.Get(context.Background(), h.key)
	if err != nil || !ok {
		t.Fatalf("session missing: ok=%v err=%v", ok, err)
	}
	return s
}

func (h *harness) walkTo(t *testing.T, st booking.State) {
	t.Helper()
	steps := []struct {
		text  string
		after booking.State
	}{
		{"/start", booking.StateAskService},
		{"1", booking.StateAskDate},
		{"demain", booking.StateAskTime},
		{"14h", booking.StateAskLocation},
		{"1234 rue Sherbrooke, Montréal H2X 1A1", booking.StateShowProviders},
		{"1", booking.StateConfirmBooking},
		{"oui", booking.StateCompleted},
	}
	for _, step := range steps {
		if h.stateOf(t) == st {
			return
		}
		h.send(t, step.text)
		if got := h.session(t).State; got != step.after {
			t.Fatalf("after %q: state = %s, want %s", step.text, got, step.after)
		}
	}
	if h.stateOf(t) != st {
		t.Fatalf("could not reach %s", st)
	}
}

func (h *harness) stateOf(t *testing.T) booking.State {
	t.Helper()
	s, ok, _ := h.store.Get(context.Background(), h.key)
	if !ok {
		return ""
	}
	return s.State
}
