package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/qemplois/assistant/booking"
)

func TestMemoryRoundTripIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := booking.Key{Platform: booking.PlatformTelegram, UserID: "7"}

	if _, ok, err := m.Get(ctx, key); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	s := booking.NewSession(key)
	s.State = booking.StateAskDate
	s.Service = "plomberie"
	if err := m.Put(ctx, s); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.State = booking.StateCompleted

	got, ok, err := m.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.State != booking.StateAskDate {
		t.Fatalf("store aliases caller session: %s", got.State)
	}
	got.Service = "nettoyage"
	again, _, _ := m.Get(ctx, key)
	if again.Service != "plomberie" {
		t.Fatal("store hands out shared sessions")
	}

	if err := m.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, key); ok {
		t.Fatal("session survived delete")
	}
	if err := m.Delete(ctx, key); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestMemoryKeysArePerPlatform(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	tg := booking.NewSession(booking.Key{Platform: booking.PlatformTelegram, UserID: "1"})
	tg.State = booking.StateAskTime
	wa := booking.NewSession(booking.Key{Platform: booking.PlatformWhatsApp, UserID: "1"})
	if err := m.Put(ctx, tg); err != nil {
		t.Fatal(err)
	}
	if err := m.Put(ctx, wa); err != nil {
		t.Fatal(err)
	}
	got, _, _ := m.Get(ctx, wa.Key)
	if got.State != booking.StateIdle {
		t.Fatalf("platforms share a session: %s", got.State)
	}
	if m.Len() != 2 {
		t.Fatalf("len = %d", m.Len())
	}
}

func TestMemoryPutNil(t *testing.T) {
	if err := NewMemory().Put(context.Background(), nil); err != ErrNilSession {
		t.Fatalf("err = %v", err)
	}
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m := NewMemory(WithPolicy(TTL(30*time.Minute)), WithClock(func() time.Time { return now }))

	a := booking.NewSession(booking.Key{Platform: booking.PlatformTelegram, UserID: "a"})
	b := booking.NewSession(booking.Key{Platform: booking.PlatformTelegram, UserID: "b"})
	_ = m.Put(ctx, a)
	now = now.Add(20 * time.Minute)
	_ = m.Put(ctx, b)
	now = now.Add(20 * time.Minute)

	if _, ok, _ := m.Get(ctx, a.Key); ok {
		t.Fatal("expired session returned")
	}
	if _, ok, _ := m.Get(ctx, b.Key); !ok {
		t.Fatal("live session evicted")
	}
	if n := m.Sweep(now.Add(time.Hour)); n != 1 {
		t.Fatalf("sweep evicted %d", n)
	}
	if m.Len() != 0 {
		t.Fatalf("len = %d", m.Len())
	}
}

func TestMemoryGetKeepsSessionAlive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m := NewMemory(WithPolicy(TTL(30*time.Minute)), WithClock(func() time.Time { return now }))

	s := booking.NewSession(booking.Key{Platform: booking.PlatformTelegram, UserID: "idle"})
	s.State = booking.StateAskDate
	_ = m.Put(ctx, s)
	for range 4 {
		now = now.Add(10 * time.Minute)
		if _, ok, _ := m.Get(ctx, s.Key); !ok {
			t.Fatalf("session evicted at %s while still active", now.Format(time.Kitchen))
		}
	}
	if n := m.Sweep(now.Add(20 * time.Minute)); n != 0 {
		t.Fatalf("sweep evicted %d active sessions", n)
	}
	if n := m.Sweep(now.Add(31 * time.Minute)); n != 1 {
		t.Fatalf("sweep evicted %d idle sessions", n)
	}
}

func TestMemoryStates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i, st := range []booking.State{booking.StateAskDate, booking.StateAskDate, booking.StateCompleted} {
		s := booking.NewSession(booking.Key{Platform: booking.PlatformConsole, UserID: fmt.Sprint(i)})
		s.State = st
		_ = m.Put(ctx, s)
	}
	got := m.States()
	if got[booking.StateAskDate] != 2 || got[booking.StateCompleted] != 1 {
		t.Fatalf("states = %v", got)
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := booking.Key{Platform: booking.PlatformWhatsApp, UserID: fmt.Sprint(i % 8)}
			for j := 0; j < 100; j++ {
				s, _, _ := Load(ctx, m, key)
				s.State = booking.StateAskService
				_ = m.Put(ctx, s)
			}
		}(i)
	}
	wg.Wait()
	if m.Len() != 8 {
		t.Fatalf("len = %d", m.Len())
	}
}

func TestJanitorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMemory(WithPolicy(TTL(time.Nanosecond)))
	_ = m.Put(ctx, booking.NewSession(booking.Key{Platform: booking.PlatformConsole, UserID: "x"}))
	done := make(chan struct{})
	go func() {
		m.Janitor(ctx, time.Millisecond)
		close(done)
	}()
	deadline := time.After(2 * time.Second)
	for m.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor never swept")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
