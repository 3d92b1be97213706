package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/qemplois/assistant/booking"
)

// Memory is an in-process ledger for runs without a database.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]booking.Record
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{recs: make(map[string]booking.Record)}
}

// Record stores rec unless its id is already known.
func (m *Memory) Record(_ context.Context, rec booking.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[rec.BookingID]; !ok {
		m.recs[rec.BookingID] = rec
	}
	return nil
}

// ListByUser mirrors Repository.ListByUser ordering.
func (m *Memory) ListByUser(_ context.Context, key booking.Key, limit int) ([]booking.Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	m.mu.RLock()
	var out []booking.Record
	for _, r := range m.recs {
		if r.Key == key {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
