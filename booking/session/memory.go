package session

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/qemplois/assistant/booking"
	"github.com/qemplois/assistant/core/logger"
)

const shardCount = 16

// EvictionPolicy decides whether an idle session should be dropped.
type EvictionPolicy interface {
	Expired(s *booking.Session, lastSeen, now time.Time) bool
}

// TTL evicts sessions untouched for longer than its duration. Zero never evicts.
type TTL time.Duration

// Expired implements EvictionPolicy.
func (t TTL) Expired(_ *booking.Session, lastSeen, now time.Time) bool {
	return t > 0 && now.Sub(lastSeen) > time.Duration(t)
}

type entry struct {
	session  *booking.Session
	lastSeen time.Time
}

type shard struct {
	mu       sync.RWMutex
	sessions map[booking.Key]entry
}

// Memory is a sharded in-process Store.
type Memory struct {
	shards [shardCount]*shard
	policy EvictionPolicy
	now    func() time.Time
}

// MemoryOption customizes a Memory store.
type MemoryOption func(*Memory)

// WithPolicy sets the eviction policy. The default never evicts.
func WithPolicy(p EvictionPolicy) MemoryOption {
	return func(m *Memory) {
		if p != nil {
			m.policy = p
		}
	}
}

// WithClock overrides the time source used for eviction.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory constructs an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{policy: TTL(0), now: time.Now}
	for i := range m.shards {
		m.shards[i] = &shard{sessions: make(map[booking.Key]entry)}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) shardFor(key booking.Key) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.String()))
	return m.shards[h.Sum32()%shardCount]
}

// Get returns a copy of the stored session and marks it as seen, so the TTL
// counts from the last turn. Expired sessions read as missing.
func (m *Memory) Get(_ context.Context, key booking.Key) (*booking.Session, bool, error) {
	sh := m.shardFor(key)
	now := m.now()
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.sessions[key]
	if !ok {
		return nil, false, nil
	}
	if m.policy.Expired(e.session, e.lastSeen, now) {
		delete(sh.sessions, key)
		return nil, false, nil
	}
	e.lastSeen = now
	sh.sessions[key] = e
	return e.session.Clone(), true, nil
}

// Put stores a copy of s.
func (m *Memory) Put(_ context.Context, s *booking.Session) error {
	if s == nil {
		return ErrNilSession
	}
	sh := m.shardFor(s.Key)
	sh.mu.Lock()
	sh.sessions[s.Key] = entry{session: s.Clone(), lastSeen: m.now()}
	sh.mu.Unlock()
	return nil
}

// Delete removes the session for key.
func (m *Memory) Delete(_ context.Context, key booking.Key) error {
	sh := m.shardFor(key)
	sh.mu.Lock()
	delete(sh.sessions, key)
	sh.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired or not.
func (m *Memory) Len() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// States counts stored sessions per conversation state.
func (m *Memory) States() map[booking.State]int {
	out := make(map[booking.State]int)
	for _, sh := range m.shards {
		sh.mu.RLock()
		for _, e := range sh.sessions {
			out[e.session.State]++
		}
		sh.mu.RUnlock()
	}
	return out
}

// Sweep drops every session the policy considers expired at now.
func (m *Memory) Sweep(now time.Time) int {
	evicted := 0
	for _, sh := range m.shards {
		sh.mu.Lock()
		for key, e := range sh.sessions {
			if m.policy.Expired(e.session, e.lastSeen, now) {
				delete(sh.sessions, key)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}

// Janitor sweeps expired sessions every interval until ctx is done.
func (m *Memory) Janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if n := m.Sweep(m.now()); n > 0 {
				logger.Debug(ctx, "session", "session.sweep",
					slog.String("status", "ok"),
					slog.Int("evicted", n),
					slog.Int("sessions", m.Len()),
					slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
				)
			}
		}
	}
}
