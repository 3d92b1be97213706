// Package ratelimit holds per-sender token buckets shared by the chat transports.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Keyed hands out one token bucket per key and forgets idle ones.
type Keyed struct {
	every time.Duration
	burst int
	idle  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*entry
	lastGC   time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New allows one event per every with the given burst. A non-positive every
// disables limiting.
func New(every time.Duration, burst int) *Keyed {
	if burst <= 0 {
		burst = 1
	}
	idle := 10 * every
	if idle < time.Minute {
		idle = time.Minute
	}
	return &Keyed{
		every:    every,
		burst:    burst,
		idle:     idle,
		now:      time.Now,
		limiters: make(map[string]*entry),
	}
}

// Allow reports whether key may proceed now.
func (k *Keyed) Allow(key string) bool {
	if k == nil || k.every <= 0 {
		return true
	}
	now := k.now()

	k.mu.Lock()
	defer k.mu.Unlock()

	k.gc(now)
	e, ok := k.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Every(k.every), k.burst)}
		k.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

func (k *Keyed) gc(now time.Time) {
	if now.Sub(k.lastGC) < k.idle {
		return
	}
	k.lastGC = now
	for key, e := range k.limiters {
		if now.Sub(e.lastSeen) > k.idle {
			delete(k.limiters, key)
		}
	}
}
