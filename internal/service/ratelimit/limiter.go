package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	last time.Time
}

// Limiter is a per-key token bucket. Idle keys are dropped by Sweep.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*entry
	capacity int
	refill   rate.Limit
	now      func() time.Time
}

// New builds a limiter allowing bursts of capacity and refillPerSec sustained requests.
func New(capacity, refillPerSec float64) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{
		m:        make(map[string]*entry),
		capacity: int(capacity),
		refill:   rate.Limit(refillPerSec),
		now:      time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.refill, l.capacity)}
		l.m[key] = e
	}
	e.last = now
	l.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

// Sweep forgets keys not seen for idle. Returns how many were removed.
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.m {
		if e.last.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
