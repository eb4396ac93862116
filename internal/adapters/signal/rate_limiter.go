package signal

import (
	"sync"

	"github.com/dkeye/Tune/internal/core"
	"golang.org/x/time/rate"
)

// IntentLimiter keeps one token bucket per connection. A nil limiter
// allows everything.
type IntentLimiter struct {
	mu       sync.Mutex
	limiters map[core.SessionID]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewIntentLimiter(perSecond float64, burst int) *IntentLimiter {
	return &IntentLimiter{
		limiters: make(map[core.SessionID]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *IntentLimiter) Allow(sid core.SessionID) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[sid]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[sid] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (l *IntentLimiter) Forget(sid core.SessionID) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.limiters, sid)
	l.mu.Unlock()
}
