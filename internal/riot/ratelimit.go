package riot

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	// Rate limits for dev key (using conservative values to be safe)
	requestsPerSecond = 15 // Actual: 20
	requestsPer2Min   = 90 // Actual: 100
)

// windowLimiter enforces the 1s and 2min sliding windows of a single API key
type windowLimiter struct {
	mu          sync.Mutex
	shortWindow []time.Time // Requests in last second
	longWindow  []time.Time // Requests in last 2 minutes
}

// wait blocks until another request fits in both windows or ctx is done
func (l *windowLimiter) wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()

		l.shortWindow = prune(l.shortWindow, now.Add(-time.Second))
		l.longWindow = prune(l.longWindow, now.Add(-2*time.Minute))

		var waitTime time.Duration
		switch {
		case len(l.shortWindow) >= requestsPerSecond:
			waitTime = l.shortWindow[0].Add(time.Second).Sub(now) + 100*time.Millisecond
		case len(l.longWindow) >= requestsPer2Min:
			waitTime = l.longWindow[0].Add(2*time.Minute).Sub(now) + 100*time.Millisecond
			log.Printf("[Rate limit] %d req/2min, waiting %.1fs...", len(l.longWindow), waitTime.Seconds())
		default:
			l.shortWindow = append(l.shortWindow, now)
			l.longWindow = append(l.longWindow, now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if err := sleepCtx(ctx, waitTime); err != nil {
			return err
		}
	}
}

func prune(window []time.Time, cutoff time.Time) []time.Time {
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// limiterSet hands out one limiter per API key; the rate budget belongs to the key
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*windowLimiter
}

func newLimiterSet() *limiterSet {
	return &limiterSet{limiters: make(map[string]*windowLimiter)}
}

func (s *limiterSet) get(apiKey string) *windowLimiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[apiKey]
	if !ok {
		l = &windowLimiter{}
		s.limiters[apiKey] = l
	}
	return l
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
