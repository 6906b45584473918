package search

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// PacedLimiter enforces two pacing rules at once: a request budget per
// time window and a minimum spacing between consecutive requests.
// Waits block until capacity frees up; callers never get a fail-fast
// rejection.
type PacedLimiter struct {
	window   *rate.Limiter
	interval *rate.Limiter
}

// NewPacedLimiter allows maxRequests per window with at least
// minInterval between requests. A zero minInterval disables spacing.
func NewPacedLimiter(maxRequests int, window, minInterval time.Duration) *PacedLimiter {
	l := &PacedLimiter{
		window: rate.NewLimiter(rate.Limit(float64(maxRequests)/window.Seconds()), maxRequests),
	}
	if minInterval > 0 {
		l.interval = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return l
}

// Wait blocks until a request may proceed.
func (l *PacedLimiter) Wait(ctx context.Context) error {
	if l.interval != nil {
		if err := l.interval.Wait(ctx); err != nil {
			return eris.Wrap(err, "search: limiter wait")
		}
	}
	if err := l.window.Wait(ctx); err != nil {
		return eris.Wrap(err, "search: limiter wait")
	}
	return nil
}
