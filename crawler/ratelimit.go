package crawler

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter enforces a per-host minimum interval between the starts
// of successive fetches (spec §4.2) using a token-bucket limiter per
// host, in place of the teacher's raw time.Ticker polling loop. The
// time a fetch itself takes is not counted, so two fetches to the same
// host can complete closer together than the configured delay.
type hostLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	limitFor  func() rate.Limit
}

func newHostLimiter(limitFor func() rate.Limit) *hostLimiter {
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		limitFor: limitFor,
	}
}

// wait blocks until the per-host pacing allows the next fetch to
// rawURL's host, or until ctx is cancelled.
func (h *hostLimiter) wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	h.mu.Lock()
	lim, ok := h.limiters[host]
	if !ok {
		lim = rate.NewLimiter(h.limitFor(), 1)
		h.limiters[host] = lim
		h.mu.Unlock()
		// First request to a host proceeds immediately; reserve its
		// token now so the *next* request waits out the full delay.
		lim.Allow()
		return nil
	}
	h.mu.Unlock()

	return lim.Wait(ctx)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// perSecond converts a per-host minimum interval into the rate.Limit
// (events/sec) that enforces it.
func perSecond(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(time.Second) / float64(delay))
}
