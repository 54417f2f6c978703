package crawler

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
)

// RobotsGate consults /robots.txt for a host once per session and
// caches the verdict (spec component C3). Defaults to allow if the
// robots document itself cannot be fetched or parsed.
type RobotsGate struct {
	client *http.Client
	log    zerolog.Logger

	mu     sync.Mutex
	groups map[string]*robotstxt.Group // host -> matched UA group, nil cached entries mean "allow"
}

// NewRobotsGate returns a gate that fetches robots.txt using client.
func NewRobotsGate(client *http.Client, log zerolog.Logger) *RobotsGate {
	return &RobotsGate{
		client: client,
		log:    log,
		groups: make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether userAgent may fetch target under cfg. If
// cfg.RespectRobots is false, it always returns true without making a
// request. The robots.txt fetch itself uses timeout, the same request
// timeout the crawler applies to page fetches (§5).
func (g *RobotsGate) Allowed(ctx context.Context, target *url.URL, userAgent string, respectRobots bool, timeout time.Duration) bool {
	if !respectRobots {
		return true
	}

	group := g.groupFor(ctx, target, userAgent, timeout)
	if group == nil {
		return true
	}
	return group.Test(target.Path)
}

func (g *RobotsGate) groupFor(ctx context.Context, target *url.URL, userAgent string, timeout time.Duration) *robotstxt.Group {
	host := target.Host

	g.mu.Lock()
	group, cached := g.groups[host]
	g.mu.Unlock()
	if cached {
		return group
	}

	group = g.fetchGroup(ctx, target, userAgent, timeout)

	g.mu.Lock()
	g.groups[host] = group
	g.mu.Unlock()

	return group
}

func (g *RobotsGate) fetchGroup(ctx context.Context, target *url.URL, userAgent string, timeout time.Duration) *robotstxt.Group {
	robotsURL := &url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Debug().Err(err).Str("host", target.Host).Msg("robots.txt fetch failed, defaulting to allow")
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		g.log.Debug().Err(err).Str("host", target.Host).Msg("robots.txt parse failed, defaulting to allow")
		return nil
	}

	return data.FindGroup(userAgent)
}
