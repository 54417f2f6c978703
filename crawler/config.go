package crawler

import "time"

// Spec-mandated hard limits and defaults (spec §3 CrawlConfig).
const (
	MaxCrawlDepthLimit    = 10
	MaxLinksPerPageLimit  = 20
	DefaultMaxCrawlDepth  = 5
	DefaultMaxLinksPerPg  = 10
	DefaultUserAgent      = "webgraph/1 (+https://github.com/r8k/webgraph)"
	DefaultRequestTimeout = 15 * time.Second
	DefaultRequestDelay   = 1 * time.Second
	DefaultConcurrency    = 4
)

// Config is the HTTP crawler's CrawlConfig (spec §3).
type Config struct {
	MaxDepth              int
	MaxLinksPerPage       int
	RequestDelay          time.Duration
	RequestTimeout        time.Duration
	UserAgent             string
	RespectRobots         bool
	FollowExternalLinks   bool
	MaxConcurrentRequests int
	Progressive           bool
}

// DefaultConfig returns a Config with the spec's defaults:
// respect_robots=true, follow_external_links=false (Open Questions,
// spec §9 — the dominant source behavior, fixed deliberately).
func DefaultConfig() Config {
	return Config{
		MaxDepth:              DefaultMaxCrawlDepth,
		MaxLinksPerPage:       DefaultMaxLinksPerPg,
		RequestDelay:          DefaultRequestDelay,
		RequestTimeout:        DefaultRequestTimeout,
		UserAgent:             DefaultUserAgent,
		RespectRobots:         true,
		FollowExternalLinks:   false,
		MaxConcurrentRequests: DefaultConcurrency,
		Progressive:           false,
	}
}

// Normalize clamps user-supplied values to the spec's hard limits and
// fills in zero-valued fields with defaults, returning the adjusted
// config.
func (c Config) Normalize() Config {
	d := DefaultConfig()

	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MaxDepth > MaxCrawlDepthLimit {
		c.MaxDepth = MaxCrawlDepthLimit
	}

	if c.MaxLinksPerPage <= 0 {
		c.MaxLinksPerPage = d.MaxLinksPerPage
	}
	if c.MaxLinksPerPage > MaxLinksPerPageLimit {
		c.MaxLinksPerPage = MaxLinksPerPageLimit
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = d.MaxConcurrentRequests
	}

	return c
}
