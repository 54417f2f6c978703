package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/r8k/webgraph/tree"
	"github.com/r8k/webgraph/urlutil"
)

// ErrInvalidSeed is returned when the seed URL fails canonicalization.
var ErrInvalidSeed = errors.New("crawler: invalid seed url")

// workItem is a unit of scheduler work: url has not yet been attached
// to the tree. parentID names the node it will attach under once its
// outcome (success or error) is known; depth is url's own depth from
// the root; order is url's position among its parent's accepted links,
// used to keep sibling ordering deterministic even though siblings may
// finish fetching out of order under concurrent workers. isRoot marks
// the seed item, whose node already exists (tree.New created it) and
// is relabeled rather than attached.
type workItem struct {
	parentID int64
	url      string
	depth    int
	order    int
	isRoot   bool
}

// PublishFunc is called with a tree snapshot; used for progressive mode
// and for the mandatory end-of-run publish (spec §4.5 step 6).
type PublishFunc func(*tree.Node)

// Scheduler drives the breadth-limited hierarchical crawl (spec
// component C6): a bounded worker pool pulling from a shared queue,
// coordinating the visit set, tree builder, fetcher and robots gate.
type Scheduler struct {
	fetcher *Fetcher
	robots  *RobotsGate
	log     zerolog.Logger
}

// NewScheduler returns a scheduler using client for fetches and fetches
// of robots.txt.
func NewScheduler(client *http.Client, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		fetcher: NewFetcher(client),
		robots:  NewRobotsGate(client, log),
		log:     log,
	}
}

// Run executes one crawl session to completion (or until ctx is
// cancelled) and returns the final tree. A non-nil PublishFunc is
// invoked after every page's attachments when cfg.Progressive is set,
// and always once at the end, per spec §4.5 steps 4f and 6.
func (s *Scheduler) Run(ctx context.Context, seedURL string, cfg Config, publish PublishFunc) (*tree.Node, error) {
	cfg = cfg.Normalize()

	seedParsed, err := url.Parse(seedURL)
	if err != nil {
		return nil, ErrInvalidSeed
	}
	seed, ok := urlutil.Canonicalize(seedParsed, seedURL)
	if !ok {
		return nil, ErrInvalidSeed
	}

	visited := NewVisitSet()
	visited.Claim(seed)

	t := tree.New(seed, seed)

	limit := perSecond(cfg.RequestDelay)
	limiter := newHostLimiter(func() rate.Limit { return limit })

	queue := make(chan workItem, 4*cfg.MaxConcurrentRequests)
	queue <- workItem{url: seed, depth: 0, isRoot: true}

	var inFlight sync.WaitGroup
	inFlight.Add(1) // seed item

	var wg sync.WaitGroup
	for i := 0; i < cfg.MaxConcurrentRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, t, visited, limiter, cfg, queue, &inFlight, publish)
		}()
	}

	go func() {
		inFlight.Wait()
		close(queue)
	}()

	wg.Wait()

	final := t.Snapshot()
	if publish != nil {
		publish(final)
	}
	return final, nil
}

// worker pulls items until the queue closes, observing ctx cancellation
// at the boundaries required by spec §5.
func (s *Scheduler) worker(ctx context.Context, t *tree.Tree, visited *VisitSet, limiter *hostLimiter, cfg Config, queue chan workItem, inFlight *sync.WaitGroup, publish PublishFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-queue:
			if !ok {
				return
			}
			s.process(ctx, t, visited, limiter, cfg, queue, inFlight, item, publish)
			inFlight.Done()
		}
	}
}

func (s *Scheduler) process(ctx context.Context, t *tree.Tree, visited *VisitSet, limiter *hostLimiter, cfg Config, queue chan workItem, inFlight *sync.WaitGroup, item workItem, publish PublishFunc) {
	target, err := url.Parse(item.url)
	if err != nil {
		return
	}

	// Nothing is attached for item.url yet: on any failure below, the
	// error node takes the single slot this URL would otherwise have
	// occupied, at item.depth under item.parentID, instead of being
	// nested beneath an already-placed node for the same URL. The root
	// is the one exception — it was already created by tree.New, so a
	// seed-level failure leaves it unrelabeled rather than attaching
	// anything.
	if !s.robots.Allowed(ctx, target, cfg.UserAgent, cfg.RespectRobots, cfg.RequestTimeout) {
		if !item.isRoot {
			t.AttachError(item.parentID, item.url, "robots_denied", "robots.txt disallows this path", item.depth, item.order)
		}
		return
	}

	if err := limiter.wait(ctx, item.url); err != nil {
		return
	}

	if ctx.Err() != nil {
		return
	}

	page, fetchErr := s.fetcher.Fetch(ctx, item.url, cfg.RequestTimeout, cfg.UserAgent)
	if fetchErr != nil {
		if !item.isRoot {
			t.AttachError(item.parentID, item.url, string(fetchErr.Kind), fetchErr.Reason(), item.depth, item.order)
		}
		return
	}

	var selfID int64
	if item.isRoot {
		t.Relabel(page.Title)
		selfID = t.RootID()
	} else {
		childID, ok := t.Attach(item.parentID, item.url, item.url, item.depth, item.order)
		if !ok {
			return
		}
		selfID = childID
	}

	accepted := s.acceptLinks(target, page.Links, cfg)

	// Per spec's numeric edge case, the deepest attached node has depth
	// max_depth-1: a link discovered one level past that boundary is
	// never attached, not merely left unexpanded.
	if item.depth+1 >= cfg.MaxDepth {
		if cfg.Progressive && publish != nil {
			publish(t.Snapshot())
		}
		return
	}

	for idx, link := range accepted {
		if ctx.Err() != nil {
			return
		}
		if !visited.Claim(link) {
			continue
		}

		inFlight.Add(1)
		select {
		case queue <- workItem{parentID: selfID, url: link, depth: item.depth + 1, order: idx}:
		case <-ctx.Done():
			inFlight.Done()
			return
		}
	}

	if cfg.Progressive && publish != nil {
		publish(t.Snapshot())
	}
}

// acceptLinks applies C1 canonicalization, same-host policy, and the
// max_links_per_page cap, in document order.
func (s *Scheduler) acceptLinks(base *url.URL, rawLinks []string, cfg Config) []string {
	accepted := make([]string, 0, cfg.MaxLinksPerPage)
	for _, href := range rawLinks {
		if len(accepted) >= cfg.MaxLinksPerPage {
			break
		}

		canonical, ok := urlutil.Canonicalize(base, href)
		if !ok {
			continue
		}

		if !cfg.FollowExternalLinks && !urlutil.SameHost(base.String(), canonical) {
			continue
		}

		accepted = append(accepted, canonical)
	}
	return accepted
}
