package crawler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/jackdanger/collectlinks"
	"golang.org/x/net/html"
)

// FetchErrorKind enumerates the failure taxonomy of spec §4.2.
type FetchErrorKind string

const (
	FetchErrTimeout    FetchErrorKind = "timeout"
	FetchErrTransport  FetchErrorKind = "transport"
	FetchErrHTTPStatus FetchErrorKind = "http_status"
	FetchErrNonHTML    FetchErrorKind = "non_html"
	FetchErrParse      FetchErrorKind = "parse"
	FetchErrRobots     FetchErrorKind = "robots_denied"
)

// FetchError is the typed failure a fetch may return in place of a Page.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchErrHTTPStatus {
		return "fetch: http status " + http.StatusText(e.StatusCode)
	}
	if e.Err != nil {
		return "fetch: " + string(e.Kind) + ": " + e.Err.Error()
	}
	return "fetch: " + string(e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Reason renders a short human string suitable for an error node's
// description (spec §7).
func (e *FetchError) Reason() string {
	switch e.Kind {
	case FetchErrHTTPStatus:
		return "HTTP status " + http.StatusText(e.StatusCode)
	case FetchErrRobots:
		return "robots.txt disallows this path"
	case FetchErrNonHTML:
		return "response is not text/html"
	case FetchErrTimeout:
		return "request timed out"
	case FetchErrParse:
		return "failed to parse response body"
	default:
		return "transport error"
	}
}

// Page is a successfully fetched and lazily parsed HTML document.
type Page struct {
	Title string
	Links []string // raw href values, document order
}

// Fetcher issues GETs under a timeout and UA, and extracts title/links
// lazily (spec component C2).
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher using the given HTTP client.
func NewFetcher(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch performs one GET against rawURL under cfg's timeout and user
// agent, returning a parsed Page or a typed FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration, userAgent string) (*Page, *FetchError) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrTransport, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &FetchError{Kind: FetchErrTimeout, Err: err}
		}
		return nil, &FetchError{Kind: FetchErrTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Kind: FetchErrHTTPStatus, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		t, _, err := mime.ParseMediaType(contentType)
		if err == nil && t != "text/html" {
			return nil, &FetchError{Kind: FetchErrNonHTML}
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrParse, Err: err}
	}

	title, err := titleOf(body)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrParse, Err: err}
	}
	if title == "" {
		title = rawURL
	}

	links := collectlinks.All(strings.NewReader(string(body)))

	return &Page{Title: title, Links: links}, nil
}

// titleOf returns the first <title> text, trimmed, or "" if absent.
func titleOf(body []byte) (string, error) {
	tokenizer := html.NewTokenizer(strings.NewReader(string(body)))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != nil && err != io.EOF {
				return "", err
			}
			return "", nil
		case html.StartTagToken:
			token := tokenizer.Token()
			if token.Data != "title" {
				continue
			}
			if tokenizer.Next() == html.TextToken {
				return strings.TrimSpace(tokenizer.Token().Data), nil
			}
		}
	}
}
