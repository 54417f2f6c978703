// Package urlutil implements the pure URL canonicalization and
// filtering rules (spec component C1): resolving relative hrefs,
// stripping fragments, lowercasing scheme/host, and rejecting
// non-document links.
package urlutil

import (
	"net/url"
	"strings"
)

// deniedSuffixes is the case-insensitive denylist of path suffixes
// that mark a link as non-document content (images, archives,
// documents, media, stylesheets/scripts/feeds).
var deniedSuffixes = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".zip", ".rar", ".tar", ".gz",
	".mp3", ".mp4", ".avi", ".mov", ".wmv",
	".css", ".js", ".xml", ".rss",
}

var deniedSchemePrefixes = []string{"javascript:", "mailto:"}

// Canonicalize resolves href against base and returns the canonical
// absolute URL, or ok=false if href is rejected by spec C1: non-http(s)
// scheme, empty host, a denylisted suffix, a fragment-only navigation,
// or a javascript:/mailto: scheme.
func Canonicalize(base *url.URL, href string) (canonical string, ok bool) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}

	lowered := strings.ToLower(trimmed)
	for _, prefix := range deniedSchemePrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return "", false
		}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref)

	scheme := strings.ToLower(resolved.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}

	host := strings.ToLower(resolved.Host)
	if host == "" {
		return "", false
	}

	path := strings.ToLower(resolved.EscapedPath())
	for _, suffix := range deniedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return "", false
		}
	}

	resolved.Scheme = scheme
	resolved.Host = host
	resolved.Fragment = ""
	resolved.RawFragment = ""

	return resolved.String(), true
}

// ParseBase parses rawURL for use as both the base and the href in a
// Canonicalize call, letting callers recanonicalize an already-absolute
// URL string found in foreign input.
func ParseBase(rawURL string) (*url.URL, error) {
	return url.Parse(rawURL)
}

// SameHost compares two URLs' hosts case-insensitively, with no
// eTLD+1 collapsing — "www.a.test" and "a.test" are different hosts.
func SameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}
