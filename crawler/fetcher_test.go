package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTitleOf(t *testing.T) {
	t.Parallel()

	title, err := titleOf([]byte(`<meta charset="UTF-8"><title>Example Title</title>`))
	if err != nil || title != "Example Title" {
		t.Fatalf("expected Example Title, got: %v, err: %v\n", title, err)
	}
}

func TestTitleOfAbsent(t *testing.T) {
	t.Parallel()

	title, err := titleOf([]byte(`<html><body>no title here</body></html>`))
	if err != nil || title != "" {
		t.Fatalf("expected empty title, got: %v, err: %v\n", title, err)
	}
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<title>Hi</title><a href="/a">a</a>`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	page, fetchErr := f.Fetch(context.Background(), srv.URL, time.Second, "test-agent")
	if fetchErr != nil {
		t.Fatalf("unexpected fetch error: %v\n", fetchErr)
	}
	if page.Title != "Hi" {
		t.Fatalf("expected title Hi, got %q\n", page.Title)
	}
	if len(page.Links) != 1 || page.Links[0] != "/a" {
		t.Fatalf("expected one link /a, got %v\n", page.Links)
	}
}

func TestFetchNonHTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	_, fetchErr := f.Fetch(context.Background(), srv.URL, time.Second, "test-agent")
	if fetchErr == nil || fetchErr.Kind != FetchErrNonHTML {
		t.Fatalf("expected non_html error, got %v\n", fetchErr)
	}
}

func TestFetchHTTPStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	_, fetchErr := f.Fetch(context.Background(), srv.URL, time.Second, "test-agent")
	if fetchErr == nil || fetchErr.Kind != FetchErrHTTPStatus || fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected http_status 404 error, got %v\n", fetchErr)
	}
}
