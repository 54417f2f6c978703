package crawler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRobotsGateRespectsDisallow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			io.WriteString(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gate := NewRobotsGate(srv.Client(), zerolog.Nop())
	target, _ := url.Parse(srv.URL + "/private/page")
	ctx := context.Background()

	if gate.Allowed(ctx, target, "test-agent", true, time.Second) {
		t.Fatalf("expected /private/page to be disallowed\n")
	}

	allowedTarget, _ := url.Parse(srv.URL + "/public")
	if !gate.Allowed(ctx, allowedTarget, "test-agent", true, time.Second) {
		t.Fatalf("expected /public to be allowed\n")
	}
}

func TestRobotsGateSkippedWhenDisabled(t *testing.T) {
	t.Parallel()

	gate := NewRobotsGate(http.DefaultClient, zerolog.Nop())
	target, _ := url.Parse("http://unreachable.invalid/private")

	if !gate.Allowed(context.Background(), target, "test-agent", false, time.Second) {
		t.Fatalf("expected allow when RespectRobots is false\n")
	}
}

func TestRobotsGateDefaultsAllowOnFetchFailure(t *testing.T) {
	t.Parallel()

	gate := NewRobotsGate(&http.Client{}, zerolog.Nop())
	target, _ := url.Parse("http://127.0.0.1:1/anything")

	if !gate.Allowed(context.Background(), target, "test-agent", true, time.Second) {
		t.Fatalf("expected allow when robots.txt fetch fails\n")
	}
}
