package adapters

import (
	"strings"
	"testing"
)

func TestParseSearchCSV(t *testing.T) {
	t.Parallel()

	input := "ahmia,Privacy Wiki,http://x.onion/pw\nahmia,Tor FAQ,http://x.onion/faq\ndarksearch,Privacy Wiki,http://x.onion/pw2\n"
	rows, err := ParseSearchCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d\n", len(rows))
	}
}

// TestSearchTreeNodeCount exercises the adapter round-trip law: a CSV
// with n distinct engines and r_i rows each yields 1 + n + sum(r_i).
func TestSearchTreeNodeCount(t *testing.T) {
	t.Parallel()

	rows := []SearchRow{
		{Engine: "ahmia", Name: "Privacy Wiki", URL: "http://x.onion/pw"},
		{Engine: "ahmia", Name: "Tor FAQ", URL: "http://x.onion/faq"},
		{Engine: "darksearch", Name: "Privacy Wiki", URL: "http://x.onion/pw2"},
	}
	root := SearchTree("privacy", rows)

	if root.Name != "OnionSearch Results: privacy" {
		t.Fatalf("unexpected root name %q\n", root.Name)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 engine children, got %d\n", len(root.Children))
	}
	if root.Children[0].Name != "ahmia" || len(root.Children[0].Children) != 2 {
		t.Fatalf("expected ahmia with 2 rows, got %+v\n", root.Children[0])
	}
	if root.Children[1].Name != "darksearch" || len(root.Children[1].Children) != 1 {
		t.Fatalf("expected darksearch with 1 row, got %+v\n", root.Children[1])
	}

	total := 1
	for _, engine := range root.Children {
		total++
		total += len(engine.Children)
	}
	if total != 1+2+3 {
		t.Fatalf("expected node count law 1+n+sum(r_i)=6, got %d\n", total)
	}
}

func TestSearchTreeDropsEmptyURL(t *testing.T) {
	t.Parallel()

	rows := []SearchRow{
		{Engine: "ahmia", Name: "Broken", URL: ""},
		{Engine: "ahmia", Name: "OK", URL: "http://x.onion/ok"},
	}
	root := SearchTree("q", rows)
	if len(root.Children) != 1 || len(root.Children[0].Children) != 1 {
		t.Fatalf("expected empty-url row dropped, got %+v\n", root)
	}
}
