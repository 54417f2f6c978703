package adapters

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/r8k/webgraph/tree"
)

// OsintEntry is one row of the flat-list OSINT shape (C2).
type OsintEntry struct {
	URL            string   `json:"url"`
	Emails         []string `json:"emails,omitempty"`
	Phones         []string `json:"phones,omitempty"`
	Status         int      `json:"status,omitempty"`
	Classification string   `json:"classification,omitempty"`
}

// OsintInput is the tagged-variant sum type §9 requires: the shape is
// determined once, by structural discrimination, and dispatch never
// reconsiders it afterward.
type OsintInput struct {
	Recursive *ForeignNode
	Flat      []OsintEntry
}

// probe is used only to test for the presence of a "children" key;
// its own field values are discarded once the shape is known.
type probe struct {
	Children json.RawMessage `json:"children"`
}

// ParseOsintInput decodes raw OSINT JSON, dispatching between the
// recursive-tree shape (C1, a node map with children[]) and the flat
// list shape (C2) by probing for a top-level "children" key.
func ParseOsintInput(data []byte) (OsintInput, error) {
	var p probe
	if err := json.Unmarshal(data, &p); err == nil && p.Children != nil {
		fn, err := ParseRecursiveTree(data)
		if err != nil {
			return OsintInput{}, err
		}
		return OsintInput{Recursive: &fn}, nil
	}

	var flat []OsintEntry
	if err := json.Unmarshal(data, &flat); err != nil {
		return OsintInput{}, fmt.Errorf("adapters: osint input matches neither known shape: %w", err)
	}
	return OsintInput{Flat: flat}, nil
}

// OsintTree converts a decoded OsintInput into the canonical tree.
// startingURL seeds the root when the flat-list shape is used.
func OsintTree(in OsintInput, startingURL string) *tree.Node {
	if in.Recursive != nil {
		return RecursiveTree(*in.Recursive)
	}
	return osintFlatTree(startingURL, in.Flat)
}

func osintFlatTree(startingURL string, entries []OsintEntry) *tree.Node {
	root := &tree.Node{
		Name:        "OSINT Results",
		Type:        tree.TypeRoot,
		URL:         startingURL,
		Description: "URL: " + startingURL,
		Children:    []*tree.Node{},
	}

	order := make([]string, 0)
	byHost := make(map[string]*tree.Node)

	hostNodeFor := func(host string) *tree.Node {
		n, ok := byHost[host]
		if ok {
			return n
		}
		n = &tree.Node{
			Name:     host,
			Type:     tree.TypeCategory,
			URL:      "osint://" + host,
			Children: []*tree.Node{},
		}
		byHost[host] = n
		order = append(order, host)
		return n
	}

	for _, e := range entries {
		host := "_unparsed"
		canonicalURL := e.URL
		if e.URL != "" {
			if parsed, err := url.Parse(e.URL); err == nil && parsed.Host != "" {
				host = strings.ToLower(parsed.Host)
			}
		}

		hostNode := hostNodeFor(host)
		hostNode.Children = append(hostNode.Children, &tree.Node{
			Name:        canonicalURL,
			Type:        tree.TypeSubcategory,
			URL:         canonicalURL,
			Description: describeOsintEntry(e),
			Children:    []*tree.Node{},
		})
	}

	sort.Strings(order)
	for _, host := range order {
		root.Children = append(root.Children, byHost[host])
	}

	return root
}

func describeOsintEntry(e OsintEntry) string {
	var parts []string
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Classification != "" {
		parts = append(parts, "classification="+e.Classification)
	}
	for _, email := range e.Emails {
		parts = append(parts, "email="+email)
	}
	for _, phone := range e.Phones {
		parts = append(parts, "phone="+phone)
	}
	return strings.Join(parts, "; ")
}
