// Package adapters converts the three foreign crawler output schemas
// (search-result CSV, recursive tree JSON, OSINT JSON) into the
// canonical tree (spec component C8).
package adapters

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/r8k/webgraph/tree"
	"github.com/r8k/webgraph/urlutil"
)

// SearchRow is one row of a search-result CSV artifact: engine,name,url.
type SearchRow struct {
	Engine string
	Name   string
	URL    string
}

// ParseSearchCSV reads engine,name,url rows. No header row is assumed.
// No third-party CSV parser appears anywhere in the retrieval pack for
// this shape, so this boundary is deliberately stdlib (see DESIGN.md).
func ParseSearchCSV(r io.Reader) ([]SearchRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var rows []SearchRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("adapters: search csv: %w", err)
		}
		rows = append(rows, SearchRow{Engine: rec[0], Name: rec[1], URL: rec[2]})
	}
	return rows, nil
}

// SearchTree builds the canonical tree for adapter A: a root per query,
// one category child per distinct engine (sorted by first appearance),
// and one subcategory grandchild per row under its engine. Rows with
// an empty URL are dropped.
func SearchTree(query string, rows []SearchRow) *tree.Node {
	root := &tree.Node{
		Name:        "OnionSearch Results: " + query,
		Type:        tree.TypeRoot,
		URL:         "search://" + query,
		Description: "",
		Children:    []*tree.Node{},
	}

	order := make([]string, 0)
	byEngine := make(map[string]*tree.Node)

	for _, row := range rows {
		if strings.TrimSpace(row.URL) == "" {
			continue
		}

		engineNode, ok := byEngine[row.Engine]
		if !ok {
			engineNode = &tree.Node{
				Name:     row.Engine,
				Type:     tree.TypeCategory,
				URL:      "search://" + query + "/" + row.Engine,
				Children: []*tree.Node{},
			}
			byEngine[row.Engine] = engineNode
			order = append(order, row.Engine)
		}

		engineNode.Children = append(engineNode.Children, &tree.Node{
			Name:        row.Name,
			Type:        tree.TypeSubcategory,
			URL:         row.URL,
			Description: "URL: " + row.URL,
			Children:    []*tree.Node{},
		})
	}

	for _, engine := range order {
		root.Children = append(root.Children, byEngine[engine])
	}

	return root
}

// recanonicalizeOrMark rewrites url to its canonical form when possible,
// otherwise keeps the original string and returns a parse-warning
// description suffix.
func recanonicalizeOrMark(rawURL string) (canonical string, warning string) {
	base, err := urlutil.ParseBase(rawURL)
	if err != nil {
		return rawURL, "; parse warning: could not canonicalize url"
	}
	got, ok := urlutil.Canonicalize(base, rawURL)
	if !ok {
		return rawURL, "; parse warning: could not canonicalize url"
	}
	return got, ""
}
