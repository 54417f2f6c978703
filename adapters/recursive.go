package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/r8k/webgraph/tree"
)

// ForeignNode is the wire shape of a foreign recursive-tree artifact
// (adapter B input): structurally identical to the canonical node but
// untrusted — its type field is never trusted, only its shape.
type ForeignNode struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	URL         string        `json:"url"`
	Description string        `json:"description"`
	Children    []ForeignNode `json:"children"`
}

// ParseRecursiveTree decodes a foreign recursive-tree JSON artifact.
func ParseRecursiveTree(data []byte) (ForeignNode, error) {
	var fn ForeignNode
	if err := json.Unmarshal(data, &fn); err != nil {
		return ForeignNode{}, fmt.Errorf("adapters: recursive tree: %w", err)
	}
	return fn, nil
}

// RecursiveTree converts a foreign node tree into the canonical tree,
// re-deriving type from depth and recanonicalizing every url; a url
// that fails to canonicalize is kept verbatim with a parse-warning
// appended to its description rather than dropping the node.
func RecursiveTree(root ForeignNode) *tree.Node {
	return convert(root, 0)
}

func convert(fn ForeignNode, depth int) *tree.Node {
	canonical, warning := fn.URL, ""
	if fn.URL != "" {
		canonical, warning = recanonicalizeOrMark(fn.URL)
	}

	n := &tree.Node{
		Name:        fn.Name,
		Type:        tree.TypeForDepth(depth),
		URL:         canonical,
		Description: fn.Description + warning,
		Children:    make([]*tree.Node, 0, len(fn.Children)),
	}
	for _, child := range fn.Children {
		n.Children = append(n.Children, convert(child, depth+1))
	}
	return n
}
