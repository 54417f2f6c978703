package adapters

import "testing"

func TestParseOsintInputRecursiveShape(t *testing.T) {
	t.Parallel()

	data := []byte(`{"name":"root","url":"http://h.test/","children":[{"name":"a","url":"http://h.test/a"}]}`)
	in, err := ParseOsintInput(data)
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if in.Recursive == nil {
		t.Fatalf("expected recursive shape detected\n")
	}
}

func TestParseOsintInputFlatShape(t *testing.T) {
	t.Parallel()

	data := []byte(`[{"url":"http://h.test/a","emails":["a@h.test"],"status":200}]`)
	in, err := ParseOsintInput(data)
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if in.Recursive != nil || len(in.Flat) != 1 {
		t.Fatalf("expected flat shape with 1 entry, got %+v\n", in)
	}
}

func TestOsintTreeFlatGroupsByHost(t *testing.T) {
	t.Parallel()

	entries := []OsintEntry{
		{URL: "http://a.test/1", Status: 200, Emails: []string{"x@a.test"}},
		{URL: "http://a.test/2", Status: 404},
		{URL: "http://b.test/1", Phones: []string{"+1555"}},
		{URL: "not a url"},
	}
	root := OsintTree(OsintInput{Flat: entries}, "http://a.test/")

	if len(root.Children) != 3 {
		t.Fatalf("expected 3 host groups (a.test, b.test, _unparsed), got %d: %+v\n", len(root.Children), root.Children)
	}

	var unparsed *int
	for i, child := range root.Children {
		if child.Name == "_unparsed" {
			n := i
			unparsed = &n
		}
	}
	if unparsed == nil {
		t.Fatalf("expected an _unparsed host group\n")
	}
}
