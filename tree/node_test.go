package tree

import "testing"

func TestAttachInsertsInOrderRegardlessOfArrival(t *testing.T) {
	t.Parallel()

	tr := New("http://h.test/", "Home")
	root := tr.RootID()

	// Simulate out-of-order arrival: order 2 attaches before order 0 and 1.
	tr.Attach(root, "http://h.test/c", "http://h.test/c", 1, 2)
	tr.Attach(root, "http://h.test/a", "http://h.test/a", 1, 0)
	tr.Attach(root, "http://h.test/b", "http://h.test/b", 1, 1)

	snap := tr.Snapshot()
	if len(snap.Children) != 3 {
		t.Fatalf("expected 3 children, got %d\n", len(snap.Children))
	}
	want := []string{"http://h.test/a", "http://h.test/b", "http://h.test/c"}
	for i, url := range want {
		if snap.Children[i].URL != url {
			t.Fatalf("child %d: expected %s, got %s\n", i, url, snap.Children[i].URL)
		}
	}
}

func TestAttachErrorOccupiesSingleSlotNotNested(t *testing.T) {
	t.Parallel()

	tr := New("http://h.test/", "Home")
	root := tr.RootID()

	tr.AttachError(root, "http://h.test/missing", "http_status", "HTTP status Not Found", 1, 0)

	snap := tr.Snapshot()
	if len(snap.Children) != 1 {
		t.Fatalf("expected exactly one child, got %d\n", len(snap.Children))
	}
	errNode := snap.Children[0]
	if errNode.Name != "Error: http_status" {
		t.Fatalf("expected error node name, got %q\n", errNode.Name)
	}
	if errNode.URL != "http://h.test/missing" {
		t.Fatalf("expected error node to carry the attempted url, got %q\n", errNode.URL)
	}
	if len(errNode.Children) != 0 {
		t.Fatalf("expected error node to have no children, got %d\n", len(errNode.Children))
	}
}

func TestAttachUnknownParentIsNoOp(t *testing.T) {
	t.Parallel()

	tr := New("http://h.test/", "Home")
	if _, ok := tr.Attach(9999, "http://h.test/x", "http://h.test/x", 1, 0); ok {
		t.Fatalf("expected attach under an unknown parent to fail\n")
	}
}
