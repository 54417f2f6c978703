package publisher

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/r8k/webgraph/tree"
)

func TestPublishWritesPrimaryAndMirror(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := New(filepath.Join(dir, "primary.json"), filepath.Join(dir, "mirror.json"), zerolog.Nop())

	n := tree.New("http://h.test/", "Home").Snapshot()
	if err := p.Publish(n); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}

	primary, err := os.ReadFile(filepath.Join(dir, "primary.json"))
	if err != nil {
		t.Fatalf("primary missing: %v\n", err)
	}
	mirror, err := os.ReadFile(filepath.Join(dir, "mirror.json"))
	if err != nil {
		t.Fatalf("mirror missing: %v\n", err)
	}
	if string(primary) != string(mirror) {
		t.Fatalf("expected byte-identical primary and mirror\n")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(primary, &decoded); err != nil {
		t.Fatalf("invalid json: %v\n", err)
	}
}

func TestPublishIdempotentBytes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := New(filepath.Join(dir, "primary.json"), filepath.Join(dir, "mirror.json"), zerolog.Nop())

	n := tree.New("http://h.test/", "Home").Snapshot()
	if err := p.Publish(n); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	first, _ := os.ReadFile(filepath.Join(dir, "primary.json"))

	if err := p.Publish(n); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	second, _ := os.ReadFile(filepath.Join(dir, "primary.json"))

	if string(first) != string(second) {
		t.Fatalf("expected idempotent byte output\n")
	}
}

func TestResetWritesEmptyRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := New(filepath.Join(dir, "primary.json"), filepath.Join(dir, "mirror.json"), zerolog.Nop())

	if err := p.Reset(); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "primary.json"))
	var n tree.Node
	if err := json.Unmarshal(data, &n); err != nil {
		t.Fatalf("invalid json: %v\n", err)
	}
	if n.Type != tree.TypeRoot || n.Name != "" || len(n.Children) != 0 {
		t.Fatalf("expected empty root document, got %+v\n", n)
	}
}

func TestSyncNowReportsStatus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := New(filepath.Join(dir, "primary.json"), filepath.Join(dir, "mirror.json"), zerolog.Nop())

	status, err := p.SyncNow()
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if status.PrimaryExists || status.MirrorExists {
		t.Fatalf("expected neither path to exist yet, got %+v\n", status)
	}

	if err := p.Reset(); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	status, err = p.SyncNow()
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if !status.PrimaryExists || !status.MirrorExists || !status.HashesEqual {
		t.Fatalf("expected both paths present and equal, got %+v\n", status)
	}
}

func TestWatchReMirrorsOnPrimaryChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := New(filepath.Join(dir, "primary.json"), filepath.Join(dir, "mirror.json"), zerolog.Nop())

	if err := p.Reset(); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		p.Watch(stop)
		close(done)
	}()

	n := tree.New("http://h.test/", "Home").Snapshot()
	data, _ := json.Marshal(n)
	if err := atomicWrite(p.primary, data); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mirror, err := os.ReadFile(p.mirror)
		if err == nil && string(mirror) == string(data) {
			close(stop)
			<-done
			return
		}
		time.Sleep(50 * time.Millisecond)
	}

	close(stop)
	<-done
	t.Fatalf("mirror was not updated to match primary within deadline\n")
}
