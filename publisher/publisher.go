// Package publisher owns the canonical document's filesystem lifecycle
// (spec component C9): atomic writes, mirroring, reset, and a watch
// loop that keeps the mirror in sync with out-of-band primary writes.
package publisher

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/r8k/webgraph/tree"
)

const pollFallbackInterval = 500 * time.Millisecond

// Publisher serializes canonical tree documents to a primary path and
// mirrors them to a second path read by the visualizer.
type Publisher struct {
	primary string
	mirror  string
	log     zerolog.Logger
}

// New returns a Publisher writing to primary and mirroring to mirror.
func New(primary, mirror string, log zerolog.Logger) *Publisher {
	return &Publisher{primary: primary, mirror: mirror, log: log}
}

// Publish serializes n with the canonical key order and writes it to
// both the primary and mirror paths using write-temp-then-rename.
func (p *Publisher) Publish(n *tree.Node) error {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("publisher: marshal: %w", err)
	}
	data = append(data, '\n')

	if err := atomicWriteRetry(p.primary, data); err != nil {
		return fmt.Errorf("publisher: write primary: %w", err)
	}
	if err := atomicWriteRetry(p.mirror, data); err != nil {
		return fmt.Errorf("publisher: write mirror: %w", err)
	}
	return nil
}

// atomicWriteRetry retries a failed write exactly once before giving up
// (spec §7 publish-failure).
func atomicWriteRetry(path string, data []byte) error {
	err := atomicWrite(path, data)
	if err == nil {
		return nil
	}
	return atomicWrite(path, data)
}

// Reset publishes the empty-root document to both paths (spec §4.8).
func (p *Publisher) Reset() error {
	return p.Publish(tree.Empty())
}

// SyncStatus reports the primary/mirror existence and content-hash
// equality, per GET /api/sync/status.
type SyncStatus struct {
	PrimaryExists bool `json:"primary_exists"`
	MirrorExists  bool `json:"mirror_exists"`
	HashesEqual   bool `json:"hashes_equal"`
}

// SyncNow forces one re-mirror pass from the primary path and reports
// the resulting status.
func (p *Publisher) SyncNow() (SyncStatus, error) {
	primaryData, primaryErr := os.ReadFile(p.primary)
	status := SyncStatus{PrimaryExists: primaryErr == nil}

	if primaryErr == nil {
		if err := atomicWrite(p.mirror, primaryData); err != nil {
			return status, fmt.Errorf("publisher: sync_now: %w", err)
		}
	}

	mirrorData, mirrorErr := os.ReadFile(p.mirror)
	status.MirrorExists = mirrorErr == nil
	if primaryErr == nil && mirrorErr == nil {
		status.HashesEqual = hashOf(primaryData) == hashOf(mirrorData)
	}
	return status, nil
}

// Watch runs until stop is closed, re-mirroring the primary path
// whenever its content hash changes. It prefers fsnotify and falls
// back to a poll ticker when a watch cannot be established (e.g. no
// inotify support).
func (p *Publisher) Watch(stop <-chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.log.Debug().Err(err).Msg("fsnotify unavailable, falling back to polling")
		p.pollLoop(stop)
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(p.primary)
	if err := watcher.Add(dir); err != nil {
		p.log.Debug().Err(err).Str("dir", dir).Msg("fsnotify watch failed, falling back to polling")
		p.pollLoop(stop)
		return
	}

	lastHash := p.currentPrimaryHash()
	for {
		select {
		case <-stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(p.primary) {
				continue
			}
			lastHash = p.reMirrorIfChanged(lastHash)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.log.Debug().Err(err).Msg("fsnotify watch error")
		}
	}
}

func (p *Publisher) pollLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(pollFallbackInterval)
	defer ticker.Stop()

	lastHash := p.currentPrimaryHash()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			lastHash = p.reMirrorIfChanged(lastHash)
		}
	}
}

func (p *Publisher) currentPrimaryHash() [32]byte {
	data, err := os.ReadFile(p.primary)
	if err != nil {
		return [32]byte{}
	}
	return hashOf(data)
}

func (p *Publisher) reMirrorIfChanged(lastHash [32]byte) [32]byte {
	data, err := os.ReadFile(p.primary)
	if err != nil {
		return lastHash
	}
	h := hashOf(data)
	if h == lastHash {
		return lastHash
	}
	if err := atomicWrite(p.mirror, data); err != nil {
		p.log.Debug().Err(err).Msg("mirror write failed")
		return lastHash
	}
	return h
}

func hashOf(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// atomicWrite writes data to a temp file in path's directory then
// renames it over path, so concurrent readers never observe a
// partially written document.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
