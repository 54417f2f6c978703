// Package supervisor owns the four mutually-exclusive engine slots
// (spec component C7): start/stop lifecycle, global exclusivity,
// session reset, and subprocess orchestration for the non-HTTP
// engines.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/r8k/webgraph/crawler"
	"github.com/r8k/webgraph/publisher"
	"github.com/r8k/webgraph/tree"
)

// Slot identifies one of the four engine slots.
type Slot string

const (
	SlotHTTP        Slot = "http"
	SlotTOC         Slot = "toc"
	SlotOnionSearch Slot = "onionsearch"
	SlotTorBot      Slot = "torbot"
)

// Status is a slot's lifecycle state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// DefaultSubprocessTimeout is the wall-clock budget for subprocess
// engines absent an explicit override (spec §9 Open Questions: the
// source isn't uniform here, this spec fixes 600s, configurable).
const DefaultSubprocessTimeout = 600 * time.Second

// ErrBusy is returned when start is attempted while a slot is running
// or stopping. A slot left in the error state does not block a start.
var ErrBusy = errors.New("supervisor: another engine is already running")

// TorBotProgress is the live counters exposed by GET /api/torbot/progress.
type TorBotProgress struct {
	Links  int `json:"links"`
	Emails int `json:"emails"`
	Phones int `json:"phones"`
	Depth  int `json:"depth"`
}

// SlotState is the per-slot snapshot returned by Status.
type SlotState struct {
	Slot      Slot      `json:"slot"`
	Status    Status    `json:"status"`
	RunID     string    `json:"run_id,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// runFunc is the engine body: it must observe ctx cancellation and
// report its own terminal error, if any.
type runFunc func(ctx context.Context) error

// Supervisor is the process-wide engine registry. Constructed once in
// main/app wiring, torn down on server shutdown.
type Supervisor struct {
	mu sync.Mutex

	slots  map[Slot]*slotEntry
	active Slot // "" if none active

	pub      *publisher.Publisher
	log      zerolog.Logger
	torbotPg TorBotProgress
}

type slotEntry struct {
	state  SlotState
	cancel context.CancelFunc
}

// New returns a Supervisor publishing session resets through pub.
func New(pub *publisher.Publisher, log zerolog.Logger) *Supervisor {
	s := &Supervisor{
		pub: pub,
		log: log,
		slots: map[Slot]*slotEntry{
			SlotHTTP:        {state: SlotState{Slot: SlotHTTP, Status: StatusIdle}},
			SlotTOC:         {state: SlotState{Slot: SlotTOC, Status: StatusIdle}},
			SlotOnionSearch: {state: SlotState{Slot: SlotOnionSearch, Status: StatusIdle}},
			SlotTorBot:      {state: SlotState{Slot: SlotTorBot, Status: StatusIdle}},
		},
	}
	return s
}

// Start begins run under slot, after a session reset, guarded by
// global exclusivity. The engine body runs in a background goroutine;
// Start returns once the slot has transitioned to running.
func (s *Supervisor) Start(slot Slot, run runFunc) error {
	s.mu.Lock()
	if s.active != "" {
		s.mu.Unlock()
		return ErrBusy
	}

	runID := uuid.New().String()
	entry := s.slots[slot]
	ctx, cancel := context.WithCancel(context.Background())
	entry.cancel = cancel
	entry.state = SlotState{Slot: slot, Status: StatusRunning, RunID: runID, StartedAt: time.Now()}
	s.active = slot
	s.torbotPg = TorBotProgress{}
	s.mu.Unlock()

	if err := s.pub.Reset(); err != nil {
		s.log.Error().Err(err).Msg("supervisor: session reset publish failed")
	}

	go func() {
		err := run(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil && entry.state.Status != StatusStopping {
			entry.state.Status = StatusError
			entry.state.LastError = err.Error()
		} else {
			entry.state.Status = StatusIdle
		}
		if s.active == slot {
			s.active = ""
		}
	}()

	return nil
}

// Stop signals cancellation for slot and returns immediately; callers
// poll Status to observe the idle transition.
func (s *Supervisor) Stop(slot Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.slots[slot]
	if entry.state.Status != StatusRunning {
		return fmt.Errorf("supervisor: slot %s is not running", slot)
	}
	entry.state.Status = StatusStopping
	if entry.cancel != nil {
		entry.cancel()
	}
	return nil
}

// Status returns a snapshot of every slot plus the currently active
// slot, if any.
func (s *Supervisor) Status() (slots []SlotState, active Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range []Slot{SlotHTTP, SlotTOC, SlotOnionSearch, SlotTorBot} {
		slots = append(slots, s.slots[slot].state)
	}
	return slots, s.active
}

// SetTorBotProgress updates the counters exposed by
// GET /api/torbot/progress. The torbot subprocess engine does not call
// it: RunSubprocess only logs the engine's output lines, so the
// counters stay at zero (Start resets them) unless a caller sets them.
func (s *Supervisor) SetTorBotProgress(p TorBotProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.torbotPg = p
}

// TorBotProgress returns the current torbot counters.
func (s *Supervisor) TorBotProgress() TorBotProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.torbotPg
}

// Shutdown cancels any running engine and waits up to grace before
// returning, so callers can then force-kill lingering subprocesses.
func (s *Supervisor) Shutdown(grace time.Duration) {
	s.mu.Lock()
	active := s.active
	if active != "" {
		if entry := s.slots[active]; entry.cancel != nil {
			entry.cancel()
		}
	}
	s.mu.Unlock()

	if active == "" {
		return
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		done := s.active == ""
		s.mu.Unlock()
		if done {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// RunHTTPCrawl adapts the crawler scheduler into a runFunc for
// SlotHTTP, publishing progressive and final snapshots through pub.
func (s *Supervisor) RunHTTPCrawl(sched *crawler.Scheduler, seedURL string, cfg crawler.Config) runFunc {
	return func(ctx context.Context) error {
		_, err := sched.Run(ctx, seedURL, cfg, func(n *tree.Node) {
			if pubErr := s.pub.Publish(n); pubErr != nil {
				s.log.Error().Err(pubErr).Msg("supervisor: publish failed")
			}
		})
		if err != nil {
			return fmt.Errorf("supervisor: http crawl: %w", err)
		}
		return nil
	}
}
