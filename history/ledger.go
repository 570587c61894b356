package history

import (
	"sync"
	"time"

	"github.com/copyhive/swarmbus/signal"
)

// Status classifies the outcome of one delivery attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

const (
	// DefaultCapacity bounds a tenant's ledger when no limit is configured.
	DefaultCapacity = 1000

	// MaxQueryLimit caps a single Query page regardless of the requested
	// limit, to bound response size.
	MaxQueryLimit = 500
)

// Entry is one immutable routing outcome. Signal is a snapshot cloned at
// record time, so later hop mutations cannot corrupt history.
type Entry struct {
	Signal      *signal.Signal
	AgentID     string
	Status      Status
	ProcessedAt time.Time
	Duration    time.Duration
	Error       string
}

// Ledger is a fixed-capacity, most-recent-first log of routing outcomes.
// Eviction is O(1): the ring overwrites the oldest entry once full.
// Safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
	next    int // ring insertion index
	size    int
}

// NewLedger creates a Ledger holding at most capacity entries.
// Non-positive capacities fall back to DefaultCapacity.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{entries: make([]Entry, capacity)}
}

// Record appends a routing outcome, cloning the signal snapshot. The oldest
// entry is dropped once the ledger is at capacity.
func (l *Ledger) Record(sig *signal.Signal, agentID string, status Status, duration time.Duration, errMsg string) {
	entry := Entry{
		Signal:      sig.Clone(),
		AgentID:     agentID,
		Status:      status,
		ProcessedAt: time.Now(),
		Duration:    duration,
		Error:       errMsg,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.size < len(l.entries) {
		l.size++
	}
}

// Len returns the number of retained entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Clear drops all entries and returns how many were dropped.
func (l *Ledger) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cleared := l.size
	l.entries = make([]Entry, len(l.entries))
	l.next = 0
	l.size = 0
	return cleared
}

// at returns the i-th entry counting from most recent. Caller holds l.mu.
func (l *Ledger) at(i int) Entry {
	capacity := len(l.entries)
	return l.entries[(l.next-1-i+2*capacity)%capacity]
}
