package history

import (
	"time"

	"github.com/copyhive/swarmbus/signal"
)

// Filter narrows a Query. Zero-valued fields match everything.
type Filter struct {
	AgentID    string
	Status     Status
	SignalType signal.Type
	Since      time.Time // inclusive lower bound on ProcessedAt
	Until      time.Time // inclusive upper bound on ProcessedAt
	Offset     int
	Limit      int // capped at MaxQueryLimit; <=0 means MaxQueryLimit
}

// Result is one page of filtered history, most recent first. Total is the
// filtered count before pagination.
type Result struct {
	Entries []Entry
	Total   int
	HasMore bool
}

func (f Filter) matches(e Entry) bool {
	if f.AgentID != "" && e.AgentID != f.AgentID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.SignalType != "" && e.Signal.Type != f.SignalType {
		return false
	}
	if !f.Since.IsZero() && e.ProcessedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.ProcessedAt.After(f.Until) {
		return false
	}
	return true
}

// Query applies the filter over the full ledger, newest first, then
// paginates with Offset/Limit. Returned entries carry fresh signal clones.
func (l *Ledger) Query(filter Filter) Result {
	limit := filter.Limit
	if limit <= 0 || limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	offset := max(filter.Offset, 0)

	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []Entry
	for i := 0; i < l.size; i++ {
		if e := l.at(i); filter.matches(e) {
			matched = append(matched, e)
		}
	}

	total := len(matched)
	if offset >= total {
		return Result{Entries: []Entry{}, Total: total}
	}

	end := min(offset+limit, total)
	page := make([]Entry, 0, end-offset)
	for _, e := range matched[offset:end] {
		e.Signal = e.Signal.Clone()
		page = append(page, e)
	}

	return Result{
		Entries: page,
		Total:   total,
		HasMore: end < total,
	}
}

// Stats aggregates a single agent's delivery history.
type Stats struct {
	AgentID      string
	Successes    int
	Failures     int
	Pending      int
	AvgDuration  time.Duration // over entries with a recorded duration
	LastActivity time.Time
}

// AgentStats derives per-agent statistics by scanning the ledger. No running
// aggregates are kept; a full scan is cheap at the configured capacity.
func (l *Ledger) AgentStats(agentID string) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := Stats{AgentID: agentID}
	var totalDuration time.Duration
	var timed int

	for i := 0; i < l.size; i++ {
		e := l.at(i)
		if e.AgentID != agentID {
			continue
		}

		switch e.Status {
		case StatusSuccess:
			stats.Successes++
		case StatusFailed:
			stats.Failures++
		case StatusPending:
			stats.Pending++
		}

		if e.Duration > 0 {
			totalDuration += e.Duration
			timed++
		}
		if e.ProcessedAt.After(stats.LastActivity) {
			stats.LastActivity = e.ProcessedAt
		}
	}

	if timed > 0 {
		stats.AvgDuration = totalDuration / time.Duration(timed)
	}
	return stats
}
