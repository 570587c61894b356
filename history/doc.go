// Package history keeps a bounded, per-tenant ledger of routing outcomes.
//
// The ledger is a fixed-capacity ring: recording is O(1) and the oldest
// entry is overwritten once the capacity (1000 by default) is reached.
// Reads are most-recent-first. Query applies agent/status/type/time filters
// before pagination, and AgentStats derives per-agent counters by scanning
// the retained window.
package history
