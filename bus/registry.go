package bus

import (
	"sort"
	"sync"
	"time"

	"github.com/copyhive/swarmbus/history"
	"github.com/copyhive/swarmbus/signal"
)

// tenantRegistry is one tenant's isolated bundle of state. Its mutex guards
// the five inner structures together; it is never held across a handler
// invocation, so handlers may call back into the bus.
type tenantRegistry struct {
	tenantID string

	mu        sync.Mutex
	handlers  map[string]Handler
	listeners map[string]map[int]Listener // agent id → subscription token → listener
	hierarchy *tree
	processed map[string]bool // dedup set of routed signal ids
	pending   []*signal.Signal
	nextToken int

	ledger *history.Ledger
}

func newTenantRegistry(tenantID, rootID string, historyLimit int) *tenantRegistry {
	return &tenantRegistry{
		tenantID:  tenantID,
		handlers:  make(map[string]Handler),
		listeners: make(map[string]map[int]Listener),
		hierarchy: newTree(rootID),
		processed: make(map[string]bool),
		ledger:    history.NewLedger(historyLimit),
	}
}

func (r *tenantRegistry) registerAgent(agentID, parentID string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[agentID] = handler
	r.hierarchy.SetParent(agentID, parentID)
}

func (r *tenantRegistry) unregisterAgent(agentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[agentID]; !exists {
		return false
	}
	delete(r.handlers, agentID)
	delete(r.listeners, agentID)
	r.hierarchy.Detach(agentID)
	return true
}

func (r *tenantRegistry) handler(agentID string) (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handlers[agentID]
	return h, ok
}

type handlerEntry struct {
	agentID string
	handler Handler
}

// handlerEntries snapshots the handler mapping so broadcast can iterate
// without holding the registry lock across handler invocations.
func (r *tenantRegistry) handlerEntries() []handlerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]handlerEntry, 0, len(r.handlers))
	for agentID, h := range r.handlers {
		entries = append(entries, handlerEntry{agentID: agentID, handler: h})
	}
	return entries
}

func (r *tenantRegistry) subscribe(agentID string, listener Listener) (token int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listeners[agentID] == nil {
		r.listeners[agentID] = make(map[int]Listener)
	}
	r.nextToken++
	r.listeners[agentID][r.nextToken] = listener
	return r.nextToken
}

func (r *tenantRegistry) unsubscribe(agentID string, token int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.listeners[agentID]
	delete(subs, token)
	if len(subs) == 0 {
		delete(r.listeners, agentID)
	}
}

func (r *tenantRegistry) listenersFor(agentID string) []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.listeners[agentID]
	if len(subs) == 0 {
		return nil
	}
	snapshot := make([]Listener, 0, len(subs))
	for _, l := range subs {
		snapshot = append(snapshot, l)
	}
	return snapshot
}

func (r *tenantRegistry) isProcessed(signalID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed[signalID]
}

func (r *tenantRegistry) markProcessed(signalID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[signalID] = true
}

func (r *tenantRegistry) parentOf(agentID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hierarchy.Parent(agentID)
}

func (r *tenantRegistry) path(from, to string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hierarchy.Path(from, to)
}

func (r *tenantRegistry) enqueue(sig *signal.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, sig)
}

// dropExpired removes stale signals from the pending queue and returns them.
func (r *tenantRegistry) dropExpired(now time.Time) []*signal.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*signal.Signal
	kept := r.pending[:0]
	for _, sig := range r.pending {
		if sig.Expired(now) {
			expired = append(expired, sig)
		} else {
			kept = append(kept, sig)
		}
	}
	r.pending = kept
	return expired
}

// drainPending empties the queue and returns the signals in arrival order.
func (r *tenantRegistry) drainPending() []*signal.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()

	drained := r.pending
	r.pending = nil
	return drained
}

// snapshotState captures the registry's observable state for SwarmState.
func (r *tenantRegistry) snapshotState() SwarmState {
	r.mu.Lock()
	defer r.mu.Unlock()

	agents := make([]string, 0, len(r.handlers))
	for agentID := range r.handlers {
		agents = append(agents, agentID)
	}
	sort.Strings(agents)

	listeners := 0
	for _, subs := range r.listeners {
		listeners += len(subs)
	}

	return SwarmState{
		TenantID:         r.tenantID,
		Agents:           agents,
		Hierarchy:        r.hierarchy.Snapshot(),
		Listeners:        listeners,
		PendingSignals:   len(r.pending),
		ProcessedSignals: len(r.processed),
	}
}

// clear empties every structure and reports the cleared counts for audit.
func (r *tenantRegistry) clear() TeardownResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	listeners := 0
	for _, subs := range r.listeners {
		listeners += len(subs)
	}
	result := TeardownResult{
		ClearedHandlers:  len(r.handlers),
		ClearedListeners: listeners,
		ClearedSignals:   len(r.processed) + len(r.pending),
	}

	clear(r.handlers)
	clear(r.listeners)
	clear(r.processed)
	r.hierarchy.Clear()
	r.pending = nil
	r.ledger.Clear()

	return result
}

func (r *tenantRegistry) renderHierarchy() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hierarchy.Render(r.handlers)
}
