package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/copyhive/swarmbus/config"
	"github.com/copyhive/swarmbus/history"
	"github.com/copyhive/swarmbus/observability"
	"github.com/copyhive/swarmbus/signal"
)

// Bus is the hierarchical signal bus: it registers agents into per-tenant
// trees, routes signals between them, and keeps per-tenant routing history.
// A Bus is an explicit service object owned by the composition root; create
// one with New and drop all state with Reset.
//
// The tenant table is the only structure shared across tenants. Every other
// piece of state lives inside one tenantRegistry and is only touched by
// operations scoped to that tenant id.
type Bus struct {
	name         string
	rootID       string
	maxHops      int
	signalTTL    time.Duration
	historyLimit int

	logger   *slog.Logger
	observer observability.Observer
	metrics  *metrics

	mu      sync.RWMutex
	tenants map[string]*tenantRegistry
}

// New creates a Bus from configuration, resolving the named observer from
// the observability registry.
func New(cfg config.BusConfig) (*Bus, error) {
	defaults := config.DefaultBusConfig()
	defaults.Merge(&cfg)
	cfg = defaults

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	return &Bus{
		name:         cfg.Name,
		rootID:       cfg.RootAgentID,
		maxHops:      cfg.DefaultMaxHops,
		signalTTL:    cfg.SignalTTL.Std(),
		historyLimit: cfg.HistoryLimit,
		logger:       cfg.Logger,
		observer:     observer,
		metrics:      newMetrics(),
		tenants:      make(map[string]*tenantRegistry),
	}, nil
}

// RootAgentID returns the fixed root identifier of every tenant hierarchy.
func (b *Bus) RootAgentID() string {
	return b.rootID
}

// NewSignal builds a signal stamped with this bus's configured hop and
// expiry defaults.
func (b *Bus) NewSignal(tenantID string, signalType signal.Type, origin, target string, payload *signal.Payload) *signal.Signal {
	return signal.New(tenantID, signalType, origin, target, payload).
		MaxHops(b.maxHops).
		TTL(b.signalTTL).
		Build()
}

func validTenantID(tenantID string) bool {
	return strings.TrimSpace(tenantID) != ""
}

// resolveTenant returns the tenant's registry, creating it lazily. The
// tenant id is validated before any registry access.
func (b *Bus) resolveTenant(tenantID string) (*tenantRegistry, error) {
	if !validTenantID(tenantID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTenant, tenantID)
	}

	b.mu.RLock()
	reg, exists := b.tenants[tenantID]
	b.mu.RUnlock()
	if exists {
		return reg, nil
	}

	b.mu.Lock()
	reg, exists = b.tenants[tenantID]
	if !exists {
		reg = newTenantRegistry(tenantID, b.rootID, b.historyLimit)
		b.tenants[tenantID] = reg
	}
	b.mu.Unlock()

	if !exists {
		b.metrics.tenantsCreated.Add(1)
		b.observe(context.Background(), observability.EventTenantCreate, observability.LevelVerbose, "bus.tenants", map[string]any{
			"tenant_id": tenantID,
		})
	}
	return reg, nil
}

// RegisterAgent places an agent in the tenant's hierarchy and binds its
// handler. An empty parentID parents the agent to the root; unknown parents
// are pre-seeded so parents may register after their children. Re-registering
// an agent overwrites its handler and reparents it.
func (b *Bus) RegisterAgent(tenantID, agentID, parentID string, handler Handler) error {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return err
	}
	if agentID == "" {
		return ErrInvalidAgent
	}
	if handler == nil {
		return fmt.Errorf("%w: agent %s", ErrNilHandler, agentID)
	}

	reg.registerAgent(agentID, parentID, handler)

	b.logger.Debug("agent registered",
		slog.String("bus_name", b.name),
		slog.String("tenant_id", tenantID),
		slog.String("agent_id", agentID),
		slog.String("parent_id", parentID),
	)
	b.observe(context.Background(), observability.EventAgentRegister, observability.LevelVerbose, "bus.registry", map[string]any{
		"tenant_id": tenantID,
		"agent_id":  agentID,
		"parent_id": parentID,
	})
	return nil
}

// UnregisterAgent removes an agent's handler, listeners, and hierarchy edge.
// Its descendants stay in the tree as children of a ghost node.
func (b *Bus) UnregisterAgent(tenantID, agentID string) error {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return err
	}

	if !reg.unregisterAgent(agentID) {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}

	b.logger.Debug("agent unregistered",
		slog.String("bus_name", b.name),
		slog.String("tenant_id", tenantID),
		slog.String("agent_id", agentID),
	)
	b.observe(context.Background(), observability.EventAgentUnregister, observability.LevelVerbose, "bus.registry", map[string]any{
		"tenant_id": tenantID,
		"agent_id":  agentID,
	})
	return nil
}

// Subscribe attaches a passive listener to an agent id and returns the
// closure that removes it. Listeners observe signals after routing; they
// are never part of delivery.
func (b *Bus) Subscribe(tenantID, agentID string, listener Listener) (func(), error) {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return nil, err
	}
	if agentID == "" {
		return nil, ErrInvalidAgent
	}
	if listener == nil {
		return nil, fmt.Errorf("%w: agent %s", ErrNilListener, agentID)
	}

	token := reg.subscribe(agentID, listener)
	return func() {
		reg.unsubscribe(agentID, token)
	}, nil
}

// TeardownResult reports what TearDown cleared, for audit.
type TeardownResult struct {
	ClearedHandlers  int
	ClearedListeners int
	ClearedSignals   int
}

// TearDown fully clears a tenant's registries and removes the tenant from
// the table. Tearing down an unknown tenant is a no-op returning a zeroed
// result. A later operation on the same tenant id starts from a fresh
// registry with no residual state.
func (b *Bus) TearDown(tenantID string) (TeardownResult, error) {
	if !validTenantID(tenantID) {
		return TeardownResult{}, fmt.Errorf("%w: %q", ErrInvalidTenant, tenantID)
	}

	b.mu.Lock()
	reg, exists := b.tenants[tenantID]
	delete(b.tenants, tenantID)
	b.mu.Unlock()

	if !exists {
		return TeardownResult{}, nil
	}

	result := reg.clear()
	b.metrics.tenantsTornDown.Add(1)

	b.logger.Debug("tenant torn down",
		slog.String("bus_name", b.name),
		slog.String("tenant_id", tenantID),
		slog.Int("cleared_handlers", result.ClearedHandlers),
		slog.Int("cleared_listeners", result.ClearedListeners),
		slog.Int("cleared_signals", result.ClearedSignals),
	)
	b.observe(context.Background(), observability.EventTenantTeardown, observability.LevelInfo, "bus.tenants", map[string]any{
		"tenant_id":         tenantID,
		"cleared_handlers":  result.ClearedHandlers,
		"cleared_listeners": result.ClearedListeners,
		"cleared_signals":   result.ClearedSignals,
	})
	return result, nil
}

// ActiveTenants returns the sorted ids of tenants holding state. Contents
// are never exposed, only identifiers.
func (b *Bus) ActiveTenants() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tenantIDs := make([]string, 0, len(b.tenants))
	for tenantID := range b.tenants {
		tenantIDs = append(tenantIDs, tenantID)
	}
	sort.Strings(tenantIDs)
	return tenantIDs
}

// EnqueueSignal parks a signal on the tenant's pending queue for deferred
// delivery. Pending signals are subject to CleanupExpiredSignals.
func (b *Bus) EnqueueSignal(tenantID string, sig *signal.Signal) error {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return err
	}
	reg.enqueue(sig)
	return nil
}

// FlushPending drains the tenant's pending queue through Send, skipping
// signals that expired while queued, and returns the accumulated reports.
func (b *Bus) FlushPending(ctx context.Context, tenantID string) ([]signal.AgentReport, error) {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var reports []signal.AgentReport
	for _, sig := range reg.drainPending() {
		if sig.Expired(now) {
			b.dropExpiredSignal(ctx, tenantID, sig)
			continue
		}
		reports = append(reports, b.Send(ctx, sig)...)
	}
	return reports, nil
}

// CleanupExpiredSignals drops stale signals from the tenant's pending queue
// and returns how many were removed. In-flight sends are never aborted;
// expiry only governs the queue.
func (b *Bus) CleanupExpiredSignals(tenantID string) (int, error) {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return 0, err
	}

	expired := reg.dropExpired(time.Now())
	for _, sig := range expired {
		b.dropExpiredSignal(context.Background(), tenantID, sig)
	}
	return len(expired), nil
}

func (b *Bus) dropExpiredSignal(ctx context.Context, tenantID string, sig *signal.Signal) {
	b.metrics.expiredCleaned.Add(1)
	b.logger.Debug("expired signal dropped",
		slog.String("bus_name", b.name),
		slog.String("tenant_id", tenantID),
		slog.String("signal_id", sig.ID),
	)
	b.observe(ctx, observability.EventSignalExpired, observability.LevelVerbose, "bus.queue", map[string]any{
		"tenant_id":  tenantID,
		"signal_id":  sig.ID,
		"expired_at": sig.ExpiresAt,
	})
}

// SwarmState is a tenant's observable registry state.
type SwarmState struct {
	TenantID         string
	Agents           []string          // sorted ids with a registered handler
	Hierarchy        map[string]string // child id → parent id
	Listeners        int
	PendingSignals   int
	ProcessedSignals int
}

// SwarmState snapshots a tenant's registered agents, hierarchy, and
// queue/dedup counts.
func (b *Bus) SwarmState(tenantID string) (SwarmState, error) {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return SwarmState{}, err
	}
	return reg.snapshotState(), nil
}

// History queries the tenant's routing ledger. A tenant with no state yet
// yields an empty result, not an error.
func (b *Bus) History(tenantID string, filter history.Filter) (history.Result, error) {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return history.Result{}, err
	}
	return reg.ledger.Query(filter), nil
}

// AgentStats derives one agent's delivery statistics from the tenant ledger.
func (b *Bus) AgentStats(tenantID, agentID string) (history.Stats, error) {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return history.Stats{}, err
	}
	return reg.ledger.AgentStats(agentID), nil
}

// HierarchyString renders the tenant's agent tree for debugging. Nodes
// without a handler are marked as ghosts.
func (b *Bus) HierarchyString(tenantID string) (string, error) {
	reg, err := b.resolveTenant(tenantID)
	if err != nil {
		return "", err
	}
	return reg.renderHierarchy(), nil
}

// GlobalMetrics returns cross-tenant counters only; no tenant content.
func (b *Bus) GlobalMetrics() MetricsSnapshot {
	b.mu.RLock()
	active := int64(len(b.tenants))
	b.mu.RUnlock()
	return b.metrics.snapshot(active)
}

// Reset drops every tenant's state. Counters are preserved; use a new Bus
// for a clean slate of metrics.
func (b *Bus) Reset() {
	b.mu.Lock()
	tenants := b.tenants
	b.tenants = make(map[string]*tenantRegistry)
	b.mu.Unlock()

	for _, reg := range tenants {
		reg.clear()
	}

	b.logger.Debug("bus reset",
		slog.String("bus_name", b.name),
		slog.Int("tenants_dropped", len(tenants)),
	)
}

// Shutdown releases all tenant state. The bus holds no goroutines or file
// handles, so shutdown and reset coincide; the alias exists for composition
// roots that pair every New with a Shutdown.
func (b *Bus) Shutdown() {
	b.Reset()
}

func (b *Bus) observe(ctx context.Context, eventType observability.EventType, level observability.Level, source string, data map[string]any) {
	b.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
