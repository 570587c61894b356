// Package bus implements the hierarchical signal bus at the core of the
// swarm orchestration platform: agents register into a per-tenant tree and
// exchange typed signals without being directly coupled to each other.
//
// # Routing Algorithms
//
// Four algorithms cover the swarm's communication patterns:
//
//   - BROADCAST: every registered handler whose CanHandle accepts the signal
//   - DIRECT: exactly one target agent
//   - BUBBLE_UP: origin's ancestors in order, up to the root; one level
//     failing never stops the climb
//   - BUBBLE_DOWN: the unique tree path from origin (or root) down to the
//     target; a BLOCKED or FAILED hop halts propagation immediately
//
// # Usage
//
//	b, err := bus.New(config.DefaultBusConfig())
//
//	b.RegisterAgent("tenant-1", "manager-a", "", managerHandler)
//	b.RegisterAgent("tenant-1", "specialist-1", "manager-a", specialistHandler)
//
//	sig := b.NewSignal("tenant-1", signal.TypeBubbleUp, "specialist-1", "", payload)
//	reports := b.Send(ctx, sig)
//
// Send is total: it always returns a report list. Unknown targets, missing
// paths, hop-limit exhaustion, and handler panics all come back as FAILED
// reports; duplicate signal ids are silently absorbed with an empty list.
//
// # Tenancy
//
// Every operation is scoped to exactly one tenant id, validated before any
// state is touched. Tenant registries are created lazily on first use and
// removed by TearDown, which clears all inner state so a re-created tenant
// never observes leftovers. Each tenant keeps its own handler and listener
// registries, hierarchy, dedup set, pending queue, and routing ledger; the
// tenant table is the only cross-tenant structure.
//
// # Concurrency
//
// Registries are guarded by one mutex per tenant, never held across a
// handler invocation, so handlers may call back into the bus. Handlers
// within one Send run sequentially in traversal order; callers needing
// ordering across Send calls must serialize themselves.
package bus
