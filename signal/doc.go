// Package signal defines the message primitives routed by the swarm bus:
// the Signal envelope with its routing metadata, the opaque application
// Payload it carries, and the AgentReport handlers return.
//
// Signals are created through the builder:
//
//	sig := signal.NewDirect("tenant-1", "manager-a", "specialist-1", payload).
//		MaxHops(5).
//		TTL(30 * time.Second).
//		Build()
//
// Ids are collision-resistant UUIDv7 values; the bus deduplicates on them,
// so resending an identical signal is a no-op rather than a double delivery.
package signal
