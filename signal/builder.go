package signal

import "time"

// Routing defaults applied by the builder. Callers override per signal via
// MaxHops and TTL, or bus-wide via config.BusConfig.
const (
	DefaultMaxHops = 10
	DefaultTTL     = 60 * time.Second
)

type Builder struct {
	signal *Signal
}

// New starts building a signal with a generated id, current timestamps, and
// default hop/expiry bounds.
func New(tenantID string, signalType Type, origin, target string, payload *Payload) *Builder {
	now := time.Now()
	return &Builder{
		signal: &Signal{
			ID:        generateID(),
			TenantID:  tenantID,
			Type:      signalType,
			Origin:    origin,
			Target:    target,
			Payload:   payload,
			Hops:      []string{},
			MaxHops:   DefaultMaxHops,
			CreatedAt: now,
			ExpiresAt: now.Add(DefaultTTL),
		},
	}
}

// NewBroadcast builds a signal delivered to every accepting handler in the
// tenant. Target is ignored for broadcasts.
func NewBroadcast(tenantID, origin string, payload *Payload) *Builder {
	return New(tenantID, TypeBroadcast, origin, "", payload)
}

// NewDirect builds a signal delivered to exactly one target agent.
func NewDirect(tenantID, origin, target string, payload *Payload) *Builder {
	return New(tenantID, TypeDirect, origin, target, payload)
}

// NewBubbleUp builds a signal that climbs the hierarchy from origin toward
// the root.
func NewBubbleUp(tenantID, origin string, payload *Payload) *Builder {
	return New(tenantID, TypeBubbleUp, origin, "", payload)
}

// NewBubbleDown builds a signal that walks the tree path from origin (or the
// root when origin is empty) down to target.
func NewBubbleDown(tenantID, origin, target string, payload *Payload) *Builder {
	return New(tenantID, TypeBubbleDown, origin, target, payload)
}

// ID overrides the generated signal id. Duplicate ids are absorbed by the
// router's dedup set, so caller-supplied ids make delivery idempotent.
func (b *Builder) ID(id string) *Builder {
	b.signal.ID = id
	return b
}

func (b *Builder) Origin(origin string) *Builder {
	b.signal.Origin = origin
	return b
}

func (b *Builder) Target(target string) *Builder {
	b.signal.Target = target
	return b
}

func (b *Builder) MaxHops(maxHops int) *Builder {
	if maxHops > 0 {
		b.signal.MaxHops = maxHops
	}
	return b
}

func (b *Builder) TTL(ttl time.Duration) *Builder {
	if ttl > 0 {
		b.signal.ExpiresAt = b.signal.CreatedAt.Add(ttl)
	}
	return b
}

func (b *Builder) Build() *Signal {
	return b.signal
}
