package signal

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Type identifies the routing algorithm a signal is dispatched with.
type Type string

const (
	TypeBroadcast  Type = "BROADCAST"
	TypeDirect     Type = "DIRECT"
	TypeBubbleUp   Type = "BUBBLE_UP"
	TypeBubbleDown Type = "BUBBLE_DOWN"
)

type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Payload is the application message a signal carries. The bus treats Body
// as opaque; it is handed to handlers as-is.
type Payload struct {
	ID        string            `json:"id"`
	Sender    string            `json:"sender"`
	Recipient string            `json:"recipient"`
	Kind      string            `json:"kind"`
	Priority  Priority          `json:"priority,omitempty"`
	Body      any               `json:"body,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Headers = maps.Clone(p.Headers)
	return &clone
}

// Signal is one routed message. Hops is append-only and mutated in place as
// routing proceeds; everything else is set once at construction.
type Signal struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Type      Type      `json:"type"`
	Origin    string    `json:"origin,omitempty"`
	Target    string    `json:"target,omitempty"`
	Payload   *Payload  `json:"payload,omitempty"`
	Hops      []string  `json:"hops"`
	MaxHops   int       `json:"max_hops"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the signal is stale at the given instant.
func (s *Signal) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// HopLimitReached reports whether the signal has exhausted its hop budget.
func (s *Signal) HopLimitReached() bool {
	return len(s.Hops) >= s.MaxHops
}

// Clone returns a deep copy whose Hops and Payload are independent of the
// original, so later routing cannot mutate the copy.
func (s *Signal) Clone() *Signal {
	clone := *s
	clone.Hops = slices.Clone(s.Hops)
	clone.Payload = s.Payload.Clone()
	return &clone
}

// TaskID derives the task identifier reports are correlated with: the
// payload id when present, otherwise the signal id.
func (s *Signal) TaskID() string {
	if s.Payload != nil && s.Payload.ID != "" {
		return s.Payload.ID
	}
	return s.ID
}

func (s *Signal) String() string {
	return fmt.Sprintf(
		"Signal{ID: %s, Tenant: %s, Type: %s, Origin: %s, Target: %s, Hops: %v}",
		s.ID,
		s.TenantID,
		s.Type,
		s.Origin,
		s.Target,
		s.Hops,
	)
}

func generateID() string {
	return uuid.Must(uuid.NewV7()).String()
}
