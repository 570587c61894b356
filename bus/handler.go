package bus

import (
	"context"

	"github.com/copyhive/swarmbus/signal"
)

// Handler is the contract agent implementations expose to the bus.
//
// CanHandle must be a pure predicate; the router consults it before every
// delivery except DIRECT, which targets the agent explicitly. Handle performs
// the agent's work and returns a report. Expected failures should be returned
// as a FAILED report, not an error: the router treats returned errors and
// panics as unexpected, converts them to FAILED reports, and cannot recover
// partial state the handler may have mutated.
type Handler interface {
	CanHandle(sig *signal.Signal) bool
	Handle(ctx context.Context, sig *signal.Signal) (signal.AgentReport, error)
}

// Listener passively observes a signal after a handler ran for its agent id.
// Listeners are not part of delivery: panics are recovered and logged, never
// propagated to the sender.
type Listener func(sig *signal.Signal)
