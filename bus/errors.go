package bus

import "errors"

// Sentinel errors for bus operations. Routing failures inside Send are never
// returned as errors; they surface as FAILED reports carrying these messages.
var (
	ErrInvalidTenant = errors.New("invalid tenant id")
	ErrInvalidAgent  = errors.New("agent id is empty")
	ErrAgentNotFound = errors.New("agent not found")
	ErrNilHandler    = errors.New("handler is nil")
	ErrNilListener   = errors.New("listener is nil")
	ErrNoPath        = errors.New("no path between agents")
	ErrHopLimit      = errors.New("hop limit exceeded")
	ErrHandlerPanic  = errors.New("handler panicked")
	ErrUnknownType   = errors.New("unknown signal type")
)
