package observability

import "context"

// NoOpObserver drops every event. It is the default sink when a bus runs
// without telemetry wired up.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
