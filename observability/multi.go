package observability

import "context"

// MultiObserver fans each bus event out to every sink in order. Useful when
// routing telemetry should land in both a logger and a metrics pipeline.
type MultiObserver []Observer

// NewMultiObserver builds a MultiObserver from the non-nil observers given.
func NewMultiObserver(observers ...Observer) MultiObserver {
	multi := make(MultiObserver, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			multi = append(multi, obs)
		}
	}
	return multi
}

func (m MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m {
		obs.OnEvent(ctx, event)
	}
}
