package bus

import "sync/atomic"

// MetricsSnapshot is a point-in-time view of cross-tenant counters. It never
// exposes tenant contents, only counts.
type MetricsSnapshot struct {
	ActiveTenants     int64
	TenantsCreated    int64
	TenantsTornDown   int64
	SignalsSent       int64
	SignalsDelivered  int64
	SignalsFailed     int64
	DuplicatesDropped int64
	ExpiredCleaned    int64
}

type metrics struct {
	tenantsCreated    atomic.Int64
	tenantsTornDown   atomic.Int64
	signalsSent       atomic.Int64
	signalsDelivered  atomic.Int64
	signalsFailed     atomic.Int64
	duplicatesDropped atomic.Int64
	expiredCleaned    atomic.Int64
}

func newMetrics() *metrics {
	return &metrics{}
}

func (m *metrics) snapshot(activeTenants int64) MetricsSnapshot {
	return MetricsSnapshot{
		ActiveTenants:     activeTenants,
		TenantsCreated:    m.tenantsCreated.Load(),
		TenantsTornDown:   m.tenantsTornDown.Load(),
		SignalsSent:       m.signalsSent.Load(),
		SignalsDelivered:  m.signalsDelivered.Load(),
		SignalsFailed:     m.signalsFailed.Load(),
		DuplicatesDropped: m.duplicatesDropped.Load(),
		ExpiredCleaned:    m.expiredCleaned.Load(),
	}
}
