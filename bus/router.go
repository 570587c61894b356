package bus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/copyhive/swarmbus/history"
	"github.com/copyhive/swarmbus/observability"
	"github.com/copyhive/swarmbus/signal"
)

// Send routes a signal through the tenant's hierarchy and returns one report
// per delivery attempt. Send is total: routing failures come back as FAILED
// reports, never as panics or errors, and a duplicate signal id yields an
// empty (non-nil) report list.
//
// Within one call, hops and history entries follow the traversal order of
// the algorithm. Across calls there is no ordering guarantee.
func (b *Bus) Send(ctx context.Context, sig *signal.Signal) []signal.AgentReport {
	if sig == nil {
		return []signal.AgentReport{signal.FailureReport("", "", "nil signal")}
	}

	reg, err := b.resolveTenant(sig.TenantID)
	if err != nil {
		b.metrics.signalsFailed.Add(1)
		return []signal.AgentReport{signal.FailureReport("", sig.TaskID(), err.Error())}
	}

	if reg.isProcessed(sig.ID) {
		b.metrics.duplicatesDropped.Add(1)
		b.observe(ctx, observability.EventSignalDuplicate, observability.LevelVerbose, "bus.router", map[string]any{
			"tenant_id": sig.TenantID,
			"signal_id": sig.ID,
		})
		return []signal.AgentReport{}
	}

	if sig.HopLimitReached() {
		msg := fmt.Sprintf("%s: %d hops, max %d", ErrHopLimit, len(sig.Hops), sig.MaxHops)
		reg.ledger.Record(sig, sig.Origin, history.StatusFailed, 0, msg)
		b.metrics.signalsFailed.Add(1)
		return []signal.AgentReport{signal.FailureReport(sig.Origin, sig.TaskID(), msg)}
	}

	reg.markProcessed(sig.ID)
	b.metrics.signalsSent.Add(1)
	b.observe(ctx, observability.EventSignalSent, observability.LevelVerbose, "bus.router", map[string]any{
		"tenant_id":   sig.TenantID,
		"signal_id":   sig.ID,
		"signal_type": string(sig.Type),
	})

	switch sig.Type {
	case signal.TypeBroadcast:
		return b.routeBroadcast(ctx, reg, sig)
	case signal.TypeDirect:
		return b.routeDirect(ctx, reg, sig)
	case signal.TypeBubbleUp:
		return b.routeBubbleUp(ctx, reg, sig)
	case signal.TypeBubbleDown:
		return b.routeBubbleDown(ctx, reg, sig)
	default:
		msg := fmt.Sprintf("%s: %q", ErrUnknownType, sig.Type)
		reg.ledger.Record(sig, sig.Origin, history.StatusFailed, 0, msg)
		b.metrics.signalsFailed.Add(1)
		return []signal.AgentReport{signal.FailureReport(sig.Origin, sig.TaskID(), msg)}
	}
}

// routeBroadcast delivers to every registered handler that accepts the
// signal. One handler failing or panicking never aborts the rest.
func (b *Bus) routeBroadcast(ctx context.Context, reg *tenantRegistry, sig *signal.Signal) []signal.AgentReport {
	reports := make([]signal.AgentReport, 0)
	for _, entry := range reg.handlerEntries() {
		if !entry.handler.CanHandle(sig) {
			continue
		}
		reports = append(reports, b.deliver(ctx, reg, sig, entry.agentID, entry.handler))
	}
	return reports
}

// routeDirect delivers to the target handler only. The target is addressed
// explicitly, so CanHandle is not consulted.
func (b *Bus) routeDirect(ctx context.Context, reg *tenantRegistry, sig *signal.Signal) []signal.AgentReport {
	handler, ok := reg.handler(sig.Target)
	if !ok {
		msg := fmt.Sprintf("%s: %s", ErrAgentNotFound, sig.Target)
		reg.ledger.Record(sig, sig.Target, history.StatusFailed, 0, msg)
		b.metrics.signalsFailed.Add(1)
		b.observe(ctx, observability.EventSignalFailed, observability.LevelWarning, "bus.router", map[string]any{
			"tenant_id": sig.TenantID,
			"signal_id": sig.ID,
			"agent_id":  sig.Target,
			"reason":    msg,
		})
		return []signal.AgentReport{signal.FailureReport(sig.Target, sig.TaskID(), msg)}
	}

	return []signal.AgentReport{b.deliver(ctx, reg, sig, sig.Target, handler)}
}

// routeBubbleUp climbs the hierarchy from the origin toward the root,
// delivering to each accepting ancestor. A failure at one level never stops
// the climb; a broken parent chain ends it cleanly.
func (b *Bus) routeBubbleUp(ctx context.Context, reg *tenantRegistry, sig *signal.Signal) []signal.AgentReport {
	reports := make([]signal.AgentReport, 0)
	visited := map[string]bool{sig.Origin: true}

	current := sig.Origin
	for current != b.rootID {
		parent, ok := reg.parentOf(current)
		if !ok || visited[parent] {
			break
		}
		visited[parent] = true

		if handler, registered := reg.handler(parent); registered && handler.CanHandle(sig) {
			report := b.deliver(ctx, reg, sig, parent, handler)
			reports = append(reports, report)
			if report.Failed() {
				b.logger.Warn("bubble-up level failed, continuing climb",
					slog.String("bus_name", b.name),
					slog.String("tenant_id", sig.TenantID),
					slog.String("agent_id", parent),
				)
			}
		}
		current = parent
	}
	return reports
}

// routeBubbleDown walks the unique tree path from the origin (or the root)
// down to the target. A BLOCKED or FAILED report at any hop stops
// propagation immediately; downstream agents are never invoked.
func (b *Bus) routeBubbleDown(ctx context.Context, reg *tenantRegistry, sig *signal.Signal) []signal.AgentReport {
	from := sig.Origin
	if from == "" {
		from = b.rootID
	}

	path := reg.path(from, sig.Target)
	if len(path) == 0 {
		msg := fmt.Sprintf("%s: no path from %s to %s in tenant %s", ErrNoPath, from, sig.Target, sig.TenantID)
		reg.ledger.Record(sig, sig.Target, history.StatusFailed, 0, msg)
		b.metrics.signalsFailed.Add(1)
		b.observe(ctx, observability.EventSignalFailed, observability.LevelWarning, "bus.router", map[string]any{
			"tenant_id": sig.TenantID,
			"signal_id": sig.ID,
			"agent_id":  sig.Target,
			"reason":    msg,
		})
		return []signal.AgentReport{signal.FailureReport(sig.Target, sig.TaskID(), msg)}
	}

	reports := make([]signal.AgentReport, 0, len(path))
	for _, agentID := range path {
		handler, registered := reg.handler(agentID)
		if !registered || !handler.CanHandle(sig) {
			continue // ghost or non-accepting node: traversable, never invocable
		}

		report := b.deliver(ctx, reg, sig, agentID, handler)
		reports = append(reports, report)
		if report.Failed() || report.Blocked() {
			b.logger.Warn("bubble-down halted",
				slog.String("bus_name", b.name),
				slog.String("tenant_id", sig.TenantID),
				slog.String("agent_id", agentID),
				slog.String("status", string(report.Status)),
			)
			break
		}
	}
	return reports
}

// deliver appends the hop, invokes the handler, records the outcome in the
// ledger, and notifies the agent's listeners. Handler errors and panics are
// converted to FAILED reports scoped to this one agent.
func (b *Bus) deliver(ctx context.Context, reg *tenantRegistry, sig *signal.Signal, agentID string, handler Handler) signal.AgentReport {
	sig.Hops = append(sig.Hops, agentID)

	start := time.Now()
	report, err := invokeHandler(ctx, handler, sig)
	duration := time.Since(start)

	if err != nil {
		report = signal.FailureReport(agentID, sig.TaskID(), err.Error())
		reg.ledger.Record(sig, agentID, history.StatusFailed, duration, err.Error())
		b.metrics.signalsFailed.Add(1)
		b.observe(ctx, observability.EventSignalFailed, observability.LevelWarning, "bus.router", map[string]any{
			"tenant_id":   sig.TenantID,
			"signal_id":   sig.ID,
			"agent_id":    agentID,
			"duration_ms": duration.Milliseconds(),
			"reason":      err.Error(),
		})
	} else {
		if report.AgentID == "" {
			report.AgentID = agentID
		}
		if report.Timestamp.IsZero() {
			report.Timestamp = time.Now()
		}
		reg.ledger.Record(sig, agentID, ledgerStatus(report.Status), duration, strings.Join(report.Errors, "; "))
		b.metrics.signalsDelivered.Add(1)
		b.observe(ctx, observability.EventSignalDelivered, observability.LevelVerbose, "bus.router", map[string]any{
			"tenant_id":   sig.TenantID,
			"signal_id":   sig.ID,
			"agent_id":    agentID,
			"status":      string(report.Status),
			"duration_ms": duration.Milliseconds(),
		})
	}

	b.notifyListeners(ctx, reg, agentID, sig)
	return report
}

// ledgerStatus maps a handler report status to a delivery outcome: FAILED
// stays failed, BLOCKED is pending, everything else counts as success.
func ledgerStatus(status signal.ReportStatus) history.Status {
	switch status {
	case signal.StatusFailed:
		return history.StatusFailed
	case signal.StatusBlocked:
		return history.StatusPending
	default:
		return history.StatusSuccess
	}
}

// invokeHandler runs the handler, converting a panic into an error so one
// bad agent cannot take down the router.
func invokeHandler(ctx context.Context, handler Handler, sig *signal.Signal) (report signal.AgentReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return handler.Handle(ctx, sig)
}

// notifyListeners synchronously invokes the agent's listeners. Listener
// panics are recovered and logged, never propagated to the sender.
func (b *Bus) notifyListeners(ctx context.Context, reg *tenantRegistry, agentID string, sig *signal.Signal) {
	listeners := reg.listenersFor(agentID)
	if len(listeners) == 0 {
		return
	}

	for _, listener := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Warn("listener panicked",
						slog.String("bus_name", b.name),
						slog.String("tenant_id", sig.TenantID),
						slog.String("agent_id", agentID),
						slog.Any("panic", r),
					)
				}
			}()
			listener(sig)
		}()
	}

	b.observe(ctx, observability.EventListenerNotify, observability.LevelVerbose, "bus.listeners", map[string]any{
		"tenant_id": sig.TenantID,
		"signal_id": sig.ID,
		"agent_id":  agentID,
		"listeners": len(listeners),
	})
}
