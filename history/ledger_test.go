package history_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyhive/swarmbus/history"
	"github.com/copyhive/swarmbus/signal"
)

func testSignal(signalType signal.Type) *signal.Signal {
	return signal.New("tenant-1", signalType, "origin", "target", nil).Build()
}

func TestLedger_RecordAndOrder(t *testing.T) {
	ledger := history.NewLedger(10)

	ledger.Record(testSignal(signal.TypeDirect), "agent-a", history.StatusSuccess, time.Millisecond, "")
	ledger.Record(testSignal(signal.TypeDirect), "agent-b", history.StatusFailed, 0, "boom")
	ledger.Record(testSignal(signal.TypeBroadcast), "agent-c", history.StatusPending, 0, "")

	require.Equal(t, 3, ledger.Len())

	result := ledger.Query(history.Filter{})
	require.Len(t, result.Entries, 3)
	assert.Equal(t, "agent-c", result.Entries[0].AgentID, "most recent first")
	assert.Equal(t, "agent-b", result.Entries[1].AgentID)
	assert.Equal(t, "agent-a", result.Entries[2].AgentID)
	assert.Equal(t, 3, result.Total)
	assert.False(t, result.HasMore)
}

func TestLedger_CapacityEviction(t *testing.T) {
	ledger := history.NewLedger(3)

	for i := 0; i < 5; i++ {
		ledger.Record(testSignal(signal.TypeDirect), fmt.Sprintf("agent-%d", i), history.StatusSuccess, 0, "")
	}

	require.Equal(t, 3, ledger.Len())

	result := ledger.Query(history.Filter{})
	require.Len(t, result.Entries, 3)
	assert.Equal(t, "agent-4", result.Entries[0].AgentID)
	assert.Equal(t, "agent-3", result.Entries[1].AgentID)
	assert.Equal(t, "agent-2", result.Entries[2].AgentID, "oldest entries evicted")
}

func TestLedger_RecordClonesSignal(t *testing.T) {
	ledger := history.NewLedger(10)
	sig := testSignal(signal.TypeBubbleUp)

	ledger.Record(sig, "agent-a", history.StatusSuccess, 0, "")
	sig.Hops = append(sig.Hops, "later-hop")

	result := ledger.Query(history.Filter{})
	require.Len(t, result.Entries, 1)
	assert.Empty(t, result.Entries[0].Signal.Hops, "snapshot must not see later hop mutation")
}

func TestLedger_QueryFilters(t *testing.T) {
	ledger := history.NewLedger(50)

	ledger.Record(testSignal(signal.TypeDirect), "agent-a", history.StatusSuccess, time.Millisecond, "")
	ledger.Record(testSignal(signal.TypeDirect), "agent-a", history.StatusFailed, 0, "boom")
	ledger.Record(testSignal(signal.TypeBroadcast), "agent-b", history.StatusSuccess, time.Millisecond, "")
	ledger.Record(testSignal(signal.TypeBubbleDown), "agent-b", history.StatusPending, 0, "")

	byAgent := ledger.Query(history.Filter{AgentID: "agent-a"})
	assert.Equal(t, 2, byAgent.Total)

	byStatus := ledger.Query(history.Filter{Status: history.StatusSuccess})
	assert.Equal(t, 2, byStatus.Total)

	byType := ledger.Query(history.Filter{SignalType: signal.TypeBroadcast})
	require.Equal(t, 1, byType.Total)
	assert.Equal(t, "agent-b", byType.Entries[0].AgentID)

	combined := ledger.Query(history.Filter{AgentID: "agent-b", Status: history.StatusPending})
	require.Equal(t, 1, combined.Total)
	assert.Equal(t, signal.TypeBubbleDown, combined.Entries[0].Signal.Type)

	none := ledger.Query(history.Filter{AgentID: "agent-z"})
	assert.Equal(t, 0, none.Total)
	assert.Empty(t, none.Entries)
}

func TestLedger_QueryTimeRange(t *testing.T) {
	ledger := history.NewLedger(10)

	before := time.Now()
	ledger.Record(testSignal(signal.TypeDirect), "agent-a", history.StatusSuccess, 0, "")
	time.Sleep(time.Millisecond)
	mid := time.Now()
	time.Sleep(time.Millisecond)
	ledger.Record(testSignal(signal.TypeDirect), "agent-b", history.StatusSuccess, 0, "")
	after := time.Now()

	since := ledger.Query(history.Filter{Since: mid})
	require.Equal(t, 1, since.Total)
	assert.Equal(t, "agent-b", since.Entries[0].AgentID)

	until := ledger.Query(history.Filter{Until: mid})
	require.Equal(t, 1, until.Total)
	assert.Equal(t, "agent-a", until.Entries[0].AgentID)

	window := ledger.Query(history.Filter{Since: before, Until: after})
	assert.Equal(t, 2, window.Total)
}

func TestLedger_QueryPagination(t *testing.T) {
	ledger := history.NewLedger(20)
	for i := 0; i < 10; i++ {
		ledger.Record(testSignal(signal.TypeDirect), fmt.Sprintf("agent-%d", i), history.StatusSuccess, 0, "")
	}

	page1 := ledger.Query(history.Filter{Limit: 4})
	require.Len(t, page1.Entries, 4)
	assert.Equal(t, 10, page1.Total)
	assert.True(t, page1.HasMore)
	assert.Equal(t, "agent-9", page1.Entries[0].AgentID)

	page3 := ledger.Query(history.Filter{Offset: 8, Limit: 4})
	require.Len(t, page3.Entries, 2)
	assert.Equal(t, 10, page3.Total)
	assert.False(t, page3.HasMore)
	assert.Equal(t, "agent-0", page3.Entries[1].AgentID)

	past := ledger.Query(history.Filter{Offset: 50, Limit: 4})
	assert.Empty(t, past.Entries)
	assert.Equal(t, 10, past.Total)
	assert.False(t, past.HasMore)
}

func TestLedger_QueryLimitCap(t *testing.T) {
	ledger := history.NewLedger(600)
	for i := 0; i < 600; i++ {
		ledger.Record(testSignal(signal.TypeDirect), "agent-a", history.StatusSuccess, 0, "")
	}

	result := ledger.Query(history.Filter{Limit: 10_000})
	assert.Len(t, result.Entries, history.MaxQueryLimit)
	assert.Equal(t, 600, result.Total)
	assert.True(t, result.HasMore)

	unset := ledger.Query(history.Filter{})
	assert.Len(t, unset.Entries, history.MaxQueryLimit, "limit <= 0 defaults to the cap")
}

func TestLedger_AgentStats(t *testing.T) {
	ledger := history.NewLedger(20)

	ledger.Record(testSignal(signal.TypeDirect), "agent-a", history.StatusSuccess, 10*time.Millisecond, "")
	ledger.Record(testSignal(signal.TypeDirect), "agent-a", history.StatusSuccess, 30*time.Millisecond, "")
	ledger.Record(testSignal(signal.TypeDirect), "agent-a", history.StatusFailed, 0, "agent not found")
	ledger.Record(testSignal(signal.TypeBubbleDown), "agent-a", history.StatusPending, 0, "")
	ledger.Record(testSignal(signal.TypeDirect), "agent-b", history.StatusSuccess, time.Second, "")

	stats := ledger.AgentStats("agent-a")
	assert.Equal(t, "agent-a", stats.AgentID)
	assert.Equal(t, 2, stats.Successes)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 20*time.Millisecond, stats.AvgDuration, "averaged over timed entries only")
	assert.False(t, stats.LastActivity.IsZero())

	empty := ledger.AgentStats("agent-z")
	assert.Zero(t, empty.Successes)
	assert.Zero(t, empty.AvgDuration)
	assert.True(t, empty.LastActivity.IsZero())
}

func TestLedger_Clear(t *testing.T) {
	ledger := history.NewLedger(10)
	ledger.Record(testSignal(signal.TypeDirect), "agent-a", history.StatusSuccess, 0, "")
	ledger.Record(testSignal(signal.TypeDirect), "agent-b", history.StatusSuccess, 0, "")

	assert.Equal(t, 2, ledger.Clear())
	assert.Equal(t, 0, ledger.Len())
	assert.Empty(t, ledger.Query(history.Filter{}).Entries)
}
