package signal

import "time"

// ReportStatus is the lifecycle state a handler reports for a task.
type ReportStatus string

const (
	StatusStarted    ReportStatus = "STARTED"
	StatusInProgress ReportStatus = "IN_PROGRESS"
	StatusCompleted  ReportStatus = "COMPLETED"
	StatusFailed     ReportStatus = "FAILED"
	StatusBlocked    ReportStatus = "BLOCKED"
)

// AgentReport is the result a handler returns for one delivered signal.
// The router also synthesizes FAILED reports for deliveries that never
// reached a handler (unknown target, hop limit, missing tenant).
type AgentReport struct {
	AgentID   string       `json:"agent_id"`
	TaskID    string       `json:"task_id"`
	Status    ReportStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Data      any          `json:"data,omitempty"`
	Errors    []string     `json:"errors,omitempty"`
}

func (r AgentReport) Failed() bool {
	return r.Status == StatusFailed
}

func (r AgentReport) Blocked() bool {
	return r.Status == StatusBlocked
}

// FailureReport builds a synthetic FAILED report for a delivery the router
// could not complete.
func FailureReport(agentID, taskID string, errs ...string) AgentReport {
	return AgentReport{
		AgentID:   agentID,
		TaskID:    taskID,
		Status:    StatusFailed,
		Timestamp: time.Now(),
		Errors:    errs,
	}
}
