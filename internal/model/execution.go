// internal/model/execution.go
package model

import "time"

// Execution types
const (
	ExecutionTypeImmediate = "immediate"
	ExecutionTypeScheduled = "scheduled"
	ExecutionTypeRecurring = "recurring"
)

// Execution statuses
const (
	ExecutionStatusQueued    = "queued"
	ExecutionStatusRunning   = "running"
	ExecutionStatusCompleted = "completed"
	ExecutionStatusFailed    = "failed"
	ExecutionStatusPaused    = "paused"
)

// CampaignExecution tracks the lifecycle of one bulk-send operation.
type CampaignExecution struct {
	ID            int        `db:"id" json:"id"`
	CampaignID    int        `db:"campaign_id" json:"campaign_id"`
	ExecutionType string     `db:"execution_type" json:"execution_type"`
	Status        string     `db:"status" json:"status"`
	SentCount     int        `db:"sent_count" json:"sent_count"`
	FailedCount   int        `db:"failed_count" json:"failed_count"`
	TargetCount   *int       `db:"target_count" json:"target_count,omitempty"`
	ErrorMessage  string     `db:"error_message" json:"error_message,omitempty"`
	StartedAt     *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

func IsValidExecutionType(t string) bool {
	switch t {
	case ExecutionTypeImmediate, ExecutionTypeScheduled, ExecutionTypeRecurring:
		return true
	}
	return false
}

func IsValidExecutionStatus(s string) bool {
	switch s {
	case ExecutionStatusQueued, ExecutionStatusRunning, ExecutionStatusCompleted,
		ExecutionStatusFailed, ExecutionStatusPaused:
		return true
	}
	return false
}

// IsTerminalExecutionStatus reports whether no further status change is
// permitted from s. Counters may still land on a terminal execution.
func IsTerminalExecutionStatus(s string) bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// CanTransitionExecution reports whether a status change from -> to is
// allowed. running may only be (re-)entered from queued or paused.
func CanTransitionExecution(from, to string) bool {
	if IsTerminalExecutionStatus(from) {
		return false
	}
	switch to {
	case ExecutionStatusRunning:
		return from == ExecutionStatusQueued || from == ExecutionStatusPaused
	case ExecutionStatusPaused:
		return from == ExecutionStatusRunning
	case ExecutionStatusCompleted:
		return from == ExecutionStatusRunning
	case ExecutionStatusFailed:
		return true // any non-terminal state may fail
	}
	return false
}

// ExecutionStats aggregates executions by status plus total sent/failed
// counters across the matched set.
type ExecutionStats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	TotalSent   int            `json:"total_sent"`
	TotalFailed int            `json:"total_failed"`
}
