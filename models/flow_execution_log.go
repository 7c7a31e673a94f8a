package models

import "time"

// FlowExecutionStatus is the outcome of one pass through a flow's actions
type FlowExecutionStatus string

const (
	FlowExecutionRunning     FlowExecutionStatus = "running"
	FlowExecutionCompleted   FlowExecutionStatus = "completed"
	FlowExecutionInterrupted FlowExecutionStatus = "interrupted"
	FlowExecutionFailed      FlowExecutionStatus = "failed"
)

// FlowExecutionLog records one execution pass of a flow
type FlowExecutionLog struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	FlowID           uint                `gorm:"not null;index:idx_flow_execution_logs_flow_id" json:"flow_id"`
	StartedAt        time.Time           `gorm:"not null" json:"started_at"`
	EndedAt          *time.Time          `json:"ended_at,omitempty"`
	Status           FlowExecutionStatus `gorm:"type:varchar(16);not null" json:"status"`
	ActionsCompleted int                 `gorm:"not null;default:0" json:"actions_completed"`
	TotalActions     int                 `gorm:"not null;default:0" json:"total_actions"`
	TriggeredBy      string              `gorm:"type:varchar(32);not null" json:"triggered_by"`
	Error            *string             `gorm:"type:text" json:"error,omitempty"`
}

func (FlowExecutionLog) TableName() string { return "flow_execution_logs" }

// FlowExecutionLogFilter provides filter fields for repository queries
type FlowExecutionLogFilter struct {
	FlowID *uint
	Status *FlowExecutionStatus
}
