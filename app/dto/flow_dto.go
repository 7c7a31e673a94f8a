package dto

import (
	"encoding/json"
	"time"
)

// FlowSchedule is the recurrence definition of a flow.
// Recurrence "none" uses StartAt/EndAt; the others use StartTime/EndTime (HH:MM)
// plus the pattern fields they need.
type FlowSchedule struct {
	Recurrence string     `json:"recurrence" validate:"required,oneof=none daily weekly monthly yearly"`
	StartTime  string     `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime    string     `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	DaysOfWeek []int64    `json:"days_of_week,omitempty" validate:"omitempty,dive,gte=0,lte=6"`
	DayOfMonth *int       `json:"day_of_month,omitempty" validate:"omitempty,gte=1,lte=31"`
	Month      *int       `json:"month,omitempty" validate:"omitempty,gte=1,lte=12"`
	StartAt    *time.Time `json:"start_at,omitempty"`
	EndAt      *time.Time `json:"end_at,omitempty"`
}

// ScheduleCheckRequest asks whether a schedule may be admitted.
// FlowID excludes the flow being edited from the conflict search.
type ScheduleCheckRequest struct {
	FlowID   *string      `json:"flow_id,omitempty" validate:"omitempty,uuid"`
	Schedule FlowSchedule `json:"schedule" validate:"required"`
}

// ScheduleConflict names an active flow whose window overlaps the candidate
type ScheduleConflict struct {
	FlowID   string       `json:"flow_id"`
	Name     string       `json:"name"`
	Priority int          `json:"priority"`
	Schedule FlowSchedule `json:"schedule"`
}

// ScheduleCheckResponse is the admission verdict
type ScheduleCheckResponse struct {
	Message   string             `json:"message"`
	Admitted  bool               `json:"admitted"`
	Conflicts []ScheduleConflict `json:"conflicts"`
}

// CreateFlowRequest defines a flow. Actions is an array of objects with a
// "type" discriminator: play_genre, play_commercials, wait, set_volume,
// announcement, play_content.
type CreateFlowRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Actions     json.RawMessage `json:"actions" validate:"required" swaggertype:"array,object"`
	TriggerType string          `json:"trigger_type" validate:"required,oneof=manual scheduled"`
	Status      string          `json:"status,omitempty" validate:"omitempty,oneof=draft active inactive"`
	Loop        bool            `json:"loop"`
	Priority    int             `json:"priority" validate:"gte=0,lte=100"`
	Schedule    *FlowSchedule   `json:"schedule,omitempty" validate:"required_if=TriggerType scheduled"`
}

// UpdateFlowStatusRequest activates or deactivates a flow
type UpdateFlowStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active inactive"`
}

// Flow is the API view of a flow
type Flow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Actions     json.RawMessage `json:"actions" swaggertype:"array,object"`
	TriggerType string          `json:"trigger_type"`
	Status      string          `json:"status"`
	Loop        bool            `json:"loop"`
	Priority    int             `json:"priority"`
	LastRunAt   *time.Time      `json:"last_run_at,omitempty"`
	RunCount    int             `json:"run_count"`
	Schedule    *FlowSchedule   `json:"schedule,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FlowResponse wraps a single flow
type FlowResponse struct {
	Message string `json:"message"`
	Flow    Flow   `json:"flow"`
}

// ListFlowsResponse lists flows
type ListFlowsResponse struct {
	Message string `json:"message"`
	Items   []Flow `json:"items"`
}

// FlowExecution is one pass through a flow's actions
type FlowExecution struct {
	ID               uint       `json:"id"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	Status           string     `json:"status"`
	ActionsCompleted int        `json:"actions_completed"`
	TotalActions     int        `json:"total_actions"`
	TriggeredBy      string     `json:"triggered_by"`
	Error            *string    `json:"error,omitempty"`
}

// ListFlowExecutionsResponse lists the most recent passes of a flow
type ListFlowExecutionsResponse struct {
	Message string          `json:"message"`
	Items   []FlowExecution `json:"items"`
}
