package models

import (
	"time"

	"github.com/lib/pq"
)

// Recurrence is the repeat pattern of a flow schedule
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// Valid checks if the recurrence is valid
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}

// FlowSchedule is either a one-off window [StartAt, EndAt] or a recurring
// time-of-day window [StartTime, EndTime] on the days selected by Recurrence.
// Time-of-day values are HH:MM in the station timezone; EndTime < StartTime
// means the window runs past midnight.
// DaysOfWeek uses 0=Sunday .. 6=Saturday.
type FlowSchedule struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	FlowID     uint          `gorm:"not null;uniqueIndex:uk_flow_schedules_flow_id" json:"flow_id"`
	Recurrence Recurrence    `gorm:"type:varchar(16);not null;default:'none'" json:"recurrence"`
	StartTime  string        `gorm:"type:varchar(5)" json:"start_time,omitempty"`
	EndTime    string        `gorm:"type:varchar(5)" json:"end_time,omitempty"`
	DaysOfWeek pq.Int64Array `gorm:"type:bigint[]" json:"days_of_week,omitempty"`
	DayOfMonth *int          `json:"day_of_month,omitempty"`
	Month      *int          `json:"month,omitempty"`
	StartAt    *time.Time    `json:"start_at,omitempty"`
	EndAt      *time.Time    `json:"end_at,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (FlowSchedule) TableName() string { return "flow_schedules" }

// IsOneOff reports whether the schedule is a single explicit window
func (s *FlowSchedule) IsOneOff() bool {
	return s.Recurrence == RecurrenceNone || s.Recurrence == ""
}

// HasWeekday reports whether d is one of the selected weekdays
func (s *FlowSchedule) HasWeekday(d time.Weekday) bool {
	for _, v := range s.DaysOfWeek {
		if v == int64(d) {
			return true
		}
	}
	return false
}
