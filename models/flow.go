package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/airwave/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlowStatus represents the status of a flow
type FlowStatus string

const (
	FlowStatusDraft    FlowStatus = "draft"
	FlowStatusActive   FlowStatus = "active"
	FlowStatusInactive FlowStatus = "inactive"
)

// Valid checks if the status is valid
func (s FlowStatus) Valid() bool {
	switch s {
	case FlowStatusDraft, FlowStatusActive, FlowStatusInactive:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for FlowStatus
func (s *FlowStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = FlowStatus(v)
	case []byte:
		*s = FlowStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into FlowStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for FlowStatus
func (s FlowStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid FlowStatus: %s", s)
	}
	return string(s), nil
}

// FlowTriggerType tells how a flow starts
type FlowTriggerType string

const (
	FlowTriggerManual    FlowTriggerType = "manual"
	FlowTriggerScheduled FlowTriggerType = "scheduled"
)

// Flow is an administrator-defined ordered sequence of programming actions
type Flow struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_flows_uuid" json:"uuid"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description *string         `gorm:"type:text" json:"description,omitempty"`
	Actions     FlowActions     `gorm:"type:jsonb;not null" json:"actions"`
	TriggerType FlowTriggerType `gorm:"type:varchar(16);not null;default:'manual'" json:"trigger_type"`
	Status      FlowStatus      `gorm:"type:varchar(16);not null;default:'draft';index:idx_flows_status" json:"status"`
	Loop        bool            `gorm:"column:loop_enabled;not null;default:false" json:"loop"`
	Priority    int             `gorm:"not null;default:5" json:"priority"`
	LastRunAt   *time.Time      `json:"last_run_at,omitempty"`
	RunCount    int             `gorm:"not null;default:0" json:"run_count"`
	CreatedAt   time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`

	// Relations
	Schedule *FlowSchedule `gorm:"foreignKey:FlowID" json:"schedule,omitempty"`
}

func (Flow) TableName() string { return "flows" }

// BeforeCreate is called before creating a new record
func (f *Flow) BeforeCreate(tx *gorm.DB) error {
	if f.UUID == uuid.Nil {
		f.UUID = uuid.New()
	}
	if f.Status == "" {
		f.Status = FlowStatusDraft
	}
	if f.TriggerType == "" {
		f.TriggerType = FlowTriggerManual
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = utils.UTCNow()
	}
	return nil
}

// IsScheduledLoop reports whether the continuity monitor should track this flow
func (f *Flow) IsScheduledLoop() bool {
	return f.Status == FlowStatusActive && f.Loop &&
		f.TriggerType == FlowTriggerScheduled && f.Schedule != nil
}

// FlowFilter provides filter fields for repository queries
type FlowFilter struct {
	ID          *uint
	UUID        *uuid.UUID
	Status      *FlowStatus
	TriggerType *FlowTriggerType
	Loop        *bool
	ExcludeID   *uint
}
