package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/airwave/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignStatus represents the status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusDeleted   CampaignStatus = "deleted"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusPaused,
		CampaignStatusCompleted, CampaignStatusDeleted:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// ContentFile describes a standalone audio file attached directly to a campaign
type ContentFile struct {
	StorageID       string `json:"storage_id"`
	Title           string `json:"title,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
}

// ContentRef points either at a catalog item or at an embedded file.
// Exactly one of ContentID and File is expected to be set.
type ContentRef struct {
	ContentID *uint        `json:"content_id,omitempty"`
	File      *ContentFile `json:"file,omitempty"`
}

// ContentRefs is the ordered content list of a campaign
type ContentRefs []ContentRef

// Value implements the driver.Valuer interface for ContentRefs
func (r ContentRefs) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// Scan implements the sql.Scanner interface for ContentRefs
func (r *ContentRefs) Scan(value any) error {
	if value == nil {
		*r = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ContentRefs", value)
	}

	return json.Unmarshal(bytes, r)
}

// Campaign is a scheduled run of commercial content with a per-slot play-count grid
type Campaign struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Type        string         `gorm:"type:varchar(32);not null;default:'commercial';index:idx_campaigns_type" json:"type"`
	Priority    int            `gorm:"not null;default:5" json:"priority"`
	StartDate   string         `gorm:"type:varchar(10);not null" json:"start_date"`
	EndDate     string         `gorm:"type:varchar(10);not null" json:"end_date"`
	Status      CampaignStatus `gorm:"type:varchar(20);not null;default:'draft';index:idx_campaigns_status" json:"status"`
	ContentRefs ContentRefs    `gorm:"type:jsonb;not null" json:"content_refs"`
	CreatedAt   time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`

	// Relations
	ScheduleEntries []CampaignScheduleEntry `gorm:"foreignKey:CampaignID" json:"schedule_entries,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.Type == "" {
		c.Type = "commercial"
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsEligibleOn reports whether the campaign may air on date (YYYY-MM-DD).
// The date range is inclusive on both ends.
func (c *Campaign) IsEligibleOn(date string) bool {
	return c.Status == CampaignStatusActive && c.StartDate <= date && date <= c.EndDate
}

// ScheduleEntryFor returns the grid entry for (date, slot), nil when absent
func (c *Campaign) ScheduleEntryFor(date string, slotIndex int) *CampaignScheduleEntry {
	for i := range c.ScheduleEntries {
		e := &c.ScheduleEntries[i]
		if e.SlotDate == date && e.SlotIndex == slotIndex {
			return e
		}
	}
	return nil
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Status   *CampaignStatus
	Type     *string
	Types    []string
	NotTypes []string
	// ActiveOn matches campaigns whose date range contains this date
	ActiveOn *string
}
