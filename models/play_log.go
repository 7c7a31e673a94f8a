package models

import (
	"time"

	"github.com/amirphl/airwave/utils"
	"gorm.io/gorm"
)

// PlayTrigger tells who caused a commercial play
type PlayTrigger string

const (
	PlayTriggerScheduler PlayTrigger = "scheduler"
	PlayTriggerManual    PlayTrigger = "manual"
	PlayTriggerFlow      PlayTrigger = "flow"
)

// PlayLog is an immutable record of one commercial play inside a slot.
// Counting rows per (campaign, slot_date, slot_index) gives the plays already spent.
type PlayLog struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	CampaignID  uint        `gorm:"not null;index:idx_play_logs_slot,priority:1" json:"campaign_id"`
	ContentID   *uint       `json:"content_id,omitempty"`
	StorageID   *string     `gorm:"type:varchar(512)" json:"storage_id,omitempty"`
	Title       string      `gorm:"type:varchar(255)" json:"title"`
	SlotDate    string      `gorm:"type:varchar(10);not null;index:idx_play_logs_slot,priority:2" json:"slot_date"`
	SlotIndex   int         `gorm:"not null;index:idx_play_logs_slot,priority:3" json:"slot_index"`
	PlayedAt    time.Time   `gorm:"not null;index:idx_play_logs_played_at" json:"played_at"`
	TriggeredBy PlayTrigger `gorm:"type:varchar(20);not null" json:"triggered_by"`
	CreatedAt   time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (PlayLog) TableName() string { return "play_logs" }

func (p *PlayLog) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// PlayLogFilter provides filter fields for repository queries
type PlayLogFilter struct {
	CampaignID   *uint
	SlotDate     *string
	SlotIndex    *int
	TriggeredBy  *PlayTrigger
	PlayedAfter  *time.Time
	PlayedBefore *time.Time
}
