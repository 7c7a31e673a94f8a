package models

import (
	"encoding/json"
	"time"

	"github.com/amirphl/airwave/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueueItem is one upcoming entry of the durable playback queue.
// Position is contiguous from 0 (the head) to len-1.
type QueueItem struct {
	ID                uint            `gorm:"primaryKey" json:"-"`
	UUID              uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_playback_queue_uuid" json:"id"`
	Position          int             `gorm:"not null;index:idx_playback_queue_position" json:"position"`
	Title             string          `gorm:"type:varchar(255);not null" json:"title"`
	Artist            string          `gorm:"type:varchar(255)" json:"artist"`
	Type              string          `gorm:"type:varchar(20);not null" json:"type"`
	DurationSeconds   int             `gorm:"not null;default:0" json:"duration_seconds"`
	Genre             string          `gorm:"type:varchar(64)" json:"genre"`
	StorageKey        string          `gorm:"type:varchar(512)" json:"storage_key,omitempty"`
	Metadata          json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	ContentID         *uint           `json:"content_id,omitempty"`
	CampaignID        *uint           `json:"campaign_id,omitempty"`
	AutoQueued        bool            `gorm:"not null;default:false" json:"auto_queued"`
	ScheduledCampaign bool            `gorm:"not null;default:false" json:"scheduled_campaign"`
	ManualTrigger     bool            `gorm:"not null;default:false" json:"manual_trigger"`
	CreatedAt         time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (QueueItem) TableName() string { return "playback_queue" }

// BeforeCreate is called before creating a new record
func (q *QueueItem) BeforeCreate(tx *gorm.DB) error {
	if q.UUID == uuid.Nil {
		q.UUID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = utils.UTCNow()
	}
	return nil
}

// Duration returns the expected play length
func (q *QueueItem) Duration() time.Duration {
	return time.Duration(q.DurationSeconds) * time.Second
}

// NewQueueItemFromContent builds an unsaved queue item for a catalog entry
func NewQueueItemFromContent(c *Content) *QueueItem {
	id := c.ID
	return &QueueItem{
		Title:           c.Title,
		Artist:          c.Artist,
		Type:            c.Type.String(),
		DurationSeconds: c.DurationSeconds,
		Genre:           c.Genre,
		StorageKey:      c.StorageKey,
		Metadata:        c.Metadata,
		ContentID:       &id,
	}
}
