package models

import (
	"time"

	"github.com/google/uuid"
)

// PlaySource tells how an item came to start playing
type PlaySource string

const (
	PlaySourceDevice      PlaySource = "device"
	PlaySourceAutoAdvance PlaySource = "auto_advance"
	PlaySourceAutoPlay    PlaySource = "auto_play"
)

// PlayHistory records every item that went on air. It feeds the
// repetition lookback of queue leveling and the proof-of-play report.
type PlayHistory struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	QueueItemUUID   *uuid.UUID `gorm:"type:uuid" json:"queue_item_uuid,omitempty"`
	ContentID       *uint      `gorm:"index:idx_play_history_content" json:"content_id,omitempty"`
	CampaignID      *uint      `json:"campaign_id,omitempty"`
	Title           string     `gorm:"type:varchar(255)" json:"title"`
	Artist          string     `gorm:"type:varchar(255)" json:"artist"`
	Type            string     `gorm:"type:varchar(20)" json:"type"`
	DurationSeconds int        `json:"duration_seconds"`
	Source          PlaySource `gorm:"type:varchar(20);not null" json:"source"`
	PlayedAt        time.Time  `gorm:"not null;index:idx_play_history_played_at" json:"played_at"`
}

func (PlayHistory) TableName() string { return "play_history" }

// PlayHistoryFilter provides filter fields for repository queries
type PlayHistoryFilter struct {
	ContentID    *uint
	PlayedAfter  *time.Time
	PlayedBefore *time.Time
}
