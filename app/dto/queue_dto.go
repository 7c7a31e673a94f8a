package dto

import (
	"encoding/json"
	"time"
)

// QueueItem is one entry of the playback queue as exposed by the API
type QueueItem struct {
	ID                string          `json:"id"`
	Position          int             `json:"position"`
	Title             string          `json:"title"`
	Artist            string          `json:"artist,omitempty"`
	Type              string          `json:"type"`
	Genre             string          `json:"genre,omitempty"`
	DurationSeconds   int             `json:"duration_seconds"`
	StorageKey        string          `json:"storage_key,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	ContentID         *uint           `json:"content_id,omitempty"`
	CampaignID        *uint           `json:"campaign_id,omitempty"`
	AutoQueued        bool            `json:"auto_queued"`
	ScheduledCampaign bool            `json:"scheduled_campaign"`
	ManualTrigger     bool            `json:"manual_trigger"`
	CreatedAt         time.Time       `json:"created_at"`
}

// QueueResponse lists the queue head first
type QueueResponse struct {
	Message              string      `json:"message"`
	Items                []QueueItem `json:"items"`
	Count                int         `json:"count"`
	TotalDurationSeconds int         `json:"total_duration_seconds"`
}

// AppendQueueRequest appends catalog items at the tail
type AppendQueueRequest struct {
	ContentIDs []uint `json:"content_ids" validate:"required,min=1,max=100,dive,gt=0"`
}

// InsertQueueRequest inserts catalog items starting at Index
type InsertQueueRequest struct {
	Index      int    `json:"index" validate:"gte=0"`
	ContentIDs []uint `json:"content_ids" validate:"required,min=1,max=100,dive,gt=0"`
}

// MoveQueueRequest moves the item at From so it ends up at To
type MoveQueueRequest struct {
	From int `json:"from" validate:"gte=0"`
	To   int `json:"to" validate:"gte=0"`
}
