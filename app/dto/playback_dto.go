package dto

import "time"

// PlaybackStartedRequest is sent by the playout device when an item goes on air.
// Either QueueItemID or Title must be present.
type PlaybackStartedRequest struct {
	QueueItemID     *string    `json:"queue_item_id,omitempty" validate:"omitempty,uuid"`
	ContentID       *uint      `json:"content_id,omitempty" validate:"omitempty,gt=0"`
	Title           string     `json:"title,omitempty" validate:"required_without=QueueItemID,max=255"`
	Artist          string     `json:"artist,omitempty" validate:"max=255"`
	Type            string     `json:"type,omitempty" validate:"omitempty,oneof=song commercial jingle announcement"`
	DurationSeconds int        `json:"duration_seconds" validate:"gte=0"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
}

// PlaybackStartedResponse echoes what the engine now tracks as on air
type PlaybackStartedResponse struct {
	Message string    `json:"message"`
	Item    QueueItem `json:"item"`
}

// NowPlaying describes the tracked on-air item
type NowPlaying struct {
	Item      QueueItem `json:"item"`
	StartedAt time.Time `json:"started_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// ActiveFlow is a looping flow currently inside its window
type ActiveFlow struct {
	FlowID           uint      `json:"flow_id"`
	Name             string    `json:"name"`
	EnteredAt        time.Time `json:"entered_at"`
	Passes           int       `json:"passes"`
	ActionsCompleted int       `json:"actions_completed"`
	TotalActions     int       `json:"total_actions"`
	NextActionAt     time.Time `json:"next_action_at"`
}

// PlaybackStatusResponse is a snapshot of the continuity engine
type PlaybackStatusResponse struct {
	Message     string       `json:"message"`
	NowPlaying  *NowPlaying  `json:"now_playing,omitempty"`
	LastSlotKey string       `json:"last_slot_key,omitempty"`
	ActiveFlows []ActiveFlow `json:"active_flows"`
}
