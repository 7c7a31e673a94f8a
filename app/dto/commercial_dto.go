package dto

// CommercialPreviewRequest selects the slot to preview. At is RFC3339 and defaults to now.
type CommercialPreviewRequest struct {
	At                 string `query:"at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Force              bool   `query:"force"`
	MaxCount           int    `query:"max_count" validate:"gte=0"`
	MaxDurationSeconds int    `query:"max_duration_seconds" validate:"gte=0"`
}

// TriggerCommercialsRequest airs the current slot's commercials immediately.
// Force ignores plays already logged for the slot.
type TriggerCommercialsRequest struct {
	Force              bool     `json:"force"`
	MaxCount           *int     `json:"max_count,omitempty" validate:"omitempty,gte=0"`
	MaxDurationSeconds *int     `json:"max_duration_seconds,omitempty" validate:"omitempty,gte=0"`
	IncludeTypes       []string `json:"include_types,omitempty" validate:"omitempty,dive,min=1,max=32"`
	ExcludeTypes       []string `json:"exclude_types,omitempty" validate:"omitempty,dive,min=1,max=32"`
}

// CommercialPlay is one resolved commercial
type CommercialPlay struct {
	CampaignID      uint   `json:"campaign_id"`
	CampaignUUID    string `json:"campaign_uuid"`
	CampaignName    string `json:"campaign_name"`
	Priority        int    `json:"priority"`
	ContentID       *uint  `json:"content_id,omitempty"`
	StorageID       string `json:"storage_id,omitempty"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration_seconds"`
}

// CommercialPreviewResponse lists what a slot would air, without committing
type CommercialPreviewResponse struct {
	Message              string           `json:"message"`
	SlotDate             string           `json:"slot_date"`
	SlotIndex            int              `json:"slot_index"`
	SlotKey              string           `json:"slot_key"`
	Mode                 string           `json:"mode"`
	Items                []CommercialPlay `json:"items"`
	TotalDurationSeconds int              `json:"total_duration_seconds"`
}

// TriggerCommercialsResponse reports what a manual trigger queued
type TriggerCommercialsResponse struct {
	Message              string           `json:"message"`
	SlotKey              string           `json:"slot_key"`
	Mode                 string           `json:"mode"`
	Queued               int              `json:"queued"`
	Items                []CommercialPlay `json:"items"`
	TotalDurationSeconds int              `json:"total_duration_seconds"`
}
