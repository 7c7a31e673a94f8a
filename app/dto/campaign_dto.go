package dto

import "time"

// ContentFile references audio by storage id instead of a catalog item
type ContentFile struct {
	StorageID       string `json:"storage_id" validate:"required,max=512"`
	Title           string `json:"title,omitempty" validate:"max=255"`
	DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
}

// ContentRef is one item of a campaign's content list; exactly one field is set
type ContentRef struct {
	ContentID *uint        `json:"content_id,omitempty" validate:"required_without=File,omitempty,gt=0"`
	File      *ContentFile `json:"file,omitempty" validate:"required_without=ContentID,omitempty"`
}

// ScheduleEntry plans PlayCount airings of a campaign in one slot
type ScheduleEntry struct {
	SlotDate  string `json:"slot_date" validate:"required,datetime=2006-01-02"`
	SlotIndex int    `json:"slot_index" validate:"gte=0,lte=47"`
	PlayCount int    `json:"play_count" validate:"gte=0,lte=100"`
}

// CreateCampaignRequest creates a campaign with its content list and schedule grid
type CreateCampaignRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Type        string          `json:"type,omitempty" validate:"omitempty,max=32"`
	Priority    int             `json:"priority" validate:"gte=0,lte=100"`
	StartDate   string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	Status      string          `json:"status,omitempty" validate:"omitempty,oneof=draft active paused"`
	ContentRefs []ContentRef    `json:"content_refs" validate:"required,min=1,max=50,dive"`
	Schedule    []ScheduleEntry `json:"schedule,omitempty" validate:"omitempty,max=5000,dive"`
}

// UpdateCampaignScheduleRequest upserts schedule entries; a zero PlayCount clears a slot
type UpdateCampaignScheduleRequest struct {
	Entries []ScheduleEntry `json:"entries" validate:"required,min=1,max=5000,dive"`
}

// UpdateCampaignStatusRequest moves a campaign through its lifecycle
type UpdateCampaignStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active paused completed deleted"`
}

// ListCampaignsRequest filters the campaign listing
type ListCampaignsRequest struct {
	Status   string `query:"status" validate:"omitempty,oneof=draft active paused completed deleted"`
	Type     string `query:"type" validate:"omitempty,max=32"`
	ActiveOn string `query:"active_on" validate:"omitempty,datetime=2006-01-02"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// Campaign is the API view of a campaign
type Campaign struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Priority    int             `json:"priority"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Status      string          `json:"status"`
	ContentRefs []ContentRef    `json:"content_refs"`
	Schedule    []ScheduleEntry `json:"schedule,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// CampaignResponse wraps a single campaign
type CampaignResponse struct {
	Message  string   `json:"message"`
	Campaign Campaign `json:"campaign"`
}

// ListCampaignsResponse is one page of campaigns
type ListCampaignsResponse struct {
	Message string     `json:"message"`
	Items   []Campaign `json:"items"`
	PageInfo
}
