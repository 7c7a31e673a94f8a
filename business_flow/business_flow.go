package businessflow

import (
	"encoding/json"
	"time"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/models"
)

// ClientMetadata identifies the caller of an admin operation for log lines
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

func (cm *ClientMetadata) String() string {
	if cm == nil {
		return "-"
	}
	if cm.RequestID != "" {
		return cm.IPAddress + " " + cm.RequestID
	}
	return cm.IPAddress
}

// ToQueueItemDTO converts a queue row for the API
func ToQueueItemDTO(item *models.QueueItem) dto.QueueItem {
	return dto.QueueItem{
		ID:                item.UUID.String(),
		Position:          item.Position,
		Title:             item.Title,
		Artist:            item.Artist,
		Type:              item.Type,
		Genre:             item.Genre,
		DurationSeconds:   item.DurationSeconds,
		StorageKey:        item.StorageKey,
		Metadata:          item.Metadata,
		ContentID:         item.ContentID,
		CampaignID:        item.CampaignID,
		AutoQueued:        item.AutoQueued,
		ScheduledCampaign: item.ScheduledCampaign,
		ManualTrigger:     item.ManualTrigger,
		CreatedAt:         item.CreatedAt,
	}
}

// ToQueueResponse builds the queue listing, totals included
func ToQueueResponse(message string, items []*models.QueueItem) *dto.QueueResponse {
	out := make([]dto.QueueItem, 0, len(items))
	total := 0
	for _, it := range items {
		out = append(out, ToQueueItemDTO(it))
		total += it.DurationSeconds
	}
	return &dto.QueueResponse{
		Message:              message,
		Items:                out,
		Count:                len(out),
		TotalDurationSeconds: total,
	}
}

// ToContentDTO converts a catalog row for the API
func ToContentDTO(c *models.Content) dto.Content {
	return dto.Content{
		ID:              c.ID,
		Title:           c.Title,
		Artist:          c.Artist,
		Type:            c.Type.String(),
		Genre:           c.Genre,
		DurationSeconds: c.DurationSeconds,
		StorageKey:      c.StorageKey,
		IsActive:        c.IsActive == nil || *c.IsActive,
		Metadata:        c.Metadata,
		CreatedAt:       c.CreatedAt,
	}
}

// ToCampaignDTO converts a campaign and whatever schedule entries were loaded with it
func ToCampaignDTO(c *models.Campaign) dto.Campaign {
	refs := make([]dto.ContentRef, 0, len(c.ContentRefs))
	for _, r := range c.ContentRefs {
		ref := dto.ContentRef{ContentID: r.ContentID}
		if r.File != nil {
			ref.File = &dto.ContentFile{
				StorageID:       r.File.StorageID,
				Title:           r.File.Title,
				DurationSeconds: r.File.DurationSeconds,
			}
		}
		refs = append(refs, ref)
	}

	var schedule []dto.ScheduleEntry
	for _, e := range c.ScheduleEntries {
		schedule = append(schedule, dto.ScheduleEntry{
			SlotDate:  e.SlotDate,
			SlotIndex: e.SlotIndex,
			PlayCount: e.PlayCount,
		})
	}

	return dto.Campaign{
		ID:          c.UUID.String(),
		Name:        c.Name,
		Type:        c.Type,
		Priority:    c.Priority,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Status:      c.Status.String(),
		ContentRefs: refs,
		Schedule:    schedule,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToFlowScheduleDTO converts a stored schedule for the API
func ToFlowScheduleDTO(s *models.FlowSchedule) *dto.FlowSchedule {
	if s == nil {
		return nil
	}
	return &dto.FlowSchedule{
		Recurrence: string(s.Recurrence),
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		DaysOfWeek: []int64(s.DaysOfWeek),
		DayOfMonth: s.DayOfMonth,
		Month:      s.Month,
		StartAt:    s.StartAt,
		EndAt:      s.EndAt,
	}
}

// FromFlowScheduleDTO builds an unsaved schedule model
func FromFlowScheduleDTO(s dto.FlowSchedule) *models.FlowSchedule {
	out := &models.FlowSchedule{
		Recurrence: models.Recurrence(s.Recurrence),
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		DaysOfWeek: s.DaysOfWeek,
		DayOfMonth: s.DayOfMonth,
		Month:      s.Month,
	}
	if s.StartAt != nil {
		t := s.StartAt.UTC()
		out.StartAt = &t
	}
	if s.EndAt != nil {
		t := s.EndAt.UTC()
		out.EndAt = &t
	}
	return out
}

// ToFlowDTO converts a flow for the API
func ToFlowDTO(f *models.Flow) (dto.Flow, error) {
	actions, err := json.Marshal(f.Actions)
	if err != nil {
		return dto.Flow{}, err
	}
	return dto.Flow{
		ID:          f.UUID.String(),
		Name:        f.Name,
		Description: f.Description,
		Actions:     actions,
		TriggerType: string(f.TriggerType),
		Status:      string(f.Status),
		Loop:        f.Loop,
		Priority:    f.Priority,
		LastRunAt:   f.LastRunAt,
		RunCount:    f.RunCount,
		Schedule:    ToFlowScheduleDTO(f.Schedule),
		CreatedAt:   f.CreatedAt,
	}, nil
}

// ToFlowExecutionDTO converts one execution log row
func ToFlowExecutionDTO(l *models.FlowExecutionLog) dto.FlowExecution {
	return dto.FlowExecution{
		ID:               l.ID,
		StartedAt:        l.StartedAt,
		EndedAt:          l.EndedAt,
		Status:           string(l.Status),
		ActionsCompleted: l.ActionsCompleted,
		TotalActions:     l.TotalActions,
		TriggeredBy:      l.TriggeredBy,
		Error:            l.Error,
	}
}

func durationSeconds(d time.Duration) int {
	return int(d / time.Second)
}
