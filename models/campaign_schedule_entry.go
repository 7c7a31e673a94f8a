package models

// CampaignScheduleEntry is one cell of a campaign's schedule grid:
// how many times the campaign plays in a given 30-minute slot of a given date.
type CampaignScheduleEntry struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CampaignID uint   `gorm:"not null;uniqueIndex:uk_campaign_schedule_cell,priority:1" json:"campaign_id"`
	SlotDate   string `gorm:"type:varchar(10);not null;uniqueIndex:uk_campaign_schedule_cell,priority:2;index:idx_campaign_schedule_date" json:"slot_date"`
	SlotIndex  int    `gorm:"not null;uniqueIndex:uk_campaign_schedule_cell,priority:3" json:"slot_index"`
	PlayCount  int    `gorm:"not null;default:0" json:"play_count"`
}

func (CampaignScheduleEntry) TableName() string { return "campaign_schedule_entries" }
