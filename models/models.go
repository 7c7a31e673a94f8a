// Package models contains the gorm models of the broadcast continuity store
package models

// All returns every model managed by the application, in migration order
func All() []any {
	return []any{
		&Content{},
		&Campaign{},
		&CampaignScheduleEntry{},
		&PlayLog{},
		&PlayHistory{},
		&QueueItem{},
		&Flow{},
		&FlowSchedule{},
		&FlowExecutionLog{},
	}
}
