package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestSong creates an active song of the given genre
func (tf *TestFixtures) CreateTestSong(genre string, durationSeconds int) (*models.Content, error) {
	return tf.createContent(models.ContentTypeSong, genre, durationSeconds)
}

// CreateTestCommercial creates an active commercial spot
func (tf *TestFixtures) CreateTestCommercial(durationSeconds int) (*models.Content, error) {
	return tf.createContent(models.ContentTypeCommercial, "", durationSeconds)
}

// CreateTestJingle creates an active jingle
func (tf *TestFixtures) CreateTestJingle() (*models.Content, error) {
	return tf.createContent(models.ContentTypeJingle, "", 5)
}

func (tf *TestFixtures) createContent(typ models.ContentType, genre string, durationSeconds int) (*models.Content, error) {
	n := rand.Intn(1000000)
	content := &models.Content{
		Title:           fmt.Sprintf("%s %06d", typ, n),
		Artist:          "Test Artist",
		Type:            typ,
		Genre:           genre,
		DurationSeconds: durationSeconds,
		StorageKey:      fmt.Sprintf("media/%s/%06d.mp3", typ, n),
		IsActive:        utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(content).Error; err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}
	return content, nil
}

// CreateTestCampaign creates an active campaign over [startDate, endDate]
// airing contentIDs, with playCount plays in every given slot of startDate.
func (tf *TestFixtures) CreateTestCampaign(priority int, startDate, endDate string, playCount int, slots []int, contentIDs ...uint) (*models.Campaign, error) {
	refs := make(models.ContentRefs, 0, len(contentIDs))
	for _, id := range contentIDs {
		refs = append(refs, models.ContentRef{ContentID: utils.ToPtr(id)})
	}
	campaign := &models.Campaign{
		UUID:        uuid.New(),
		Name:        fmt.Sprintf("Campaign %d", rand.Intn(1000000)),
		Type:        "commercial",
		Priority:    priority,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      models.CampaignStatusActive,
		ContentRefs: refs,
	}
	for _, slot := range slots {
		campaign.ScheduleEntries = append(campaign.ScheduleEntries, models.CampaignScheduleEntry{
			SlotDate:  startDate,
			SlotIndex: slot,
			PlayCount: playCount,
		})
	}
	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

// CreateTestPlayLog records one scheduler play of a campaign in a slot
func (tf *TestFixtures) CreateTestPlayLog(campaignID uint, slotDate string, slotIndex int, playedAt time.Time) (*models.PlayLog, error) {
	entry := &models.PlayLog{
		CampaignID:  campaignID,
		Title:       "spot",
		SlotDate:    slotDate,
		SlotIndex:   slotIndex,
		PlayedAt:    playedAt.UTC(),
		TriggeredBy: models.PlayTriggerScheduler,
	}
	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create play log: %w", err)
	}
	return entry, nil
}

// CreateTestLoopingFlow creates an active daily looping flow over [startTime, endTime]
func (tf *TestFixtures) CreateTestLoopingFlow(startTime, endTime string, actions models.FlowActions) (*models.Flow, error) {
	flow := &models.Flow{
		UUID:        uuid.New(),
		Name:        fmt.Sprintf("Flow %d", rand.Intn(1000000)),
		Actions:     actions,
		TriggerType: models.FlowTriggerScheduled,
		Status:      models.FlowStatusActive,
		Loop:        true,
		Priority:    5,
		Schedule: &models.FlowSchedule{
			Recurrence: models.RecurrenceDaily,
			StartTime:  startTime,
			EndTime:    endTime,
			DaysOfWeek: pq.Int64Array{},
		},
	}
	if err := tf.DB.DB.Create(flow).Error; err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}
	return flow, nil
}
