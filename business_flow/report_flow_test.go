package businessflow

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReportFlow_PlayLogReport(t *testing.T) {
	ctx := context.Background()
	campaigns := newFakeCampaignRepo(&models.Campaign{ID: 1, Name: "Soda summer", StartDate: "2024-01-15", EndDate: "2024-01-21"})
	plays := newFakePlayLogRepo()
	history := newFakeHistoryRepo()

	at := time.Date(2024, 1, 15, 9, 10, 0, 0, time.UTC)
	for _, trigger := range []models.PlayTrigger{models.PlayTriggerScheduler, models.PlayTriggerScheduler, models.PlayTriggerManual} {
		require.NoError(t, plays.Save(ctx, &models.PlayLog{
			CampaignID: 1, ContentID: utils.ToPtr(uint(10)), Title: "Soda",
			SlotDate: "2024-01-15", SlotIndex: 18, PlayedAt: at, TriggeredBy: trigger,
		}))
	}
	require.NoError(t, plays.Save(ctx, &models.PlayLog{
		CampaignID: 2, StorageID: utils.ToPtr("ads/bank.mp3"), Title: "Bank",
		SlotDate: "2024-01-16", SlotIndex: 20, PlayedAt: at.Add(24 * time.Hour), TriggeredBy: models.PlayTriggerFlow,
	}))
	// outside the range
	require.NoError(t, plays.Save(ctx, &models.PlayLog{
		CampaignID: 1, Title: "Soda", SlotDate: "2024-01-17", SlotIndex: 0, PlayedAt: at.Add(48 * time.Hour), TriggeredBy: models.PlayTriggerScheduler,
	}))

	require.NoError(t, history.Save(ctx, &models.PlayHistory{Title: "Alpha", Type: "song", DurationSeconds: 180, Source: models.PlaySourceDevice, PlayedAt: at}))
	require.NoError(t, history.Save(ctx, &models.PlayHistory{Title: "Soda", Type: "commercial", DurationSeconds: 30, Source: models.PlaySourceAutoAdvance, PlayedAt: at}))

	report := NewReportFlow(plays, history, campaigns, time.UTC)
	name, body, err := report.PlayLogReport(ctx, &dto.PlayLogReportRequest{From: "2024-01-15", To: "2024-01-16"})
	require.NoError(t, err)
	assert.Equal(t, "play_logs_2024-01-15_2024-01-16.xlsx", name)

	xl, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	assert.Equal(t, []string{"campaign summary", "campaign plays", "music history"}, xl.GetSheetList())

	summary, err := xl.GetRows("campaign summary")
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"1", "Soda summer", "3", "2", "1", "0"}, summary[1])
	assert.Equal(t, []string{"2", "campaign_2", "1", "0", "0", "1"}, summary[2])

	rows, err := xl.GetRows("campaign plays")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "ads/bank.mp3", rows[4][7])

	music, err := xl.GetRows("music history")
	require.NoError(t, err)
	require.Len(t, music, 2)
	assert.Equal(t, "Alpha", music[1][1])
}

func TestReportFlow_RejectsBadRanges(t *testing.T) {
	report := NewReportFlow(newFakePlayLogRepo(), newFakeHistoryRepo(), newFakeCampaignRepo(), nil)
	ctx := context.Background()

	_, _, err := report.PlayLogReport(ctx, &dto.PlayLogReportRequest{From: "2024-01-16", To: "2024-01-15"})
	assert.True(t, IsStartDateAfterEndDate(err))

	_, _, err = report.PlayLogReport(ctx, &dto.PlayLogReportRequest{From: "2024-01-01", To: "2024-02-01"})
	assert.True(t, IsReportRangeTooLarge(err))

	_, _, err = report.PlayLogReport(ctx, &dto.PlayLogReportRequest{From: "2024-13-01", To: "2024-02-01"})
	assert.True(t, IsInvalidDate(err))

	_, body, err := report.PlayLogReport(ctx, &dto.PlayLogReportRequest{From: "2024-01-01", To: "2024-01-31"})
	require.NoError(t, err)
	assert.NotEmpty(t, body)
}
