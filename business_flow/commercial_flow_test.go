package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/app/scheduler"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-15 09:10 UTC is slot 18
var slot18 = time.Date(2024, 1, 15, 9, 10, 0, 0, time.UTC)

type commercialFixture struct {
	flow     *CommercialFlowImpl
	queue    *fakeQueueRepo
	playLogs *fakePlayLogRepo
	device   *fakeDevice
	notifier *fakeNotifier
}

func newCommercialFixture(t *testing.T) commercialFixture {
	t.Helper()

	contents := newFakeContentRepo(commercial(10, "Soda spot", 30), song(1, "Alpha", "pop", 180))
	adID := uint(10)
	campaigns := newFakeCampaignRepo(
		&models.Campaign{
			ID: 1, Name: "Soda", Priority: 10, Status: models.CampaignStatusActive,
			StartDate: "2024-01-01", EndDate: "2024-01-31",
			ContentRefs:     models.ContentRefs{{ContentID: &adID}},
			ScheduleEntries: []models.CampaignScheduleEntry{{CampaignID: 1, SlotDate: "2024-01-15", SlotIndex: 18, PlayCount: 2}},
		},
		&models.Campaign{
			ID: 2, Name: "Bank", Priority: 5, Status: models.CampaignStatusActive,
			StartDate: "2024-01-15", EndDate: "2024-01-15",
			ContentRefs:     models.ContentRefs{{File: &models.ContentFile{StorageID: "ads/bank.mp3", Title: "Bank spot", DurationSeconds: 20}}},
			ScheduleEntries: []models.CampaignScheduleEntry{{CampaignID: 2, SlotDate: "2024-01-15", SlotIndex: 18, PlayCount: 1}},
		},
	)
	playLogs := newFakePlayLogRepo()
	resolver := scheduler.NewCommercialResolver(campaigns, contents, playLogs, time.UTC, discardLogger)

	queue := &fakeQueueRepo{}
	require.NoError(t, queue.Append(context.Background(), models.NewQueueItemFromContent(song(1, "Alpha", "pop", 180))))

	device := &fakeDevice{}
	notifier := &fakeNotifier{}
	flow := NewCommercialFlow(
		resolver, queue, device, notifier,
		scheduler.FixedClock{T: slot18},
		CommercialLimits{MaxCount: utils.DefaultSlotMaxCommercials, MaxDuration: utils.DefaultSlotMaxDurationSecs * time.Second},
		nil, "airwave:", discardLogger,
	).(*CommercialFlowImpl)

	return commercialFixture{flow: flow, queue: queue, playLogs: playLogs, device: device, notifier: notifier}
}

func TestCommercialFlow_PreviewDoesNotCommit(t *testing.T) {
	fx := newCommercialFixture(t)

	resp, err := fx.flow.Preview(context.Background(), &dto.CommercialPreviewRequest{})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-15", resp.SlotDate)
	assert.Equal(t, 18, resp.SlotIndex)
	assert.Equal(t, "2024-01-15_18", resp.SlotKey)
	assert.Equal(t, "normal", resp.Mode)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "Soda spot", resp.Items[0].Title)
	assert.Equal(t, "Soda spot", resp.Items[1].Title)
	assert.Equal(t, "Bank spot", resp.Items[2].Title)
	assert.Equal(t, "ads/bank.mp3", resp.Items[2].StorageID)
	assert.Equal(t, 80, resp.TotalDurationSeconds)

	assert.Empty(t, fx.playLogs.all())
	assert.Equal(t, []string{"Alpha"}, fx.queue.titles())
}

func TestCommercialFlow_PreviewHonoursLimitsAndInstant(t *testing.T) {
	fx := newCommercialFixture(t)
	ctx := context.Background()

	resp, err := fx.flow.Preview(ctx, &dto.CommercialPreviewRequest{MaxCount: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)

	resp, err = fx.flow.Preview(ctx, &dto.CommercialPreviewRequest{MaxDurationSeconds: 45})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	resp, err = fx.flow.Preview(ctx, &dto.CommercialPreviewRequest{At: "2024-01-15T09:40:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 19, resp.SlotIndex)
	assert.Empty(t, resp.Items)

	_, err = fx.flow.Preview(ctx, &dto.CommercialPreviewRequest{At: "yesterday"})
	require.Error(t, err)
	assert.True(t, IsInvalidDate(err))
}

func TestCommercialFlow_TriggerQueuesAtFrontAndSpendsBudget(t *testing.T) {
	fx := newCommercialFixture(t)
	ctx := context.Background()
	meta := NewClientMetadata("127.0.0.1", "test")

	resp, err := fx.flow.Trigger(ctx, &dto.TriggerCommercialsRequest{}, meta)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Queued)
	assert.Equal(t, "2024-01-15_18", resp.SlotKey)
	assert.Equal(t, []string{"Soda spot", "Soda spot", "Bank spot", "Alpha"}, fx.queue.titles())

	items, err := fx.queue.List(ctx)
	require.NoError(t, err)
	for _, it := range items[:3] {
		assert.True(t, it.ManualTrigger)
		assert.False(t, it.ScheduledCampaign)
		require.NotNil(t, it.CampaignID)
	}

	logs := fx.playLogs.all()
	require.Len(t, logs, 3)
	for _, l := range logs {
		assert.Equal(t, models.PlayTriggerManual, l.TriggeredBy)
		assert.Equal(t, "2024-01-15", l.SlotDate)
		assert.Equal(t, 18, l.SlotIndex)
	}
	require.NotNil(t, logs[2].StorageID)
	assert.Equal(t, "ads/bank.mp3", *logs[2].StorageID)

	require.Len(t, fx.device.pushes, 3)
	for _, p := range fx.device.pushes {
		assert.Equal(t, scheduler.DevicePriorityUrgent, p.priority)
	}
	assert.Equal(t, 1, fx.notifier.queueEventCount())

	// the slot budget is spent
	resp, err = fx.flow.Trigger(ctx, &dto.TriggerCommercialsRequest{}, meta)
	require.NoError(t, err)
	assert.Zero(t, resp.Queued)
	assert.Len(t, fx.queue.titles(), 4)

	// force ignores the log
	resp, err = fx.flow.Trigger(ctx, &dto.TriggerCommercialsRequest{Force: true, MaxCount: utils.ToPtr(1)}, meta)
	require.NoError(t, err)
	assert.Equal(t, "force", resp.Mode)
	assert.Equal(t, 1, resp.Queued)
	assert.Len(t, fx.playLogs.all(), 4)
}

func TestCommercialFlow_TriggerIsSerialized(t *testing.T) {
	fx := newCommercialFixture(t)

	require.True(t, tryLockCommercialTrigger())
	_, err := fx.flow.Trigger(context.Background(), &dto.TriggerCommercialsRequest{}, nil)
	unlockCommercialTrigger()

	require.Error(t, err)
	assert.True(t, IsTriggerInProgress(err))
	assert.Empty(t, fx.playLogs.all())

	_, err = fx.flow.Trigger(context.Background(), &dto.TriggerCommercialsRequest{}, nil)
	require.NoError(t, err)
}
