package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/app/scheduler"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	state   *scheduler.MonitorState
	reports []scheduler.PlaybackReport
	err     error
}

func (f *fakeTracker) ReportPlaybackStarted(_ context.Context, report scheduler.PlaybackReport) (*models.QueueItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.reports = append(f.reports, report)
	item := &models.QueueItem{UUID: uuid.New(), Title: report.Title, Type: report.Type, DurationSeconds: report.DurationSeconds}
	if report.QueueItemUUID != nil {
		item.UUID = *report.QueueItemUUID
	}
	f.state.SetPlaying(item, *report.StartedAt)
	return item, nil
}

func (f *fakeTracker) State() *scheduler.MonitorState { return f.state }

func TestPlaybackFlow_StartedThenStatus(t *testing.T) {
	tracker := &fakeTracker{state: scheduler.NewMonitorState()}
	flow := NewPlaybackFlow(tracker)
	ctx := context.Background()

	tehran := time.FixedZone("IRST", 3*3600+1800)
	started := time.Date(2024, 1, 15, 12, 40, 0, 0, tehran)
	id := uuid.New().String()

	resp, err := flow.Started(ctx, &dto.PlaybackStartedRequest{
		QueueItemID: &id, Title: "Alpha", Type: "song", DurationSeconds: 180, StartedAt: &started,
	})
	require.NoError(t, err)
	assert.Equal(t, id, resp.Item.ID)

	require.Len(t, tracker.reports, 1)
	assert.Equal(t, time.UTC, tracker.reports[0].StartedAt.Location())
	assert.True(t, tracker.reports[0].StartedAt.Equal(started))

	tracker.state.SetFlow(scheduler.FlowProgress{FlowID: 3, FlowName: "Morning show", Passes: 2, TotalActions: 4})

	status, err := flow.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.NowPlaying)
	assert.Equal(t, "Alpha", status.NowPlaying.Item.Title)
	assert.True(t, status.NowPlaying.EndsAt.Equal(started.Add(3*time.Minute)))
	require.Len(t, status.ActiveFlows, 1)
	assert.Equal(t, "Morning show", status.ActiveFlows[0].Name)
}

func TestPlaybackFlow_Errors(t *testing.T) {
	tracker := &fakeTracker{state: scheduler.NewMonitorState()}
	flow := NewPlaybackFlow(tracker)
	ctx := context.Background()

	_, err := flow.Started(ctx, &dto.PlaybackStartedRequest{QueueItemID: utils.ToPtr("nope"), Title: "x"})
	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "INVALID_QUEUE_ITEM_ID", be.Code)

	tracker.err = errors.New("db down")
	_, err = flow.Started(ctx, &dto.PlaybackStartedRequest{Title: "x", StartedAt: utils.ToPtr(time.Now())})
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "PLAYBACK_REPORT_FAILED", be.Code)

	status, err := flow.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, status.NowPlaying)
	assert.Empty(t, status.ActiveFlows)
}
