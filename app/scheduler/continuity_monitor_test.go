package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	clock     *testClock
	queue     *fakeQueue
	contents  *fakeContents
	history   *fakeHistory
	logs      *fakePlayLogs
	flows     *fakeFlows
	execs     *fakeExecutions
	publisher *fakePublisher
	device    *fakeDevice
	monitor   *ContinuityMonitor
}

func newHarness(cfg MonitorConfig, contents *fakeContents, campaigns []*models.Campaign, lock TickLock) *harness {
	h := &harness{
		clock:     &testClock{t: slot18},
		queue:     &fakeQueue{},
		contents:  contents,
		history:   &fakeHistory{},
		logs:      &fakePlayLogs{},
		flows:     &fakeFlows{},
		execs:     &fakeExecutions{},
		publisher: &fakePublisher{},
		device:    &fakeDevice{},
	}
	resolver := NewCommercialResolver(&fakeCampaigns{campaigns: campaigns}, contents, h.logs, time.UTC, discardLogger)
	h.monitor = NewContinuityMonitor(cfg, MonitorDeps{
		Clock:     h.clock,
		Queue:     h.queue,
		Contents:  contents,
		History:   h.history,
		Flows:     h.flows,
		Resolver:  resolver,
		Leveler:   NewQueueLeveler(h.queue, contents, h.history, cfg.MinWatermark, time.Hour, discardLogger),
		Window:    NewFlowWindow(time.UTC),
		Runner:    NewFlowRunner(h.queue, contents, resolver, h.device, h.flows, h.execs, h.publisher, discardLogger),
		Publisher: h.publisher,
		Device:    h.device,
		Lock:      lock,
		Location:  time.UTC,
		Logger:    discardLogger,
	}, NewMonitorState())
	return h
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	require.NoError(t, h.monitor.Tick(context.Background()))
}

func TestContinuityMonitor_SlotDispatch(t *testing.T) {
	t.Run("DispatchesOncePerSlot", func(t *testing.T) {
		contents := newFakeContents(commercial(1, "x", 30))
		h := newHarness(MonitorConfig{}, contents, []*models.Campaign{campaignWith(7, 5, "2024-01-15", 18, 2, 1)}, nil)
		require.NoError(t, h.queue.Append(context.Background(), &models.QueueItem{Title: "song"}))

		h.tick(t)
		assert.Equal(t, []string{"x", "x", "song"}, h.queue.titles())
		assert.Len(t, h.logs.logs, 2)
		assert.Len(t, h.device.pushed, 2)
		assert.True(t, h.queue.items[0].ScheduledCampaign)

		h.clock.Advance(10 * time.Second)
		h.tick(t)
		assert.Len(t, h.queue.items, 3)
		assert.Len(t, h.logs.logs, 2)

		slot, ok := h.monitor.State().LastSlot()
		require.True(t, ok)
		assert.Equal(t, "2024-01-15_18", slot.Key())

		h.clock.Set(time.Date(2024, 1, 15, 9, 31, 0, 0, time.UTC))
		h.tick(t)
		assert.Len(t, h.queue.items, 3)
		slot, _ = h.monitor.State().LastSlot()
		assert.Equal(t, "2024-01-15_19", slot.Key())
	})

	t.Run("WrapsWithJingles", func(t *testing.T) {
		open, closing := uint(50), uint(51)
		contents := newFakeContents(commercial(1, "x", 30),
			&models.Content{ID: open, Title: "open", Type: models.ContentTypeJingle, DurationSeconds: 5},
			&models.Content{ID: closing, Title: "close", Type: models.ContentTypeJingle, DurationSeconds: 5})
		cfg := MonitorConfig{OpeningJingleID: &open, ClosingJingleID: &closing}
		h := newHarness(cfg, contents, []*models.Campaign{campaignWith(7, 5, "2024-01-15", 18, 1, 1)}, nil)

		h.tick(t)
		assert.Equal(t, []string{"open", "x", "close"}, h.queue.titles())
		assert.Len(t, h.logs.logs, 1, "jingles are not logged as plays")
	})

	t.Run("NothingDueAddsNoJingles", func(t *testing.T) {
		open := uint(50)
		contents := newFakeContents(&models.Content{ID: open, Title: "open", Type: models.ContentTypeJingle})
		h := newHarness(MonitorConfig{OpeningJingleID: &open}, contents, nil, nil)

		h.tick(t)
		assert.Empty(t, h.queue.items)
		_, ok := h.monitor.State().LastSlot()
		assert.True(t, ok)
	})

	t.Run("RespectsSlotLimits", func(t *testing.T) {
		contents := newFakeContents(commercial(1, "x", 30))
		h := newHarness(MonitorConfig{SlotMaxCount: 3}, contents, []*models.Campaign{campaignWith(7, 5, "2024-01-15", 18, 5, 1)}, nil)

		h.tick(t)
		assert.Len(t, h.queue.items, 3)
		assert.Len(t, h.logs.logs, 3)
	})

	t.Run("ContinuesAfterSkippedSlots", func(t *testing.T) {
		h := newHarness(MonitorConfig{}, newFakeContents(), nil, nil)
		h.monitor.State().SetLastSlot(Slot{Date: "2024-01-15", Index: 10})

		h.tick(t)
		slot, _ := h.monitor.State().LastSlot()
		assert.Equal(t, "2024-01-15_18", slot.Key())
		assert.Equal(t, 7, slotsSkipped(Slot{Date: "2024-01-15", Index: 10}, slot, time.UTC))
	})
}

func TestContinuityMonitor_Advance(t *testing.T) {
	track := func(title string, seconds int) *models.QueueItem {
		return &models.QueueItem{Title: title, Type: "song", DurationSeconds: seconds}
	}

	t.Run("StalledItemIsAdvanced", func(t *testing.T) {
		h := newHarness(MonitorConfig{GracePeriod: 15 * time.Second}, newFakeContents(), nil, nil)
		require.NoError(t, h.queue.Append(context.Background(), track("a", 200), track("b", 200)))
		h.monitor.State().SetPlaying(track("old", 180), slot18.Add(-200*time.Second))

		h.tick(t)
		playing, ok := h.monitor.State().Playing()
		require.True(t, ok)
		assert.Equal(t, "a", playing.Item.Title)
		assert.Equal(t, slot18, playing.StartedAt)
		assert.Equal(t, []string{"b"}, h.queue.titles())
		require.Len(t, h.history.entries, 1)
		assert.Equal(t, models.PlaySourceAutoAdvance, h.history.entries[0].Source)
		require.Len(t, h.publisher.scheduled, 1)
		assert.Equal(t, "a", h.publisher.scheduled[0].Title)
	})

	t.Run("WithinGraceIsLeftAlone", func(t *testing.T) {
		h := newHarness(MonitorConfig{GracePeriod: 15 * time.Second}, newFakeContents(), nil, nil)
		require.NoError(t, h.queue.Append(context.Background(), track("a", 200)))
		h.monitor.State().SetPlaying(track("old", 180), slot18.Add(-190*time.Second))

		h.tick(t)
		playing, _ := h.monitor.State().Playing()
		assert.Equal(t, "old", playing.Item.Title)
		assert.Len(t, h.queue.items, 1)
	})

	t.Run("EmptyQueueIsDeadAir", func(t *testing.T) {
		h := newHarness(MonitorConfig{GracePeriod: 15 * time.Second}, newFakeContents(), nil, nil)
		h.monitor.State().SetPlaying(track("old", 180), slot18.Add(-time.Hour))

		h.tick(t)
		_, ok := h.monitor.State().Playing()
		assert.False(t, ok)
		assert.Empty(t, h.history.entries)
	})

	t.Run("AutoPlayWhenIdle", func(t *testing.T) {
		h := newHarness(MonitorConfig{AutoPlayWhenIdle: true}, newFakeContents(), nil, nil)
		require.NoError(t, h.queue.Append(context.Background(), track("a", 200)))

		h.tick(t)
		playing, ok := h.monitor.State().Playing()
		require.True(t, ok)
		assert.Equal(t, "a", playing.Item.Title)
		assert.Equal(t, models.PlaySourceAutoPlay, h.history.entries[0].Source)
	})

	t.Run("IdleWithoutAutoPlay", func(t *testing.T) {
		h := newHarness(MonitorConfig{}, newFakeContents(), nil, nil)
		require.NoError(t, h.queue.Append(context.Background(), track("a", 200)))

		h.tick(t)
		_, ok := h.monitor.State().Playing()
		assert.False(t, ok)
		assert.Len(t, h.queue.items, 1)
	})

	t.Run("LevelsAfterAdvancing", func(t *testing.T) {
		h := newHarness(MonitorConfig{AutoPlayWhenIdle: true, MinWatermark: 3}, catalog(10), nil, nil)

		h.tick(t)
		assert.Len(t, h.queue.items, 3)
		_, ok := h.monitor.State().Playing()
		assert.False(t, ok, "queue was empty when advance ran")

		h.tick(t)
		_, ok = h.monitor.State().Playing()
		assert.True(t, ok)
		assert.Len(t, h.queue.items, 3)
	})
}

func TestContinuityMonitor_Flows(t *testing.T) {
	contents := newFakeContents(song(1, "pop-1", "pop", 180), song(2, "pop-2", "pop", 180), song(3, "rock-1", "rock", 180))
	h := newHarness(MonitorConfig{}, contents, nil, nil)
	h.flows.flows = []*models.Flow{{
		ID:          1,
		Name:        "morning",
		Status:      models.FlowStatusActive,
		TriggerType: models.FlowTriggerScheduled,
		Loop:        true,
		Actions: models.FlowActions{
			models.PlayGenreAction{Genre: "pop", Count: 2},
			models.WaitAction{Seconds: 60},
			models.SetVolumeAction{Level: 70},
			models.PlayContentAction{ContentID: 3},
		},
		Schedule: weekly("09:00", "10:00", 1),
	}}

	h.tick(t)
	assert.Equal(t, []string{"pop-1", "pop-2"}, h.queue.titles())
	require.Len(t, h.execs.logs, 1)
	assert.Equal(t, models.FlowExecutionRunning, h.execs.logs[0].Status)
	progress, ok := h.monitor.State().Flow(1)
	require.True(t, ok)
	assert.Equal(t, 2, progress.ActionsCompleted)

	h.clock.Advance(30 * time.Second)
	h.tick(t)
	assert.Len(t, h.queue.items, 2)

	h.clock.Advance(31 * time.Second)
	h.tick(t)
	assert.Equal(t, []string{"pop-1", "pop-2", "rock-1"}, h.queue.titles())
	assert.Equal(t, 70, h.device.volume)
	assert.Equal(t, models.FlowExecutionCompleted, h.execs.logs[0].Status)
	assert.Equal(t, 1, h.flows.runs[1])

	// the next pass waits until the nine minutes of queued songs have aired
	h.clock.Set(slot18.Add(8 * time.Minute))
	h.tick(t)
	assert.Len(t, h.execs.logs, 1)

	h.clock.Set(slot18.Add(10 * time.Minute))
	h.tick(t)
	require.Len(t, h.execs.logs, 2)
	assert.Len(t, h.queue.items, 5)
	progress, _ = h.monitor.State().Flow(1)
	assert.Equal(t, 2, progress.Passes)

	h.clock.Set(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
	h.tick(t)
	_, ok = h.monitor.State().Flow(1)
	assert.False(t, ok)
	assert.Equal(t, models.FlowExecutionInterrupted, h.execs.logs[1].Status)
	assert.Equal(t, 2, h.execs.logs[1].ActionsCompleted)
}

func TestContinuityMonitor_ReportPlaybackStarted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(MonitorConfig{}, newFakeContents(), nil, nil)
	require.NoError(t, h.queue.Append(ctx, &models.QueueItem{Title: "a"}, &models.QueueItem{Title: "b", DurationSeconds: 120}))
	target := h.queue.items[1].UUID

	item, err := h.monitor.ReportPlaybackStarted(ctx, PlaybackReport{QueueItemUUID: &target})
	require.NoError(t, err)
	assert.Equal(t, "b", item.Title)
	assert.Equal(t, []string{"a"}, h.queue.titles())

	playing, ok := h.monitor.State().Playing()
	require.True(t, ok)
	assert.Equal(t, 120*time.Second, playing.Duration)
	assert.Equal(t, models.PlaySourceDevice, h.history.entries[0].Source)

	item, err = h.monitor.ReportPlaybackStarted(ctx, PlaybackReport{Title: "live", DurationSeconds: 60})
	require.NoError(t, err)
	assert.Equal(t, "live", item.Title)
	assert.Len(t, h.queue.items, 1)
}

// preemptingQueue lands a commercial at the head right before every removal,
// the way a concurrent tick can between a device report and its handling.
type preemptingQueue struct {
	*fakeQueue
}

func (q preemptingQueue) RemoveByUUID(ctx context.Context, id uuid.UUID) (*models.QueueItem, error) {
	if err := q.InsertAt(ctx, 0, &models.QueueItem{Title: "spot", Type: "commercial"}); err != nil {
		return nil, err
	}
	return q.fakeQueue.RemoveByUUID(ctx, id)
}

func TestContinuityMonitor_ReportPlaybackStartedSurvivesHeadInsert(t *testing.T) {
	ctx := context.Background()
	h := newHarness(MonitorConfig{}, newFakeContents(), nil, nil)
	require.NoError(t, h.queue.Append(ctx, &models.QueueItem{Title: "a"}, &models.QueueItem{Title: "b"}))
	target := h.queue.items[1].UUID

	monitor := NewContinuityMonitor(MonitorConfig{}, MonitorDeps{
		Clock:     h.clock,
		Queue:     preemptingQueue{h.queue},
		Contents:  h.contents,
		History:   h.history,
		Flows:     h.flows,
		Publisher: h.publisher,
		Device:    h.device,
		Location:  time.UTC,
		Logger:    discardLogger,
	}, NewMonitorState())

	item, err := monitor.ReportPlaybackStarted(ctx, PlaybackReport{QueueItemUUID: &target})
	require.NoError(t, err)
	assert.Equal(t, "b", item.Title)
	assert.Equal(t, []string{"spot", "a"}, h.queue.titles())

	playing, ok := monitor.State().Playing()
	require.True(t, ok)
	assert.Equal(t, target, playing.Item.UUID)
}

type countingLock struct {
	held     bool
	acquires atomic.Int32
}

func (l *countingLock) Acquire(context.Context) (bool, error) {
	l.acquires.Add(1)
	return l.held, nil
}

func TestContinuityMonitor_Start(t *testing.T) {
	t.Run("TicksUntilStopped", func(t *testing.T) {
		lock := &countingLock{held: true}
		h := newHarness(MonitorConfig{TickInterval: 5 * time.Millisecond, AutoPlayWhenIdle: true}, newFakeContents(), nil, lock)

		stop := h.monitor.Start(context.Background())
		require.Eventually(t, func() bool { return lock.acquires.Load() >= 2 }, time.Second, time.Millisecond)
		stop()

		n := lock.acquires.Load()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, n, lock.acquires.Load())
	})

	t.Run("StandbyWithoutLock", func(t *testing.T) {
		lock := &countingLock{held: false}
		h := newHarness(MonitorConfig{TickInterval: time.Hour}, newFakeContents(), nil, lock)

		stop := h.monitor.Start(context.Background())
		require.Eventually(t, func() bool { return lock.acquires.Load() >= 1 }, time.Second, time.Millisecond)
		stop()

		_, ok := h.monitor.State().LastSlot()
		assert.False(t, ok)
	})
}
