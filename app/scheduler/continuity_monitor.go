// Package scheduler contains the continuity engine: the periodic monitor that
// keeps the station on air, levels the queue, runs looping flows and dispatches
// the commercials due in each half-hour slot.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
	"github.com/google/uuid"
)

// MonitorConfig tunes the continuity monitor
type MonitorConfig struct {
	TickInterval      time.Duration
	MinWatermark      int
	GracePeriod       time.Duration
	ExclusionLookback time.Duration
	AutoPlayWhenIdle  bool
	SlotMaxCount      int
	SlotMaxDuration   time.Duration
	OpeningJingleID   *uint
	ClosingJingleID   *uint
}

// MonitorDeps are the collaborators of the continuity monitor
type MonitorDeps struct {
	Clock     Clock
	Queue     QueueStore
	Contents  ContentSource
	History   PlayHistoryStore
	Flows     FlowStore
	Resolver  *CommercialResolver
	Leveler   *QueueLeveler
	Window    *FlowWindow
	Runner    *FlowRunner
	Publisher Publisher
	Device    PlaybackDevice
	Lock      TickLock
	Location  *time.Location
	Logger    *log.Logger
}

// PlaybackReport is the device telling the engine what it just started
type PlaybackReport struct {
	QueueItemUUID   *uuid.UUID
	ContentID       *uint
	Title           string
	Artist          string
	Type            string
	DurationSeconds int
	StartedAt       *time.Time
}

// ContinuityMonitor is the single writer of the engine's state. Each tick runs
// four steps in a fixed order: advance, level, flows, slot dispatch.
type ContinuityMonitor struct {
	cfg   MonitorConfig
	deps  MonitorDeps
	state *MonitorState
	loc   *time.Location
	log   *log.Logger
}

func NewContinuityMonitor(cfg MonitorConfig, deps MonitorDeps, state *MonitorState) *ContinuityMonitor {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = utils.DefaultTickInterval
	}
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if state == nil {
		state = NewMonitorState()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ContinuityMonitor{cfg: cfg, deps: deps, state: state, loc: loc, log: deps.Logger}
}

// State exposes the live state for status reads and device reports
func (m *ContinuityMonitor) State() *MonitorState {
	return m.state
}

// Start launches the tick loop. The returned function stops it and waits for
// an in-flight tick to finish.
func (m *ContinuityMonitor) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.cfg.TickInterval)
		defer ticker.Stop()

		m.log.Printf("continuity monitor started: interval=%s watermark=%d grace=%s",
			m.cfg.TickInterval, m.cfg.MinWatermark, m.cfg.GracePeriod)

		m.runTick(ctx)
		for {
			select {
			case <-ctx.Done():
				m.log.Printf("continuity monitor stopped")
				return
			case <-ticker.C:
				m.runTick(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// runTick never lets a failure escape the loop
func (m *ContinuityMonitor) runTick(ctx context.Context) {
	tickCtx := context.WithoutCancel(ctx)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			monitorTickErrors.WithLabelValues("panic").Inc()
			m.log.Printf("tick panic: %v\n%s", r, debug.Stack())
		}
		monitorTickDuration.Observe(time.Since(start).Seconds())
	}()

	if m.deps.Lock != nil {
		held, err := m.deps.Lock.Acquire(tickCtx)
		if err != nil {
			monitorTickErrors.WithLabelValues("lock").Inc()
			m.log.Printf("tick lock: %v", err)
			return
		}
		if !held {
			return
		}
	}

	monitorTicksTotal.Inc()
	if err := m.Tick(tickCtx); err != nil {
		m.log.Printf("tick: %v", err)
	}
}

// Tick runs one pass of the engine. A failing step ends the tick early; the
// next tick starts again from the first step.
func (m *ContinuityMonitor) Tick(ctx context.Context) error {
	now := m.deps.Clock.Now()

	steps := []struct {
		name string
		run  func(context.Context, time.Time) error
	}{
		{"advance", m.advance},
		{"level", m.level},
		{"flows", m.runFlows},
		{"dispatch", m.dispatchSlot},
	}
	for _, step := range steps {
		if err := step.run(ctx, now); err != nil {
			monitorTickErrors.WithLabelValues(step.name).Inc()
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

// advance starts the queue head when the tracked item overran its duration
// plus grace, or when nothing is tracked and auto-play is on.
func (m *ContinuityMonitor) advance(ctx context.Context, now time.Time) error {
	if playing, ok := m.state.Playing(); ok {
		if !now.After(playing.EndsAt().Add(m.cfg.GracePeriod)) {
			return nil
		}
		m.log.Printf("%q overran %s by more than %s, advancing", playing.Item.Title, playing.Duration, m.cfg.GracePeriod)
		return m.startNext(ctx, now, models.PlaySourceAutoAdvance)
	}

	if !m.cfg.AutoPlayWhenIdle {
		return nil
	}
	n, err := m.deps.Queue.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return m.startNext(ctx, now, models.PlaySourceAutoPlay)
}

func (m *ContinuityMonitor) startNext(ctx context.Context, now time.Time, source models.PlaySource) error {
	item, err := m.deps.Queue.PopFront(ctx)
	if err != nil {
		return err
	}
	if item == nil {
		m.state.ClearPlaying()
		deadAirTotal.Inc()
		m.log.Printf("dead air: queue is empty")
		return nil
	}

	m.state.SetPlaying(item, now)
	autoAdvanceTotal.WithLabelValues(string(source)).Inc()
	if err := m.deps.Publisher.PublishScheduledPlayback(ctx, item); err != nil {
		m.log.Printf("failed to broadcast playback of %q: %v", item.Title, err)
	}
	if err := m.deps.History.Save(ctx, historyEntry(item, source, now)); err != nil {
		return fmt.Errorf("failed to record history for %q: %w", item.Title, err)
	}
	m.publishQueue(ctx)
	return nil
}

func (m *ContinuityMonitor) level(ctx context.Context, now time.Time) error {
	added, err := m.deps.Leveler.Level(ctx, now)
	if err != nil {
		return err
	}
	if added > 0 {
		m.publishQueue(ctx)
	}
	return nil
}

// runFlows enters, advances and exits looping flows. One flow failing does
// not hold back the others; it is dropped and re-entered on a later tick.
func (m *ContinuityMonitor) runFlows(ctx context.Context, now time.Time) error {
	flows, err := m.deps.Flows.ListScheduledLoops(ctx)
	if err != nil {
		return err
	}

	inside := make(map[uint]bool, len(flows))
	for _, flow := range flows {
		if !flow.IsScheduledLoop() || !m.deps.Window.Contains(flow.Schedule, now) {
			continue
		}
		inside[flow.ID] = true

		progress, tracked := m.state.Flow(flow.ID)
		if !tracked {
			progress, err = m.deps.Runner.Enter(ctx, flow, now)
			if err != nil {
				monitorTickErrors.WithLabelValues("flow").Inc()
				m.log.Printf("flow %d: %v", flow.ID, err)
				continue
			}
		}

		if err := m.deps.Runner.Advance(ctx, flow, &progress, now); err != nil {
			monitorTickErrors.WithLabelValues("flow").Inc()
			m.log.Printf("flow %d: %v", flow.ID, err)
			m.state.DropFlow(flow.ID)
			continue
		}
		m.state.SetFlow(progress)
	}

	for _, id := range m.state.FlowIDs() {
		if inside[id] {
			continue
		}
		if p, ok := m.state.DropFlow(id); ok {
			m.deps.Runner.Exit(ctx, p, now)
		}
	}

	flowsActive.Set(float64(len(m.state.FlowIDs())))
	return nil
}

// dispatchSlot puts the commercials due in the current slot at the head of the
// queue, once per slot occurrence.
func (m *ContinuityMonitor) dispatchSlot(ctx context.Context, now time.Time) error {
	slot := SlotAt(now, m.loc)
	last, seen := m.state.LastSlot()
	if seen && last == slot {
		return nil
	}
	if seen {
		if skipped := slotsSkipped(last, slot, m.loc); skipped > 0 {
			slotsSkippedTotal.Add(float64(skipped))
			m.log.Printf("%d slot(s) between %s and %s passed without dispatch", skipped, last.Key(), slot.Key())
		}
	}

	plays, err := m.deps.Resolver.Resolve(ctx, now, ResolveOptions{
		Mode:        ModeNormal,
		MaxCount:    m.cfg.SlotMaxCount,
		MaxDuration: m.cfg.SlotMaxDuration,
	})
	if err != nil {
		return err
	}
	if len(plays) == 0 {
		m.state.SetLastSlot(slot)
		return nil
	}

	items := make([]*models.QueueItem, 0, len(plays)+2)
	if jingle := m.jingle(ctx, m.cfg.OpeningJingleID); jingle != nil {
		items = append(items, jingle)
	}
	for _, p := range plays {
		items = append(items, p.QueueItem())
	}
	if jingle := m.jingle(ctx, m.cfg.ClosingJingleID); jingle != nil {
		items = append(items, jingle)
	}

	if err := m.deps.Queue.InsertAt(ctx, 0, items...); err != nil {
		return fmt.Errorf("failed to queue slot %s: %w", slot.Key(), err)
	}
	for _, item := range items {
		if err := m.deps.Device.AddToQueue(ctx, item, DevicePriorityUrgent); err != nil {
			m.log.Printf("failed to push %q to device: %v", item.Title, err)
		}
	}
	for _, p := range plays {
		if err := m.deps.Resolver.RecordPlay(ctx, p, models.PlayTriggerScheduler, now); err != nil {
			return err
		}
	}
	m.publishQueue(ctx)
	m.state.SetLastSlot(slot)

	m.log.Printf("slot %s: dispatched %d commercial(s), %s", slot.Key(), len(plays), TotalDuration(plays))
	return nil
}

func (m *ContinuityMonitor) jingle(ctx context.Context, id *uint) *models.QueueItem {
	if id == nil {
		return nil
	}
	content, err := m.deps.Contents.ByID(ctx, *id)
	if err != nil {
		m.log.Printf("failed to load jingle %d: %v", *id, err)
		return nil
	}
	if content == nil || (content.IsActive != nil && !*content.IsActive) {
		m.log.Printf("jingle %d unavailable, skipping", *id)
		return nil
	}
	return models.NewQueueItemFromContent(content)
}

// ReportPlaybackStarted records what the device says it began playing. A
// queued item is taken out of the queue; anything else is tracked as reported.
func (m *ContinuityMonitor) ReportPlaybackStarted(ctx context.Context, report PlaybackReport) (*models.QueueItem, error) {
	now := m.deps.Clock.Now()
	if report.StartedAt != nil {
		now = *report.StartedAt
	}

	var item *models.QueueItem
	if report.QueueItemUUID != nil {
		removed, err := m.deps.Queue.RemoveByUUID(ctx, *report.QueueItemUUID)
		if err != nil {
			return nil, err
		}
		item = removed
	}
	if item == nil {
		item = &models.QueueItem{
			Title:           report.Title,
			Artist:          report.Artist,
			Type:            report.Type,
			DurationSeconds: report.DurationSeconds,
			ContentID:       report.ContentID,
		}
		if report.QueueItemUUID != nil {
			item.UUID = *report.QueueItemUUID
		}
	}

	m.state.SetPlaying(item, now)
	if err := m.deps.History.Save(ctx, historyEntry(item, models.PlaySourceDevice, now)); err != nil {
		return item, fmt.Errorf("failed to record history for %q: %w", item.Title, err)
	}
	m.publishQueue(ctx)
	return item, nil
}

func (m *ContinuityMonitor) publishQueue(ctx context.Context) {
	items, err := m.deps.Queue.List(ctx)
	if err != nil {
		m.log.Printf("failed to list queue for broadcast: %v", err)
		return
	}
	queueLength.Set(float64(len(items)))
	if err := m.deps.Publisher.PublishQueueUpdated(ctx, items); err != nil {
		m.log.Printf("failed to broadcast queue update: %v", err)
	}
}

func historyEntry(item *models.QueueItem, source models.PlaySource, at time.Time) *models.PlayHistory {
	h := &models.PlayHistory{
		ContentID:       item.ContentID,
		CampaignID:      item.CampaignID,
		Title:           item.Title,
		Artist:          item.Artist,
		Type:            item.Type,
		DurationSeconds: item.DurationSeconds,
		Source:          source,
		PlayedAt:        at.UTC(),
	}
	if item.UUID != uuid.Nil {
		id := item.UUID
		h.QueueItemUUID = &id
	}
	return h
}
