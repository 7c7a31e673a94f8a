package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
)

// FlowTriggerSchedule marks execution logs opened by the monitor
const FlowTriggerSchedule = "schedule"

// FlowRunner executes the actions of looping flows, a few at a time, from
// inside monitor ticks.
type FlowRunner struct {
	queue      QueueStore
	contents   ContentSource
	resolver   *CommercialResolver
	device     PlaybackDevice
	flows      FlowStore
	executions FlowExecutionStore
	publisher  Publisher
	logger     *log.Logger
}

func NewFlowRunner(
	queue QueueStore,
	contents ContentSource,
	resolver *CommercialResolver,
	device PlaybackDevice,
	flows FlowStore,
	executions FlowExecutionStore,
	publisher Publisher,
	logger *log.Logger,
) *FlowRunner {
	if logger == nil {
		logger = log.Default()
	}
	return &FlowRunner{
		queue:      queue,
		contents:   contents,
		resolver:   resolver,
		device:     device,
		flows:      flows,
		executions: executions,
		publisher:  publisher,
		logger:     logger,
	}
}

type actionResult struct {
	wait         time.Duration
	queued       time.Duration
	queueChanged bool
}

// Enter starts tracking a flow that just came inside its window
func (r *FlowRunner) Enter(ctx context.Context, flow *models.Flow, now time.Time) (FlowProgress, error) {
	p := FlowProgress{
		FlowID:       flow.ID,
		FlowName:     flow.Name,
		EnteredAt:    now,
		TotalActions: len(flow.Actions),
		NextActionAt: now,
	}
	if len(flow.Actions) == 0 {
		return p, nil
	}
	if err := r.beginPass(ctx, flow, &p, now); err != nil {
		return p, err
	}
	r.logger.Printf("flow %d (%s) entered its window", flow.ID, flow.Name)
	return p, nil
}

// Advance runs every action that is due at now. A wait action postpones the
// rest of the pass. When a pass ends, the next one starts once the programming
// it queued has had time to air.
func (r *FlowRunner) Advance(ctx context.Context, flow *models.Flow, p *FlowProgress, now time.Time) error {
	if len(flow.Actions) == 0 {
		return nil
	}
	p.TotalActions = len(flow.Actions)

	if p.ActionsCompleted >= len(flow.Actions) {
		if now.Before(p.NextActionAt) {
			return nil
		}
		if err := r.beginPass(ctx, flow, p, now); err != nil {
			return err
		}
	}

	changed := false
	defer func() {
		if changed {
			r.publishQueue(ctx)
		}
	}()

	for p.ActionsCompleted < len(flow.Actions) && !now.Before(p.NextActionAt) {
		action := flow.Actions[p.ActionsCompleted]
		res, err := r.execute(ctx, flow, action, now)
		if err != nil {
			msg := err.Error()
			r.finish(ctx, p, models.FlowExecutionFailed, now, &msg)
			return fmt.Errorf("flow %d action %d (%s): %w", flow.ID, p.ActionsCompleted, action.ActionType(), err)
		}

		p.ActionsCompleted++
		p.QueuedDuration += res.queued
		changed = changed || res.queueChanged
		if res.wait > 0 {
			p.NextActionAt = now.Add(res.wait)
		}

		if p.ActionsCompleted == len(flow.Actions) {
			r.completePass(ctx, flow, p, now)
			break
		}
		if err := r.executions.UpdateProgress(ctx, p.ExecutionLogID, p.ActionsCompleted); err != nil {
			r.logger.Printf("flow %d: failed to update execution log %d: %v", flow.ID, p.ExecutionLogID, err)
		}
	}
	return nil
}

// Exit closes the open pass of a flow that left its window
func (r *FlowRunner) Exit(ctx context.Context, p FlowProgress, now time.Time) {
	if p.ExecutionLogID != 0 && p.ActionsCompleted < p.TotalActions {
		r.finish(ctx, &p, models.FlowExecutionInterrupted, now, nil)
	}
	r.logger.Printf("flow %d (%s) left its window after %d pass(es)", p.FlowID, p.FlowName, p.Passes)
}

func (r *FlowRunner) beginPass(ctx context.Context, flow *models.Flow, p *FlowProgress, now time.Time) error {
	entry := &models.FlowExecutionLog{
		FlowID:       flow.ID,
		StartedAt:    now.UTC(),
		Status:       models.FlowExecutionRunning,
		TotalActions: len(flow.Actions),
		TriggeredBy:  FlowTriggerSchedule,
	}
	if err := r.executions.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to open execution log for flow %d: %w", flow.ID, err)
	}
	p.ExecutionLogID = entry.ID
	p.PassStartedAt = now
	p.ActionsCompleted = 0
	p.QueuedDuration = 0
	p.NextActionAt = now
	p.Passes++
	return nil
}

func (r *FlowRunner) completePass(ctx context.Context, flow *models.Flow, p *FlowProgress, now time.Time) {
	r.finish(ctx, p, models.FlowExecutionCompleted, now, nil)
	if err := r.flows.RecordRun(ctx, flow.ID, now.UTC()); err != nil {
		r.logger.Printf("flow %d: failed to record run: %v", flow.ID, err)
	}
	if aired := p.PassStartedAt.Add(p.QueuedDuration); aired.After(p.NextActionAt) {
		p.NextActionAt = aired
	}
}

func (r *FlowRunner) finish(ctx context.Context, p *FlowProgress, status models.FlowExecutionStatus, now time.Time, errMsg *string) {
	if p.ExecutionLogID == 0 {
		return
	}
	if err := r.executions.Finish(ctx, p.ExecutionLogID, status, p.ActionsCompleted, now.UTC(), errMsg); err != nil {
		r.logger.Printf("flow %d: failed to close execution log %d: %v", p.FlowID, p.ExecutionLogID, err)
	}
}

func (r *FlowRunner) execute(ctx context.Context, flow *models.Flow, action models.FlowAction, now time.Time) (actionResult, error) {
	switch a := action.(type) {
	case models.PlayGenreAction:
		return r.playGenre(ctx, flow, a)
	case models.PlayCommercialsAction:
		return r.playCommercials(ctx, a, now)
	case models.WaitAction:
		return actionResult{wait: time.Duration(a.Seconds) * time.Second}, nil
	case models.SetVolumeAction:
		if err := r.device.SetVolume(ctx, a.Level); err != nil {
			r.logger.Printf("flow %d: failed to set volume to %d: %v", flow.ID, a.Level, err)
		}
		return actionResult{}, nil
	case models.AnnouncementAction:
		return r.playAnnouncement(ctx, flow, a)
	case models.PlayContentAction:
		return r.playContent(ctx, flow, a)
	default:
		return actionResult{}, fmt.Errorf("%w: %T", models.ErrUnknownFlowAction, action)
	}
}

func (r *FlowRunner) playGenre(ctx context.Context, flow *models.Flow, a models.PlayGenreAction) (actionResult, error) {
	if a.Count <= 0 {
		return actionResult{}, nil
	}
	song := models.ContentTypeSong
	genre := a.Genre
	rows, err := r.contents.RandomSample(ctx, models.ContentFilter{
		Type:     &song,
		Genre:    &genre,
		IsActive: utils.ToPtr(true),
	}, a.Count)
	if err != nil {
		return actionResult{}, fmt.Errorf("failed to sample genre %q: %w", a.Genre, err)
	}
	if len(rows) == 0 {
		r.logger.Printf("flow %d: no active songs in genre %q", flow.ID, a.Genre)
		return actionResult{}, nil
	}

	items := make([]*models.QueueItem, 0, len(rows))
	var queued time.Duration
	for _, c := range rows {
		item := models.NewQueueItemFromContent(c)
		items = append(items, item)
		queued += item.Duration()
	}
	if err := r.queue.Append(ctx, items...); err != nil {
		return actionResult{}, fmt.Errorf("failed to append genre %q: %w", a.Genre, err)
	}
	return actionResult{queued: queued, queueChanged: true}, nil
}

func (r *FlowRunner) playCommercials(ctx context.Context, a models.PlayCommercialsAction, now time.Time) (actionResult, error) {
	plays, err := r.resolver.Resolve(ctx, now, ResolveOptions{
		Mode:         ModeNormal,
		MaxCount:     a.MaxCount,
		MaxDuration:  time.Duration(a.MaxDurationSeconds) * time.Second,
		IncludeTypes: a.IncludeTypes,
		ExcludeTypes: a.ExcludeTypes,
	})
	if err != nil {
		return actionResult{}, err
	}
	if len(plays) == 0 {
		return actionResult{}, nil
	}

	items := make([]*models.QueueItem, 0, len(plays))
	for _, p := range plays {
		items = append(items, p.QueueItem())
	}
	if err := r.queue.InsertAt(ctx, 0, items...); err != nil {
		return actionResult{}, fmt.Errorf("failed to queue commercials: %w", err)
	}
	for _, item := range items {
		if err := r.device.AddToQueue(ctx, item, DevicePriorityUrgent); err != nil {
			r.logger.Printf("failed to push %q to device: %v", item.Title, err)
		}
	}
	for _, p := range plays {
		if err := r.resolver.RecordPlay(ctx, p, models.PlayTriggerFlow, now); err != nil {
			return actionResult{queueChanged: true}, err
		}
	}
	return actionResult{queued: TotalDuration(plays), queueChanged: true}, nil
}

func (r *FlowRunner) playAnnouncement(ctx context.Context, flow *models.Flow, a models.AnnouncementAction) (actionResult, error) {
	content, err := r.lookup(ctx, flow, a.ContentID)
	if err != nil || content == nil {
		return actionResult{}, err
	}
	item := models.NewQueueItemFromContent(content)
	if err := r.queue.InsertAt(ctx, 0, item); err != nil {
		return actionResult{}, fmt.Errorf("failed to queue announcement %d: %w", a.ContentID, err)
	}
	if err := r.device.AddToQueue(ctx, item, DevicePriorityUrgent); err != nil {
		r.logger.Printf("failed to push %q to device: %v", item.Title, err)
	}
	return actionResult{queued: item.Duration(), queueChanged: true}, nil
}

func (r *FlowRunner) playContent(ctx context.Context, flow *models.Flow, a models.PlayContentAction) (actionResult, error) {
	content, err := r.lookup(ctx, flow, a.ContentID)
	if err != nil || content == nil {
		return actionResult{}, err
	}
	item := models.NewQueueItemFromContent(content)
	if err := r.queue.Append(ctx, item); err != nil {
		return actionResult{}, fmt.Errorf("failed to queue content %d: %w", a.ContentID, err)
	}
	return actionResult{queued: item.Duration(), queueChanged: true}, nil
}

// lookup returns nil without error when the content cannot air
func (r *FlowRunner) lookup(ctx context.Context, flow *models.Flow, id uint) (*models.Content, error) {
	content, err := r.contents.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load content %d: %w", id, err)
	}
	if content == nil || (content.IsActive != nil && !*content.IsActive) {
		r.logger.Printf("flow %d: content %d unavailable, skipping action", flow.ID, id)
		return nil, nil
	}
	return content, nil
}

func (r *FlowRunner) publishQueue(ctx context.Context) {
	items, err := r.queue.List(ctx)
	if err != nil {
		r.logger.Printf("failed to list queue for broadcast: %v", err)
		return
	}
	if err := r.publisher.PublishQueueUpdated(ctx, items); err != nil {
		r.logger.Printf("failed to broadcast queue update: %v", err)
	}
}
