package businessflow

import (
	"context"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/app/scheduler"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
)

// PlaybackTracker is the part of the continuity monitor the API talks to
type PlaybackTracker interface {
	ReportPlaybackStarted(ctx context.Context, report scheduler.PlaybackReport) (*models.QueueItem, error)
	State() *scheduler.MonitorState
}

// PlaybackFlow receives device reports and exposes the engine state
type PlaybackFlow interface {
	Started(ctx context.Context, req *dto.PlaybackStartedRequest) (*dto.PlaybackStartedResponse, error)
	Status(ctx context.Context) (*dto.PlaybackStatusResponse, error)
}

// PlaybackFlowImpl implements PlaybackFlow
type PlaybackFlowImpl struct {
	tracker PlaybackTracker
}

func NewPlaybackFlow(tracker PlaybackTracker) PlaybackFlow {
	return &PlaybackFlowImpl{tracker: tracker}
}

func (f *PlaybackFlowImpl) Started(ctx context.Context, req *dto.PlaybackStartedRequest) (*dto.PlaybackStartedResponse, error) {
	report := scheduler.PlaybackReport{
		ContentID:       req.ContentID,
		Title:           req.Title,
		Artist:          req.Artist,
		Type:            req.Type,
		DurationSeconds: req.DurationSeconds,
		StartedAt:       utils.TimeToUTCPtr(req.StartedAt),
	}
	if req.QueueItemID != nil {
		id, err := utils.ParseUUID(*req.QueueItemID)
		if err != nil {
			return nil, NewBusinessError("INVALID_QUEUE_ITEM_ID", "Invalid queue item id", err)
		}
		report.QueueItemUUID = &id
	}

	item, err := f.tracker.ReportPlaybackStarted(ctx, report)
	if err != nil {
		return nil, NewBusinessError("PLAYBACK_REPORT_FAILED", "Failed to record playback", err)
	}

	return &dto.PlaybackStartedResponse{
		Message: "Playback recorded",
		Item:    ToQueueItemDTO(item),
	}, nil
}

func (f *PlaybackFlowImpl) Status(ctx context.Context) (*dto.PlaybackStatusResponse, error) {
	snap := f.tracker.State().Snapshot()

	resp := &dto.PlaybackStatusResponse{
		Message:     "Playback status retrieved successfully",
		LastSlotKey: snap.LastSlotKey,
		ActiveFlows: make([]dto.ActiveFlow, 0, len(snap.Flows)),
	}
	if snap.NowPlaying != nil && snap.NowPlaying.Item != nil {
		resp.NowPlaying = &dto.NowPlaying{
			Item:      ToQueueItemDTO(snap.NowPlaying.Item),
			StartedAt: snap.NowPlaying.StartedAt,
			EndsAt:    snap.NowPlaying.EndsAt(),
		}
	}
	for _, p := range snap.Flows {
		resp.ActiveFlows = append(resp.ActiveFlows, dto.ActiveFlow{
			FlowID:           p.FlowID,
			Name:             p.FlowName,
			EnteredAt:        p.EnteredAt,
			Passes:           p.Passes,
			ActionsCompleted: p.ActionsCompleted,
			TotalActions:     p.TotalActions,
			NextActionAt:     p.NextActionAt,
		})
	}
	return resp, nil
}
