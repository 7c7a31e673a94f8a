package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/app/scheduler"
	"github.com/amirphl/airwave/app/services"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/repository"
	"github.com/redis/go-redis/v9"
)

const commercialTriggerLockTTL = 10 * time.Second

// CommercialLimits bounds a slot resolution when the request does not
type CommercialLimits struct {
	MaxCount    int
	MaxDuration time.Duration
}

// CommercialFlow previews and manually triggers slot commercials
type CommercialFlow interface {
	Preview(ctx context.Context, req *dto.CommercialPreviewRequest) (*dto.CommercialPreviewResponse, error)
	Trigger(ctx context.Context, req *dto.TriggerCommercialsRequest, metadata *ClientMetadata) (*dto.TriggerCommercialsResponse, error)
}

// CommercialFlowImpl implements CommercialFlow
type CommercialFlowImpl struct {
	resolver  *scheduler.CommercialResolver
	queueRepo repository.QueueRepository
	device    services.PlaybackDevice
	notifier  services.NotificationService
	clock     scheduler.Clock
	limits    CommercialLimits
	rc        *redis.Client
	lockKey   string
	logger    *log.Logger
}

// NewCommercialFlow wires the trigger. rc may be nil, in which case triggers
// are serialized within this process only.
func NewCommercialFlow(
	resolver *scheduler.CommercialResolver,
	queueRepo repository.QueueRepository,
	device services.PlaybackDevice,
	notifier services.NotificationService,
	clock scheduler.Clock,
	limits CommercialLimits,
	rc *redis.Client,
	keyPrefix string,
	logger *log.Logger,
) CommercialFlow {
	if clock == nil {
		clock = scheduler.RealClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CommercialFlowImpl{
		resolver:  resolver,
		queueRepo: queueRepo,
		device:    device,
		notifier:  notifier,
		clock:     clock,
		limits:    limits,
		rc:        rc,
		lockKey:   keyPrefix + "commercials:trigger:lock",
		logger:    logger,
	}
}

func (f *CommercialFlowImpl) Preview(ctx context.Context, req *dto.CommercialPreviewRequest) (*dto.CommercialPreviewResponse, error) {
	at := f.clock.Now()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			return nil, NewBusinessError("INVALID_DATE", "at must be an RFC3339 timestamp", ErrInvalidDate)
		}
		at = parsed
	}

	opts := f.options(req.Force, req.MaxCount, req.MaxDurationSeconds, nil, nil)
	plays, err := f.resolver.Resolve(ctx, at, opts)
	if err != nil {
		return nil, NewBusinessError("COMMERCIAL_RESOLVE_FAILED", "Failed to resolve commercials", err)
	}

	slot := scheduler.SlotAt(at, f.resolver.Location())
	return &dto.CommercialPreviewResponse{
		Message:              "Commercials resolved",
		SlotDate:             slot.Date,
		SlotIndex:            slot.Index,
		SlotKey:              slot.Key(),
		Mode:                 opts.Mode.String(),
		Items:                toCommercialPlays(plays),
		TotalDurationSeconds: durationSeconds(scheduler.TotalDuration(plays)),
	}, nil
}

func (f *CommercialFlowImpl) Trigger(ctx context.Context, req *dto.TriggerCommercialsRequest, metadata *ClientMetadata) (*dto.TriggerCommercialsResponse, error) {
	release, err := f.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	maxCount, maxDuration := 0, 0
	if req.MaxCount != nil {
		maxCount = *req.MaxCount
	}
	if req.MaxDurationSeconds != nil {
		maxDuration = *req.MaxDurationSeconds
	}
	opts := f.options(req.Force, maxCount, maxDuration, req.IncludeTypes, req.ExcludeTypes)

	now := f.clock.Now()
	slot := scheduler.SlotAt(now, f.resolver.Location())
	plays, err := f.resolver.Resolve(ctx, now, opts)
	if err != nil {
		return nil, NewBusinessError("COMMERCIAL_RESOLVE_FAILED", "Failed to resolve commercials", err)
	}

	resp := &dto.TriggerCommercialsResponse{
		SlotKey: slot.Key(),
		Mode:    opts.Mode.String(),
		Items:   toCommercialPlays(plays),
	}
	if len(plays) == 0 {
		resp.Message = "No commercials due in this slot"
		return resp, nil
	}

	items := make([]*models.QueueItem, 0, len(plays))
	for _, p := range plays {
		it := p.QueueItem()
		it.ScheduledCampaign = false
		it.ManualTrigger = true
		items = append(items, it)
	}
	if err := f.queueRepo.InsertAt(ctx, 0, items...); err != nil {
		return nil, NewBusinessError("QUEUE_INSERT_FAILED", "Failed to queue commercials", err)
	}

	for i, p := range plays {
		if err := f.device.AddToQueue(ctx, items[i], scheduler.DevicePriorityUrgent); err != nil {
			f.logger.Printf("manual trigger: device rejected %q: %v", items[i].Title, err)
		}
		if err := f.resolver.RecordPlay(ctx, p, models.PlayTriggerManual, now); err != nil {
			return nil, NewBusinessError("PLAY_LOG_FAILED", "Failed to record commercial play", err)
		}
	}

	if queued, err := f.queueRepo.List(ctx); err == nil {
		_ = f.notifier.PublishQueueUpdated(ctx, queued)
	}

	f.logger.Printf("manual trigger by %s: slot %s mode %s queued %d commercials", metadata.String(), slot.Key(), opts.Mode, len(items))

	resp.Message = "Commercials queued"
	resp.Queued = len(items)
	resp.TotalDurationSeconds = durationSeconds(scheduler.TotalDuration(plays))
	return resp, nil
}

func (f *CommercialFlowImpl) options(force bool, maxCount, maxDurationSeconds int, include, exclude []string) scheduler.ResolveOptions {
	opts := scheduler.ResolveOptions{
		Mode:         scheduler.ModeNormal,
		MaxCount:     f.limits.MaxCount,
		MaxDuration:  f.limits.MaxDuration,
		IncludeTypes: include,
		ExcludeTypes: exclude,
	}
	if force {
		opts.Mode = scheduler.ModeForce
	}
	if maxCount > 0 {
		opts.MaxCount = maxCount
	}
	if maxDurationSeconds > 0 {
		opts.MaxDuration = time.Duration(maxDurationSeconds) * time.Second
	}
	return opts
}

// acquire serializes manual triggers so two requests cannot spend the same slot budget twice
func (f *CommercialFlowImpl) acquire(ctx context.Context) (func(), error) {
	if f.rc == nil {
		if !tryLockCommercialTrigger() {
			return nil, NewBusinessError("TRIGGER_IN_PROGRESS", "Another commercial trigger is running", ErrTriggerInProgress)
		}
		return unlockCommercialTrigger, nil
	}

	ok, err := f.rc.SetNX(ctx, f.lockKey, "1", commercialTriggerLockTTL).Result()
	if err != nil {
		return nil, NewBusinessError("TRIGGER_LOCK_FAILED", "Failed to acquire trigger lock", err)
	}
	if !ok {
		return nil, NewBusinessError("TRIGGER_IN_PROGRESS", "Another commercial trigger is running", ErrTriggerInProgress)
	}
	return func() {
		_ = f.rc.Del(context.Background(), f.lockKey).Err()
	}, nil
}

func toCommercialPlays(plays []scheduler.ResolvedPlay) []dto.CommercialPlay {
	out := make([]dto.CommercialPlay, 0, len(plays))
	for _, p := range plays {
		out = append(out, dto.CommercialPlay{
			CampaignID:      p.Campaign.ID,
			CampaignUUID:    p.Campaign.UUID.String(),
			CampaignName:    p.Campaign.Name,
			Priority:        p.Campaign.Priority,
			ContentID:       p.Content.ContentID,
			StorageID:       p.Content.StorageID,
			Title:           p.Content.Title,
			DurationSeconds: p.Content.DurationSeconds,
		})
	}
	return out
}
