package scheduler

import (
	"context"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/google/uuid"
)

// The interfaces below are the minimal slices of the store, the device and
// the notification channel the engine needs. Repositories and services
// satisfy them; tests use in-memory fakes.

type CampaignSource interface {
	ListEligible(ctx context.Context, date string, includeTypes, excludeTypes []string) ([]*models.Campaign, error)
}

type ContentSource interface {
	ByID(ctx context.Context, id uint) (*models.Content, error)
	ByIDs(ctx context.Context, ids []uint) (map[uint]*models.Content, error)
	RandomSample(ctx context.Context, filter models.ContentFilter, n int) ([]*models.Content, error)
}

type PlayLogStore interface {
	CountForSlot(ctx context.Context, campaignID uint, slotDate string, slotIndex int) (int64, error)
	Save(ctx context.Context, entry *models.PlayLog) error
}

type PlayHistoryStore interface {
	Save(ctx context.Context, entry *models.PlayHistory) error
	ContentIDsPlayedSince(ctx context.Context, since time.Time) ([]uint, error)
}

type QueueStore interface {
	List(ctx context.Context) ([]*models.QueueItem, error)
	Count(ctx context.Context) (int64, error)
	ContentIDs(ctx context.Context) ([]uint, error)
	Append(ctx context.Context, items ...*models.QueueItem) error
	InsertAt(ctx context.Context, index int, items ...*models.QueueItem) error
	RemoveByUUID(ctx context.Context, id uuid.UUID) (*models.QueueItem, error)
	PopFront(ctx context.Context) (*models.QueueItem, error)
}

type FlowStore interface {
	ListScheduledLoops(ctx context.Context) ([]*models.Flow, error)
	RecordRun(ctx context.Context, id uint, at time.Time) error
}

type FlowExecutionStore interface {
	Save(ctx context.Context, entry *models.FlowExecutionLog) error
	UpdateProgress(ctx context.Context, id uint, actionsCompleted int) error
	Finish(ctx context.Context, id uint, status models.FlowExecutionStatus, actionsCompleted int, endedAt time.Time, errMsg *string) error
}

// Publisher broadcasts queue and playback changes. Delivery is best effort.
type Publisher interface {
	PublishQueueUpdated(ctx context.Context, items []*models.QueueItem) error
	PublishScheduledPlayback(ctx context.Context, item *models.QueueItem) error
}

// PlaybackDevice is the local output device with its own mixing queue
type PlaybackDevice interface {
	SetVolume(ctx context.Context, level int) error
	AddToQueue(ctx context.Context, item *models.QueueItem, priority int) error
}

// TickLock guards against two monitor instances ticking against one store
type TickLock interface {
	Acquire(ctx context.Context) (bool, error)
}

// Device queue priorities
const (
	DevicePriorityNormal = 0
	DevicePriorityUrgent = 10
)
