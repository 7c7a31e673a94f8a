// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ErrQueueIndexOutOfRange is returned by index-based queue mutations
var ErrQueueIndexOutOfRange = errors.New("queue index out of range")

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CampaignRepository defines operations for campaigns and their schedule grid
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	// ListEligible returns active campaigns whose date range contains date,
	// with only that date's schedule entries preloaded.
	ListEligible(ctx context.Context, date string, includeTypes, excludeTypes []string) ([]*models.Campaign, error)
	SaveScheduleEntries(ctx context.Context, campaignID uint, entries []models.CampaignScheduleEntry) error
	UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error
}

// ContentRepository defines read operations over the content catalog
type ContentRepository interface {
	Repository[models.Content, models.ContentFilter]
	ByIDs(ctx context.Context, ids []uint) (map[uint]*models.Content, error)
	RandomSample(ctx context.Context, filter models.ContentFilter, n int) ([]*models.Content, error)
}

// PlayLogRepository defines operations for commercial play logs
type PlayLogRepository interface {
	Repository[models.PlayLog, models.PlayLogFilter]
	CountForSlot(ctx context.Context, campaignID uint, slotDate string, slotIndex int) (int64, error)
}

// PlayHistoryRepository defines operations for aired-item history
type PlayHistoryRepository interface {
	Repository[models.PlayHistory, models.PlayHistoryFilter]
	ContentIDsPlayedSince(ctx context.Context, since time.Time) ([]uint, error)
}

// QueueRepository is the durable playback queue. Positions are kept contiguous
// from 0; every index-based mutation runs in one transaction.
type QueueRepository interface {
	List(ctx context.Context) ([]*models.QueueItem, error)
	Count(ctx context.Context) (int64, error)
	ContentIDs(ctx context.Context) ([]uint, error)
	Append(ctx context.Context, items ...*models.QueueItem) error
	InsertAt(ctx context.Context, index int, items ...*models.QueueItem) error
	RemoveAt(ctx context.Context, index int) (*models.QueueItem, error)
	RemoveByUUID(ctx context.Context, id uuid.UUID) (*models.QueueItem, error)
	Move(ctx context.Context, from, to int) error
	Clear(ctx context.Context) error
	PopFront(ctx context.Context) (*models.QueueItem, error)
}

// FlowRepository defines operations for flows and their schedules
type FlowRepository interface {
	Repository[models.Flow, models.FlowFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Flow, error)
	ListScheduledLoops(ctx context.Context) ([]*models.Flow, error)
	ListActiveScheduled(ctx context.Context, excludeID *uint) ([]*models.Flow, error)
	RecordRun(ctx context.Context, id uint, at time.Time) error
	UpdateStatus(ctx context.Context, id uint, status models.FlowStatus) error
}

// FlowExecutionLogRepository defines operations for flow execution logs
type FlowExecutionLogRepository interface {
	Repository[models.FlowExecutionLog, models.FlowExecutionLogFilter]
	UpdateProgress(ctx context.Context, id uint, actionsCompleted int) error
	Finish(ctx context.Context, id uint, status models.FlowExecutionStatus, actionsCompleted int, endedAt time.Time, errMsg *string) error
}
