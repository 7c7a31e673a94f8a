package businessflow

import (
	"context"
	"errors"

	"github.com/amirphl/airwave/app/dto"
	"github.com/amirphl/airwave/app/services"
	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/repository"
)

// QueueFlow handles manual edits of the playback queue
type QueueFlow interface {
	List(ctx context.Context) (*dto.QueueResponse, error)
	Append(ctx context.Context, req *dto.AppendQueueRequest) (*dto.QueueResponse, error)
	Insert(ctx context.Context, req *dto.InsertQueueRequest) (*dto.QueueResponse, error)
	Remove(ctx context.Context, index int) (*dto.QueueResponse, error)
	Move(ctx context.Context, req *dto.MoveQueueRequest) (*dto.QueueResponse, error)
	Clear(ctx context.Context) (*dto.QueueResponse, error)
}

// QueueFlowImpl implements QueueFlow
type QueueFlowImpl struct {
	queueRepo   repository.QueueRepository
	contentRepo repository.ContentRepository
	notifier    services.NotificationService
}

func NewQueueFlow(queueRepo repository.QueueRepository, contentRepo repository.ContentRepository, notifier services.NotificationService) QueueFlow {
	return &QueueFlowImpl{queueRepo: queueRepo, contentRepo: contentRepo, notifier: notifier}
}

func (f *QueueFlowImpl) List(ctx context.Context) (*dto.QueueResponse, error) {
	items, err := f.queueRepo.List(ctx)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LIST_FAILED", "Failed to list queue", err)
	}
	return ToQueueResponse("Queue retrieved successfully", items), nil
}

func (f *QueueFlowImpl) Append(ctx context.Context, req *dto.AppendQueueRequest) (*dto.QueueResponse, error) {
	items, err := f.itemsFor(ctx, req.ContentIDs)
	if err != nil {
		return nil, err
	}
	if err := f.queueRepo.Append(ctx, items...); err != nil {
		return nil, NewBusinessError("QUEUE_APPEND_FAILED", "Failed to append to queue", err)
	}
	return f.afterMutation(ctx, "Items appended to queue")
}

func (f *QueueFlowImpl) Insert(ctx context.Context, req *dto.InsertQueueRequest) (*dto.QueueResponse, error) {
	items, err := f.itemsFor(ctx, req.ContentIDs)
	if err != nil {
		return nil, err
	}
	if err := f.queueRepo.InsertAt(ctx, req.Index, items...); err != nil {
		return nil, queueIndexError("QUEUE_INSERT_FAILED", "Failed to insert into queue", err)
	}
	return f.afterMutation(ctx, "Items inserted into queue")
}

func (f *QueueFlowImpl) Remove(ctx context.Context, index int) (*dto.QueueResponse, error) {
	if _, err := f.queueRepo.RemoveAt(ctx, index); err != nil {
		return nil, queueIndexError("QUEUE_REMOVE_FAILED", "Failed to remove queue item", err)
	}
	return f.afterMutation(ctx, "Queue item removed")
}

func (f *QueueFlowImpl) Move(ctx context.Context, req *dto.MoveQueueRequest) (*dto.QueueResponse, error) {
	if err := f.queueRepo.Move(ctx, req.From, req.To); err != nil {
		return nil, queueIndexError("QUEUE_MOVE_FAILED", "Failed to move queue item", err)
	}
	return f.afterMutation(ctx, "Queue item moved")
}

func (f *QueueFlowImpl) Clear(ctx context.Context) (*dto.QueueResponse, error) {
	if err := f.queueRepo.Clear(ctx); err != nil {
		return nil, NewBusinessError("QUEUE_CLEAR_FAILED", "Failed to clear queue", err)
	}
	return f.afterMutation(ctx, "Queue cleared")
}

// itemsFor resolves catalog ids into queue items, keeping request order and duplicates
func (f *QueueFlowImpl) itemsFor(ctx context.Context, ids []uint) ([]*models.QueueItem, error) {
	found, err := f.contentRepo.ByIDs(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("CONTENT_LOOKUP_FAILED", "Failed to look up content", err)
	}
	items := make([]*models.QueueItem, 0, len(ids))
	for _, id := range ids {
		c, ok := found[id]
		if !ok || c == nil {
			return nil, NewBusinessErrorf("CONTENT_NOT_FOUND", "content %d not found", ErrContentNotFound, id)
		}
		if c.IsActive != nil && !*c.IsActive {
			return nil, NewBusinessErrorf("CONTENT_INACTIVE", "content %d is inactive", ErrContentInactive, id)
		}
		items = append(items, models.NewQueueItemFromContent(c))
	}
	return items, nil
}

// afterMutation reloads the queue and notifies subscribers; notification is best effort
func (f *QueueFlowImpl) afterMutation(ctx context.Context, message string) (*dto.QueueResponse, error) {
	items, err := f.queueRepo.List(ctx)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LIST_FAILED", "Failed to list queue", err)
	}
	if f.notifier != nil {
		_ = f.notifier.PublishQueueUpdated(ctx, items)
	}
	return ToQueueResponse(message, items), nil
}

func queueIndexError(code, message string, err error) error {
	if errors.Is(err, repository.ErrQueueIndexOutOfRange) {
		return NewBusinessError("QUEUE_INDEX_OUT_OF_RANGE", "Queue index out of range", errors.Join(ErrQueueIndexOutOfRange, err))
	}
	return NewBusinessError(code, message, err)
}
