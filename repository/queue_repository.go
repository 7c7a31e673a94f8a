package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/airwave/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueueRepositoryImpl implements QueueRepository on the playback_queue table
type QueueRepositoryImpl struct {
	*BaseRepository[models.QueueItem, struct{}]
}

func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &QueueRepositoryImpl{BaseRepository: NewBaseRepository[models.QueueItem, struct{}](db)}
}

// List returns the queue head first
func (r *QueueRepositoryImpl) List(ctx context.Context) ([]*models.QueueItem, error) {
	db := r.getDB(ctx)
	var rows []*models.QueueItem
	if err := db.Order("position ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	return rows, nil
}

func (r *QueueRepositoryImpl) Count(ctx context.Context) (int64, error) {
	return r.count(r.getDB(ctx))
}

// ContentIDs returns the distinct catalog ids currently queued
func (r *QueueRepositoryImpl) ContentIDs(ctx context.Context) ([]uint, error) {
	db := r.getDB(ctx)
	var ids []uint
	err := db.Model(&models.QueueItem{}).
		Where("content_id IS NOT NULL").
		Distinct().
		Pluck("content_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Append adds items at the tail in the given order
func (r *QueueRepositoryImpl) Append(ctx context.Context, items ...*models.QueueItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.inWriteTx(ctx, func(db *gorm.DB) error {
		n, err := r.count(db)
		if err != nil {
			return err
		}
		for i, it := range items {
			it.Position = int(n) + i
		}
		return db.Create(items).Error
	})
}

// InsertAt places items starting at index, pushing later items back.
// index == len(queue) behaves like Append.
func (r *QueueRepositoryImpl) InsertAt(ctx context.Context, index int, items ...*models.QueueItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.inWriteTx(ctx, func(db *gorm.DB) error {
		n, err := r.count(db)
		if err != nil {
			return err
		}
		if index < 0 || index > int(n) {
			return fmt.Errorf("%w: insert at %d with %d items queued", ErrQueueIndexOutOfRange, index, n)
		}
		if err := r.shift(db.Where("position >= ?", index), len(items)); err != nil {
			return err
		}
		for i, it := range items {
			it.Position = index + i
		}
		return db.Create(items).Error
	})
}

// RemoveAt deletes the item at index and closes the gap
func (r *QueueRepositoryImpl) RemoveAt(ctx context.Context, index int) (*models.QueueItem, error) {
	var removed *models.QueueItem
	err := r.inWriteTx(ctx, func(db *gorm.DB) error {
		item, err := r.at(db, index)
		if err != nil {
			return err
		}
		if err := db.Delete(item).Error; err != nil {
			return err
		}
		if err := r.shift(db.Where("position > ?", index), -1); err != nil {
			return err
		}
		removed = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// RemoveByUUID deletes the item with the given uuid wherever it currently
// sits. Nil when it is no longer queued.
func (r *QueueRepositoryImpl) RemoveByUUID(ctx context.Context, id uuid.UUID) (*models.QueueItem, error) {
	var removed *models.QueueItem
	err := r.inWriteTx(ctx, func(db *gorm.DB) error {
		var item models.QueueItem
		err := db.Where("uuid = ?", id).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := db.Delete(&item).Error; err != nil {
			return err
		}
		if err := r.shift(db.Where("position > ?", item.Position), -1); err != nil {
			return err
		}
		removed = &item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Move relocates the item at from so that it ends up at index to
func (r *QueueRepositoryImpl) Move(ctx context.Context, from, to int) error {
	return r.inWriteTx(ctx, func(db *gorm.DB) error {
		n, err := r.count(db)
		if err != nil {
			return err
		}
		if to < 0 || to >= int(n) {
			return fmt.Errorf("%w: move to %d with %d items queued", ErrQueueIndexOutOfRange, to, n)
		}
		item, err := r.at(db, from)
		if err != nil {
			return err
		}
		if from == to {
			return nil
		}
		if from < to {
			err = r.shift(db.Where("position > ? AND position <= ?", from, to), -1)
		} else {
			err = r.shift(db.Where("position >= ? AND position < ?", to, from), 1)
		}
		if err != nil {
			return err
		}
		return db.Model(&models.QueueItem{}).Where("id = ?", item.ID).UpdateColumn("position", to).Error
	})
}

// Clear empties the queue
func (r *QueueRepositoryImpl) Clear(ctx context.Context) error {
	return r.inWriteTx(ctx, func(db *gorm.DB) error {
		return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.QueueItem{}).Error
	})
}

// PopFront removes and returns the head, nil when the queue is empty
func (r *QueueRepositoryImpl) PopFront(ctx context.Context) (*models.QueueItem, error) {
	item, err := r.RemoveAt(ctx, 0)
	if errors.Is(err, ErrQueueIndexOutOfRange) {
		return nil, nil
	}
	return item, err
}

func (r *QueueRepositoryImpl) count(db *gorm.DB) (int64, error) {
	var n int64
	if err := db.Model(&models.QueueItem{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}

func (r *QueueRepositoryImpl) at(db *gorm.DB, index int) (*models.QueueItem, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: %d", ErrQueueIndexOutOfRange, index)
	}
	var item models.QueueItem
	err := db.Where("position = ?", index).Order("id ASC").First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrQueueIndexOutOfRange, index)
		}
		return nil, err
	}
	return &item, nil
}

func (r *QueueRepositoryImpl) shift(scoped *gorm.DB, delta int) error {
	return scoped.Model(&models.QueueItem{}).
		UpdateColumn("position", gorm.Expr("position + ?", delta)).Error
}
