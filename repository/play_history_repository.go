package repository

import (
	"context"
	"time"

	"github.com/amirphl/airwave/models"
	"gorm.io/gorm"
)

// PlayHistoryRepositoryImpl implements PlayHistoryRepository
type PlayHistoryRepositoryImpl struct {
	*BaseRepository[models.PlayHistory, models.PlayHistoryFilter]
}

func NewPlayHistoryRepository(db *gorm.DB) PlayHistoryRepository {
	return &PlayHistoryRepositoryImpl{BaseRepository: NewBaseRepository[models.PlayHistory, models.PlayHistoryFilter](db)}
}

// ContentIDsPlayedSince returns the distinct catalog ids aired at or after since
func (r *PlayHistoryRepositoryImpl) ContentIDsPlayedSince(ctx context.Context, since time.Time) ([]uint, error) {
	db := r.getDB(ctx)
	var ids []uint
	err := db.Model(&models.PlayHistory{}).
		Where("played_at >= ? AND content_id IS NOT NULL", since).
		Distinct().
		Pluck("content_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PlayHistoryRepositoryImpl) applyFilter(db *gorm.DB, f models.PlayHistoryFilter) *gorm.DB {
	if f.ContentID != nil {
		db = db.Where("content_id = ?", *f.ContentID)
	}
	if f.PlayedAfter != nil {
		db = db.Where("played_at >= ?", *f.PlayedAfter)
	}
	if f.PlayedBefore != nil {
		db = db.Where("played_at < ?", *f.PlayedBefore)
	}
	return db
}

func (r *PlayHistoryRepositoryImpl) ByFilter(ctx context.Context, filter models.PlayHistoryFilter, orderBy string, limit, offset int) ([]*models.PlayHistory, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.PlayHistory{}), filter), orderBy, limit, offset)
	var rows []*models.PlayHistory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PlayHistoryRepositoryImpl) Count(ctx context.Context, filter models.PlayHistoryFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.PlayHistory{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PlayHistoryRepositoryImpl) Exists(ctx context.Context, filter models.PlayHistoryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
