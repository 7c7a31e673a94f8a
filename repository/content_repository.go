package repository

import (
	"context"
	"errors"

	"github.com/amirphl/airwave/models"
	"gorm.io/gorm"
)

// ContentRepositoryImpl implements ContentRepository
type ContentRepositoryImpl struct {
	*BaseRepository[models.Content, models.ContentFilter]
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &ContentRepositoryImpl{BaseRepository: NewBaseRepository[models.Content, models.ContentFilter](db)}
}

func (r *ContentRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Content, error) {
	db := r.getDB(ctx)
	var row models.Content
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ByIDs loads catalog items keyed by id; missing ids are simply absent from the map
func (r *ContentRepositoryImpl) ByIDs(ctx context.Context, ids []uint) (map[uint]*models.Content, error) {
	out := make(map[uint]*models.Content, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.ByFilter(ctx, models.ContentFilter{IDs: ids}, "", 0, 0)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// RandomSample draws up to n random items matching filter
func (r *ContentRepositoryImpl) RandomSample(ctx context.Context, filter models.ContentFilter, n int) ([]*models.Content, error) {
	if n <= 0 {
		return nil, nil
	}
	return r.ByFilter(ctx, filter, "RANDOM()", n, 0)
}

func (r *ContentRepositoryImpl) applyFilter(db *gorm.DB, f models.ContentFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if len(f.IDs) > 0 {
		db = db.Where("id IN ?", f.IDs)
	}
	if f.Type != nil {
		db = db.Where("type = ?", *f.Type)
	}
	if f.Genre != nil {
		db = db.Where("LOWER(genre) = LOWER(?)", *f.Genre)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if len(f.ExcludeIDs) > 0 {
		db = db.Where("id NOT IN ?", f.ExcludeIDs)
	}
	return db
}

func (r *ContentRepositoryImpl) ByFilter(ctx context.Context, filter models.ContentFilter, orderBy string, limit, offset int) ([]*models.Content, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Content{}), filter), orderBy, limit, offset)
	var rows []*models.Content
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ContentRepositoryImpl) Count(ctx context.Context, filter models.ContentFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Content{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ContentRepositoryImpl) Exists(ctx context.Context, filter models.ContentFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
