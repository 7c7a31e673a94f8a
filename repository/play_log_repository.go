package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/airwave/models"
	"gorm.io/gorm"
)

// PlayLogRepositoryImpl implements PlayLogRepository
type PlayLogRepositoryImpl struct {
	*BaseRepository[models.PlayLog, models.PlayLogFilter]
}

func NewPlayLogRepository(db *gorm.DB) PlayLogRepository {
	return &PlayLogRepositoryImpl{BaseRepository: NewBaseRepository[models.PlayLog, models.PlayLogFilter](db)}
}

// CountForSlot counts plays already logged for a campaign in one slot occurrence
func (r *PlayLogRepositoryImpl) CountForSlot(ctx context.Context, campaignID uint, slotDate string, slotIndex int) (int64, error) {
	count, err := r.Count(ctx, models.PlayLogFilter{
		CampaignID: &campaignID,
		SlotDate:   &slotDate,
		SlotIndex:  &slotIndex,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count plays for campaign %d slot %s_%d: %w", campaignID, slotDate, slotIndex, err)
	}
	return count, nil
}

func (r *PlayLogRepositoryImpl) applyFilter(db *gorm.DB, f models.PlayLogFilter) *gorm.DB {
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.SlotDate != nil {
		db = db.Where("slot_date = ?", *f.SlotDate)
	}
	if f.SlotIndex != nil {
		db = db.Where("slot_index = ?", *f.SlotIndex)
	}
	if f.TriggeredBy != nil {
		db = db.Where("triggered_by = ?", *f.TriggeredBy)
	}
	if f.PlayedAfter != nil {
		db = db.Where("played_at >= ?", *f.PlayedAfter)
	}
	if f.PlayedBefore != nil {
		db = db.Where("played_at < ?", *f.PlayedBefore)
	}
	return db
}

func (r *PlayLogRepositoryImpl) ByFilter(ctx context.Context, filter models.PlayLogFilter, orderBy string, limit, offset int) ([]*models.PlayLog, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.PlayLog{}), filter), orderBy, limit, offset)
	var rows []*models.PlayLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PlayLogRepositoryImpl) Count(ctx context.Context, filter models.PlayLogFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.PlayLog{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PlayLogRepositoryImpl) Exists(ctx context.Context, filter models.PlayLogFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
