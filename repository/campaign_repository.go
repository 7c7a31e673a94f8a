package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignRepositoryImpl implements the CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

// ByID retrieves a campaign by ID with its full schedule grid
func (r *CampaignRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaign models.Campaign
	err := db.Preload("ScheduleEntries", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("slot_date ASC, slot_index ASC")
	}).Last(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &campaign, nil
}

// ByUUID retrieves a campaign by UUID
func (r *CampaignRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Campaign, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	campaigns, err := r.ByFilter(ctx, models.CampaignFilter{UUID: &parsedUUID}, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(campaigns) == 0 {
		return nil, nil
	}

	return campaigns[0], nil
}

// ListEligible retrieves campaigns eligible to air on date
func (r *CampaignRepositoryImpl) ListEligible(ctx context.Context, date string, includeTypes, excludeTypes []string) ([]*models.Campaign, error) {
	status := models.CampaignStatusActive
	filter := models.CampaignFilter{
		Status:   &status,
		ActiveOn: &date,
		Types:    includeTypes,
		NotTypes: excludeTypes,
	}

	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Campaign{}), filter).
		Preload("ScheduleEntries", "slot_date = ?", date).
		Order("priority DESC, id ASC")

	var rows []*models.Campaign
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list eligible campaigns for %s: %w", date, err)
	}
	return rows, nil
}

// SaveScheduleEntries upserts grid cells of a campaign
func (r *CampaignRepositoryImpl) SaveScheduleEntries(ctx context.Context, campaignID uint, entries []models.CampaignScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].CampaignID = campaignID
		if entries[i].SlotIndex < 0 || entries[i].SlotIndex >= utils.SlotsPerDay {
			return fmt.Errorf("slot index %d out of range", entries[i].SlotIndex)
		}
	}

	return r.inWriteTx(ctx, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "slot_date"}, {Name: "slot_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"play_count"}),
		}).Create(&entries).Error
	})
}

// UpdateStatus updates only the status of a campaign
func (r *CampaignRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	return r.inWriteTx(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Campaign{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":     status,
				"updated_at": utils.UTCNow(),
			}).Error
	})
}

func (r *CampaignRepositoryImpl) applyFilter(db *gorm.DB, f models.CampaignFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.Type != nil {
		db = db.Where("type = ?", *f.Type)
	}
	if len(f.Types) > 0 {
		db = db.Where("type IN ?", f.Types)
	}
	if len(f.NotTypes) > 0 {
		db = db.Where("type NOT IN ?", f.NotTypes)
	}
	if f.ActiveOn != nil {
		db = db.Where("start_date <= ? AND end_date >= ?", *f.ActiveOn, *f.ActiveOn)
	}
	return db
}

// ByFilter retrieves campaigns based on filter criteria
func (r *CampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Campaign{}), filter), orderBy, limit, offset)

	var rows []*models.Campaign
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of campaigns matching the filter
func (r *CampaignRepositoryImpl) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Campaign{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any campaign matching the filter exists
func (r *CampaignRepositoryImpl) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
