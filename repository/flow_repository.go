package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/airwave/models"
	"github.com/amirphl/airwave/utils"
	"gorm.io/gorm"
)

// FlowRepositoryImpl implements FlowRepository
type FlowRepositoryImpl struct {
	*BaseRepository[models.Flow, models.FlowFilter]
}

func NewFlowRepository(db *gorm.DB) FlowRepository {
	return &FlowRepositoryImpl{BaseRepository: NewBaseRepository[models.Flow, models.FlowFilter](db)}
}

func (r *FlowRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Flow, error) {
	db := r.getDB(ctx)
	var row models.Flow
	if err := db.Preload("Schedule").Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *FlowRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Flow, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.FlowFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListScheduledLoops returns active looping flows that carry a schedule
func (r *FlowRepositoryImpl) ListScheduledLoops(ctx context.Context) ([]*models.Flow, error) {
	status := models.FlowStatusActive
	trigger := models.FlowTriggerScheduled
	loop := true
	rows, err := r.ByFilter(ctx, models.FlowFilter{Status: &status, TriggerType: &trigger, Loop: &loop}, "priority DESC, id ASC", 0, 0)
	if err != nil {
		return nil, err
	}
	return withSchedule(rows), nil
}

// ListActiveScheduled returns active scheduled flows, optionally skipping one id
func (r *FlowRepositoryImpl) ListActiveScheduled(ctx context.Context, excludeID *uint) ([]*models.Flow, error) {
	status := models.FlowStatusActive
	trigger := models.FlowTriggerScheduled
	rows, err := r.ByFilter(ctx, models.FlowFilter{Status: &status, TriggerType: &trigger, ExcludeID: excludeID}, "id ASC", 0, 0)
	if err != nil {
		return nil, err
	}
	return withSchedule(rows), nil
}

// RecordRun stamps a completed pass on the flow
func (r *FlowRepositoryImpl) RecordRun(ctx context.Context, id uint, at time.Time) error {
	return r.inWriteTx(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Flow{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"last_run_at": at,
				"run_count":   gorm.Expr("run_count + 1"),
				"updated_at":  utils.UTCNow(),
			}).Error
	})
}

// UpdateStatus updates only the status of a flow
func (r *FlowRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.FlowStatus) error {
	return r.inWriteTx(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Flow{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":     status,
				"updated_at": utils.UTCNow(),
			}).Error
	})
}

func withSchedule(rows []*models.Flow) []*models.Flow {
	out := rows[:0]
	for _, f := range rows {
		if f.Schedule != nil {
			out = append(out, f)
		}
	}
	return out
}

func (r *FlowRepositoryImpl) applyFilter(db *gorm.DB, f models.FlowFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.TriggerType != nil {
		db = db.Where("trigger_type = ?", *f.TriggerType)
	}
	if f.Loop != nil {
		db = db.Where("loop_enabled = ?", *f.Loop)
	}
	if f.ExcludeID != nil {
		db = db.Where("id <> ?", *f.ExcludeID)
	}
	return db
}

func (r *FlowRepositoryImpl) ByFilter(ctx context.Context, filter models.FlowFilter, orderBy string, limit, offset int) ([]*models.Flow, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Flow{}), filter), orderBy, limit, offset)
	var rows []*models.Flow
	if err := query.Preload("Schedule").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *FlowRepositoryImpl) Count(ctx context.Context, filter models.FlowFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Flow{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *FlowRepositoryImpl) Exists(ctx context.Context, filter models.FlowFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
