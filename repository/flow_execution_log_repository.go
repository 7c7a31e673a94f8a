package repository

import (
	"context"
	"time"

	"github.com/amirphl/airwave/models"
	"gorm.io/gorm"
)

// FlowExecutionLogRepositoryImpl implements FlowExecutionLogRepository
type FlowExecutionLogRepositoryImpl struct {
	*BaseRepository[models.FlowExecutionLog, models.FlowExecutionLogFilter]
}

func NewFlowExecutionLogRepository(db *gorm.DB) FlowExecutionLogRepository {
	return &FlowExecutionLogRepositoryImpl{BaseRepository: NewBaseRepository[models.FlowExecutionLog, models.FlowExecutionLogFilter](db)}
}

func (r *FlowExecutionLogRepositoryImpl) UpdateProgress(ctx context.Context, id uint, actionsCompleted int) error {
	db := r.getDB(ctx)
	return db.Model(&models.FlowExecutionLog{}).
		Where("id = ?", id).
		UpdateColumn("actions_completed", actionsCompleted).Error
}

// Finish closes an execution log; a log that is no longer running is left untouched
func (r *FlowExecutionLogRepositoryImpl) Finish(ctx context.Context, id uint, status models.FlowExecutionStatus, actionsCompleted int, endedAt time.Time, errMsg *string) error {
	return r.inWriteTx(ctx, func(db *gorm.DB) error {
		return db.Model(&models.FlowExecutionLog{}).
			Where("id = ? AND status = ?", id, models.FlowExecutionRunning).
			Updates(map[string]any{
				"status":            status,
				"actions_completed": actionsCompleted,
				"ended_at":          endedAt,
				"error":             errMsg,
			}).Error
	})
}

func (r *FlowExecutionLogRepositoryImpl) applyFilter(db *gorm.DB, f models.FlowExecutionLogFilter) *gorm.DB {
	if f.FlowID != nil {
		db = db.Where("flow_id = ?", *f.FlowID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	return db
}

func (r *FlowExecutionLogRepositoryImpl) ByFilter(ctx context.Context, filter models.FlowExecutionLogFilter, orderBy string, limit, offset int) ([]*models.FlowExecutionLog, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.FlowExecutionLog{}), filter), orderBy, limit, offset)
	var rows []*models.FlowExecutionLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *FlowExecutionLogRepositoryImpl) Count(ctx context.Context, filter models.FlowExecutionLogFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.FlowExecutionLog{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *FlowExecutionLogRepositoryImpl) Exists(ctx context.Context, filter models.FlowExecutionLogFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
