package repository

import (
	"context"

	"adriani/internal/model"

	"gorm.io/gorm"
)

type ErrorLogRepository interface {
	Create(ctx context.Context, e *model.ErrorLog) error
	List(ctx context.Context, servicio string, page, limit int) ([]model.ErrorLog, int64, error)
}

type errorLogRepo struct{ db *gorm.DB }

func NewErrorLogRepository(db *gorm.DB) ErrorLogRepository { return &errorLogRepo{db: db} }

func (r *errorLogRepo) Create(ctx context.Context, e *model.ErrorLog) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *errorLogRepo) List(ctx context.Context, servicio string, page, limit int) ([]model.ErrorLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ErrorLog{})
	if servicio != "" {
		q = q.Where("servicio = ?", servicio)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit = paginar(page, limit, 50)
	var logs []model.ErrorLog
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&logs).Error
	return logs, total, err
}
