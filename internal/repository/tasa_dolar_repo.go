package repository

import (
	"context"

	"adriani/internal/model"

	"gorm.io/gorm"
)

type TasaDolarRepository interface {
	Create(ctx context.Context, t *model.TasaDolar) error
	// Ultima returns the most recent rate, or gorm.ErrRecordNotFound.
	Ultima(ctx context.Context) (*model.TasaDolar, error)
}

type tasaDolarRepo struct{ db *gorm.DB }

func NewTasaDolarRepository(db *gorm.DB) TasaDolarRepository { return &tasaDolarRepo{db: db} }

func (r *tasaDolarRepo) Create(ctx context.Context, t *model.TasaDolar) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tasaDolarRepo) Ultima(ctx context.Context) (*model.TasaDolar, error) {
	var t model.TasaDolar
	err := r.db.WithContext(ctx).Order("fecha DESC, created_at DESC").First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}
