package repository

import (
	"context"
	"time"

	"adriani/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistorialFilter struct {
	ClienteID *uuid.UUID
	Exitoso   *bool
	Page      int
	Limit     int
}

type RecordatorioRepository interface {
	Create(ctx context.Context, rec *model.Recordatorio) error
	ListPendientes(ctx context.Context) ([]model.Recordatorio, error)
	MarcarEnviado(ctx context.Context, id uuid.UUID, at time.Time) error
	MarcarFallido(ctx context.Context, id uuid.UUID) error
	// ClientesAvisados returns the clients that already have a pending
	// reminder or a reminder delivered at or after desde.
	ClientesAvisados(ctx context.Context, desde time.Time) ([]uuid.UUID, error)
	UltimosAvisos(ctx context.Context, clienteIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)

	CrearHistorial(ctx context.Context, h *model.HistorialMensaje) error
	ListHistorial(ctx context.Context, filter HistorialFilter) ([]model.HistorialMensaje, int64, error)
}

type recordatorioRepo struct{ db *gorm.DB }

func NewRecordatorioRepository(db *gorm.DB) RecordatorioRepository {
	return &recordatorioRepo{db: db}
}

func (r *recordatorioRepo) Create(ctx context.Context, rec *model.Recordatorio) error {
	return r.db.WithContext(ctx).Omit("Cliente").Create(rec).Error
}

func (r *recordatorioRepo) ListPendientes(ctx context.Context) ([]model.Recordatorio, error) {
	var recs []model.Recordatorio
	err := r.db.WithContext(ctx).
		Where("estado = ?", model.RecordatorioPendiente).
		Order("created_at ASC").
		Find(&recs).Error
	return recs, err
}

func (r *recordatorioRepo) MarcarEnviado(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Recordatorio{}).Where("id = ?", id).
		Updates(map[string]interface{}{"estado": model.RecordatorioEnviado, "sent_at": at}).Error
}

func (r *recordatorioRepo) MarcarFallido(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Recordatorio{}).Where("id = ?", id).
		Update("estado", model.RecordatorioFallido).Error
}

func (r *recordatorioRepo) ClientesAvisados(ctx context.Context, desde time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Recordatorio{}).
		Distinct("cliente_id").
		Where("estado = ? OR (estado = ? AND sent_at >= ?)",
			model.RecordatorioPendiente, model.RecordatorioEnviado, desde).
		Pluck("cliente_id", &ids).Error
	return ids, err
}

func (r *recordatorioRepo) UltimosAvisos(ctx context.Context, clienteIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	out := make(map[uuid.UUID]time.Time, len(clienteIDs))
	if len(clienteIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ClienteID uuid.UUID
		SentAt    time.Time
	}
	err := r.db.WithContext(ctx).Model(&model.Recordatorio{}).
		Select("cliente_id, MAX(sent_at) AS sent_at").
		Where("cliente_id IN ? AND sent_at IS NOT NULL", clienteIDs).
		Group("cliente_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ClienteID] = row.SentAt
	}
	return out, nil
}

func (r *recordatorioRepo) CrearHistorial(ctx context.Context, h *model.HistorialMensaje) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *recordatorioRepo) ListHistorial(ctx context.Context, filter HistorialFilter) ([]model.HistorialMensaje, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.HistorialMensaje{})
	if filter.ClienteID != nil {
		q = q.Where("cliente_id = ?", *filter.ClienteID)
	}
	if filter.Exitoso != nil {
		q = q.Where("exitoso = ?", *filter.Exitoso)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := paginar(filter.Page, filter.Limit, 50)
	var list []model.HistorialMensaje
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&list).Error
	return list, total, err
}
