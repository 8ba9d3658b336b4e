package repository

import (
	"context"

	"adriani/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BloqueRepository defines CRUD operations for Bloque.
type BloqueRepository interface {
	Crear(ctx context.Context, b *model.Bloque) error
	Listar(ctx context.Context) ([]model.Bloque, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Bloque, error)
	ObtenerPorNombre(ctx context.Context, nombre string) (*model.Bloque, error)
	Actualizar(ctx context.Context, b *model.Bloque) error
	Desactivar(ctx context.Context, id uuid.UUID) error
	// ContarClientes returns the number of active clients per block.
	ContarClientes(ctx context.Context) (map[uuid.UUID]int64, error)
}

type bloqueRepository struct{ db *gorm.DB }

func NewBloqueRepository(db *gorm.DB) BloqueRepository {
	return &bloqueRepository{db: db}
}

func (r *bloqueRepository) Crear(ctx context.Context, b *model.Bloque) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *bloqueRepository) Listar(ctx context.Context) ([]model.Bloque, error) {
	var list []model.Bloque
	err := r.db.WithContext(ctx).Order("nombre asc").Find(&list).Error
	return list, err
}

func (r *bloqueRepository) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Bloque, error) {
	var b model.Bloque
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bloqueRepository) ObtenerPorNombre(ctx context.Context, nombre string) (*model.Bloque, error) {
	var b model.Bloque
	if err := r.db.WithContext(ctx).Where("lower(nombre) = lower(?)", nombre).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bloqueRepository) Actualizar(ctx context.Context, b *model.Bloque) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *bloqueRepository) Desactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Bloque{}).Where("id = ?", id).Update("activo", false).Error
}

func (r *bloqueRepository) ContarClientes(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		BloqueID uuid.UUID
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&model.Cliente{}).
		Select("bloque_id, COUNT(*) AS total").
		Where("bloque_id IS NOT NULL AND activo = ?", true).
		Group("bloque_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.BloqueID] = row.Total
	}
	return out, nil
}
