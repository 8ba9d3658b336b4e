package repository

import (
	"context"
	"strings"

	"adriani/internal/dto"
	"adriani/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	FindByDocumento(ctx context.Context, documento string) (*model.Cliente, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Cliente, error)
	List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error)
	ListActivos(ctx context.Context) ([]model.Cliente, error)
	Update(ctx context.Context, c *model.Cliente) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Omit("Bloque").Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Preload("Bloque").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindByDocumento(ctx context.Context, documento string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Where("documento = ?", strings.ToUpper(strings.TrimSpace(documento))).First(&c).Error
	return &c, err
}

func (r *clienteRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Cliente, error) {
	var clientes []model.Cliente
	if len(ids) == 0 {
		return clientes, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&clientes).Error
	return clientes, err
}

func (r *clienteRepo) List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var clientes []model.Cliente
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Cliente{})

	switch filter.Activo {
	case "false":
		q = q.Where("activo = ?", false)
	case "all":
	default:
		q = q.Where("activo = ?", true)
	}

	if filter.Buscar != "" {
		like := "%" + strings.ToLower(filter.Buscar) + "%"
		q = q.Where("LOWER(nombre) LIKE ? OR LOWER(documento) LIKE ?", like, like)
	}
	if filter.BloqueID != "" {
		q = q.Where("bloque_id = ?", filter.BloqueID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := paginar(filter.Page, filter.Limit, 20)
	err := q.Preload("Bloque").Order("nombre ASC").
		Limit(limit).Offset((page - 1) * limit).Find(&clientes).Error
	return clientes, total, err
}

func (r *clienteRepo) ListActivos(ctx context.Context) ([]model.Cliente, error) {
	var clientes []model.Cliente
	err := r.db.WithContext(ctx).Preload("Bloque").
		Where("activo = ?", true).Order("nombre ASC").Find(&clientes).Error
	return clientes, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Omit("Bloque").Save(c).Error
}

func (r *clienteRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Cliente{}).Where("id = ?", id).Update("activo", false).Error
}
