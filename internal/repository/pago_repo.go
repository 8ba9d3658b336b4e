package repository

import (
	"context"
	"time"

	"adriani/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PagoFilter struct {
	ClienteID *uuid.UUID
	CuentaID  *uuid.UUID
	Desde     *time.Time
	Hasta     *time.Time
	Page      int
	Limit     int
}

// CobroPorCuentaRow is the sum of payments received through one account.
type CobroPorCuentaRow struct {
	CuentaID uuid.UUID
	Monto    decimal.Decimal
	MontoUSD decimal.Decimal
	Pagos    int
}

type PagoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pago, error)
	List(ctx context.Context, filter PagoFilter) ([]model.Pago, int64, error)
	TotalesPorCuenta(ctx context.Context, desde, hasta time.Time) ([]CobroPorCuentaRow, error)
	// AbonosPorFactura returns every allocation made to the given invoices,
	// with its payment loaded, oldest first.
	AbonosPorFactura(ctx context.Context, facturaIDs []uuid.UUID) ([]model.PagoFactura, error)

	CreateTx(tx *gorm.DB, p *model.Pago) error
	CreateAsignacionTx(tx *gorm.DB, a *model.PagoFactura) error

	DB() *gorm.DB
}

type pagoRepo struct{ db *gorm.DB }

func NewPagoRepository(db *gorm.DB) PagoRepository { return &pagoRepo{db: db} }

func (r *pagoRepo) DB() *gorm.DB { return r.db }

func (r *pagoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pago, error) {
	var p model.Pago
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Preload("Cuenta").
		Preload("Asignaciones.Factura").
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *pagoRepo) List(ctx context.Context, filter PagoFilter) ([]model.Pago, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Pago{})
	if filter.ClienteID != nil {
		q = q.Where("cliente_id = ?", *filter.ClienteID)
	}
	if filter.CuentaID != nil {
		q = q.Where("cuenta_id = ?", *filter.CuentaID)
	}
	if filter.Desde != nil {
		q = q.Where("fecha >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("fecha < ?", *filter.Hasta)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := paginar(filter.Page, filter.Limit, 50)
	var pagos []model.Pago
	err := q.Preload("Cliente").Preload("Cuenta").Preload("Asignaciones.Factura").
		Order("fecha DESC, created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&pagos).Error
	return pagos, total, err
}

func (r *pagoRepo) TotalesPorCuenta(ctx context.Context, desde, hasta time.Time) ([]CobroPorCuentaRow, error) {
	var rows []CobroPorCuentaRow
	err := r.db.WithContext(ctx).Model(&model.Pago{}).
		Select("cuenta_id, SUM(monto) AS monto, SUM(monto_usd) AS monto_usd, COUNT(*) AS pagos").
		Where("fecha >= ? AND fecha < ?", desde, hasta).
		Group("cuenta_id").
		Scan(&rows).Error
	return rows, err
}

func (r *pagoRepo) AbonosPorFactura(ctx context.Context, facturaIDs []uuid.UUID) ([]model.PagoFactura, error) {
	var abonos []model.PagoFactura
	if len(facturaIDs) == 0 {
		return abonos, nil
	}
	err := r.db.WithContext(ctx).Preload("Pago").
		Where("factura_id IN ?", facturaIDs).
		Order("created_at ASC").
		Find(&abonos).Error
	return abonos, err
}

func (r *pagoRepo) CreateTx(tx *gorm.DB, p *model.Pago) error {
	return tx.Omit(clause.Associations).Create(p).Error
}

func (r *pagoRepo) CreateAsignacionTx(tx *gorm.DB, a *model.PagoFactura) error {
	return tx.Omit(clause.Associations).Create(a).Error
}
