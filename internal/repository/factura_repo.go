package repository

import (
	"context"
	"time"

	"adriani/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FacturaFilter defines filters for listing invoices. Dates are already
// resolved to instants by the caller.
type FacturaFilter struct {
	ClienteID *uuid.UUID
	Estado    model.EstadoFactura
	Desde     *time.Time
	Hasta     *time.Time
	Page      int
	Limit     int
}

// MorosoRow aggregates the overdue invoices of one client.
type MorosoRow struct {
	ClienteID  uuid.UUID
	Facturas   int
	TotalDeuda decimal.Decimal
	MasAntigua time.Time
}

var estadosAbiertos = []model.EstadoFactura{model.EstadoCreada, model.EstadoPendiente, model.EstadoVencida}

type FacturaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error)
	List(ctx context.Context, filter FacturaFilter) ([]model.Factura, int64, error)
	// ListConItems returns every invoice created in [desde, hasta) with its
	// items and products loaded, for reporting.
	ListConItems(ctx context.Context, desde, hasta time.Time) ([]model.Factura, error)
	ListAbiertasPorCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Factura, error)
	ListMorosos(ctx context.Context) ([]MorosoRow, error)
	// TransicionarEstados runs the daily sweep against the given start of day
	// and returns how many invoices moved to Pendiente and to Vencida.
	TransicionarEstados(ctx context.Context, inicioDia time.Time) (int64, int64, error)

	// Used inside transactions: callers must pass the tx instance
	SiguienteNumeroTx(tx *gorm.DB) (int, error)
	CreateTx(tx *gorm.DB, f *model.Factura) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Factura, error)
	ListAbiertasPorClienteTx(tx *gorm.DB, clienteID uuid.UUID) ([]model.Factura, error)
	ContarAsignacionesTx(tx *gorm.DB, id uuid.UUID) (int64, error)
	CancelarTx(tx *gorm.DB, id uuid.UUID) (int64, error)
	AplicarAbonoTx(tx *gorm.DB, id uuid.UUID, monto decimal.Decimal) error

	DB() *gorm.DB
}

type facturaRepo struct{ db *gorm.DB }

func NewFacturaRepository(db *gorm.DB) FacturaRepository { return &facturaRepo{db: db} }

func (r *facturaRepo) DB() *gorm.DB { return r.db }

func (r *facturaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error) {
	var f model.Factura
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Items.Producto").
		Preload("Asignaciones", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&f, "id = ?", id).Error
	return &f, err
}

func (r *facturaRepo) List(ctx context.Context, filter FacturaFilter) ([]model.Factura, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Factura{})
	if filter.ClienteID != nil {
		q = q.Where("cliente_id = ?", *filter.ClienteID)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Desde != nil {
		q = q.Where("fecha_despacho >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("fecha_despacho < ?", *filter.Hasta)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := paginar(filter.Page, filter.Limit, 50)
	var facturas []model.Factura
	err := q.Preload("Cliente").Order("numero DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&facturas).Error
	return facturas, total, err
}

func (r *facturaRepo) ListConItems(ctx context.Context, desde, hasta time.Time) ([]model.Factura, error) {
	var facturas []model.Factura
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Items.Producto").
		Where("fecha_despacho >= ? AND fecha_despacho < ?", desde, hasta).
		Order("numero ASC").
		Find(&facturas).Error
	return facturas, err
}

func (r *facturaRepo) ListAbiertasPorCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Factura, error) {
	return r.ListAbiertasPorClienteTx(r.db.WithContext(ctx), clienteID)
}

// ListAbiertasPorClienteTx returns the client's invoices that still owe money,
// oldest due date first.
func (r *facturaRepo) ListAbiertasPorClienteTx(tx *gorm.DB, clienteID uuid.UUID) ([]model.Factura, error) {
	var facturas []model.Factura
	err := tx.Where("cliente_id = ? AND estado IN ? AND restante > 0", clienteID, estadosAbiertos).
		Order("fecha_vencimiento ASC, created_at ASC").
		Find(&facturas).Error
	return facturas, err
}

func (r *facturaRepo) ListMorosos(ctx context.Context) ([]MorosoRow, error) {
	var rows []MorosoRow
	err := r.db.WithContext(ctx).Model(&model.Factura{}).
		Select("cliente_id, COUNT(*) AS facturas, SUM(restante) AS total_deuda, MIN(fecha_vencimiento) AS mas_antigua").
		Where("estado = ? AND restante > 0", model.EstadoVencida).
		Group("cliente_id").
		Order("total_deuda DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *facturaRepo) TransicionarEstados(ctx context.Context, inicioDia time.Time) (int64, int64, error) {
	var pendientes, vencidas int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Factura{}).
			Where("estado = ? AND fecha_despacho < ? AND restante > 0", model.EstadoCreada, inicioDia).
			Update("estado", model.EstadoPendiente)
		if res.Error != nil {
			return res.Error
		}
		pendientes = res.RowsAffected

		res = tx.Model(&model.Factura{}).
			Where("estado = ? AND fecha_vencimiento < ? AND restante > 0", model.EstadoPendiente, inicioDia).
			Update("estado", model.EstadoVencida)
		if res.Error != nil {
			return res.Error
		}
		vencidas = res.RowsAffected
		return nil
	})
	return pendientes, vencidas, err
}

// SiguienteNumeroTx draws the next invoice number. Postgres uses the
// facturas_numero_seq sequence; other dialects fall back to MAX+1.
func (r *facturaRepo) SiguienteNumeroTx(tx *gorm.DB) (int, error) {
	var n int
	if tx.Dialector.Name() == "postgres" {
		err := tx.Raw("SELECT nextval('facturas_numero_seq')").Scan(&n).Error
		return n, err
	}
	err := tx.Raw("SELECT COALESCE(MAX(numero), 0) + 1 FROM facturas").Scan(&n).Error
	return n, err
}

func (r *facturaRepo) CreateTx(tx *gorm.DB, f *model.Factura) error {
	return tx.Omit("Cliente", "Asignaciones", "Items.Producto").Create(f).Error
}

func (r *facturaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Factura, error) {
	var f model.Factura
	err := tx.Preload("Items").First(&f, "id = ?", id).Error
	return &f, err
}

func (r *facturaRepo) ContarAsignacionesTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&model.PagoFactura{}).Where("factura_id = ?", id).Count(&n).Error
	return n, err
}

// CancelarTx moves a non-terminal invoice to Cancelada. It returns the number
// of rows changed, 0 when the invoice was already Pagado or Cancelada.
func (r *facturaRepo) CancelarTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.Model(&model.Factura{}).
		Where("id = ? AND estado NOT IN ?", id, []model.EstadoFactura{model.EstadoPagado, model.EstadoCancelada}).
		Update("estado", model.EstadoCancelada)
	return res.RowsAffected, res.Error
}

// AplicarAbonoTx decrements restante by monto in one statement, clamped at
// zero, and marks the invoice Pagado when nothing is left. Both SET clauses
// read the pre-update row.
func (r *facturaRepo) AplicarAbonoTx(tx *gorm.DB, id uuid.UUID, monto decimal.Decimal) error {
	res := tx.Model(&model.Factura{}).
		Where("id = ? AND estado <> ?", id, model.EstadoCancelada).
		Updates(map[string]interface{}{
			"restante": gorm.Expr("CASE WHEN restante - ? < 0 THEN 0 ELSE restante - ? END", monto, monto),
			"estado":   gorm.Expr("CASE WHEN restante - ? <= 0 THEN ? ELSE estado END", monto, model.EstadoPagado),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
