package repository_test

import (
	"context"
	"testing"
	"time"

	"adriani/internal/model"
	"adriani/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Bloque{}, &model.Cliente{}, &model.Producto{},
		&model.Factura{}, &model.FacturaItem{},
		&model.Cuenta{}, &model.Pago{}, &model.PagoFactura{},
	))
	return db
}

var hoy = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func seedCliente(t *testing.T, db *gorm.DB) *model.Cliente {
	t.Helper()
	c := &model.Cliente{Nombre: "Bodega La Esquina", Documento: "J-" + uuid.NewString()[:8], Activo: true}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedFactura(t *testing.T, db *gorm.DB, clienteID uuid.UUID, numero int, estado model.EstadoFactura, despacho, vence time.Time, total int64) *model.Factura {
	t.Helper()
	f := &model.Factura{
		Numero:           numero,
		ClienteID:        clienteID,
		MontoTotal:       decimal.NewFromInt(total),
		Restante:         decimal.NewFromInt(total),
		Estado:           estado,
		FechaDespacho:    despacho,
		FechaVencimiento: vence,
	}
	require.NoError(t, db.Create(f).Error)
	return f
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) model.Factura {
	t.Helper()
	var f model.Factura
	require.NoError(t, db.First(&f, "id = ?", id).Error)
	return f
}

func TestAplicarAbonoTx_ParcialYLuegoPagado(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewFacturaRepository(db)
	c := seedCliente(t, db)
	f := seedFactura(t, db, c.ID, 1, model.EstadoPendiente, hoy.AddDate(0, 0, -2), hoy.AddDate(0, 0, 5), 100)

	require.NoError(t, repo.AplicarAbonoTx(db, f.ID, decimal.NewFromInt(60)))
	got := reload(t, db, f.ID)
	assert.True(t, got.Restante.Equal(decimal.NewFromInt(40)), "restante = %s", got.Restante)
	assert.Equal(t, model.EstadoPendiente, got.Estado)

	// Over-allocation clamps at zero.
	require.NoError(t, repo.AplicarAbonoTx(db, f.ID, decimal.NewFromInt(55)))
	got = reload(t, db, f.ID)
	assert.True(t, got.Restante.IsZero(), "restante = %s", got.Restante)
	assert.Equal(t, model.EstadoPagado, got.Estado)
}

func TestAplicarAbonoTx_CanceladaNoSeModifica(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewFacturaRepository(db)
	c := seedCliente(t, db)
	f := seedFactura(t, db, c.ID, 1, model.EstadoCancelada, hoy, hoy, 50)

	err := repo.AplicarAbonoTx(db, f.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.True(t, reload(t, db, f.ID).Restante.Equal(decimal.NewFromInt(50)))
}

func TestTransicionarEstados(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewFacturaRepository(db)
	c := seedCliente(t, db)

	aPendiente := seedFactura(t, db, c.ID, 1, model.EstadoCreada, hoy.AddDate(0, 0, -1), hoy.AddDate(0, 0, 1), 10)
	encadenada := seedFactura(t, db, c.ID, 2, model.EstadoCreada, hoy.AddDate(0, 0, -3), hoy.AddDate(0, 0, -1), 10)
	deHoy := seedFactura(t, db, c.ID, 3, model.EstadoCreada, hoy.Add(8*time.Hour), hoy.AddDate(0, 0, 7), 10)
	pagada := seedFactura(t, db, c.ID, 4, model.EstadoPagado, hoy.AddDate(0, 0, -30), hoy.AddDate(0, 0, -20), 10)
	cancelada := seedFactura(t, db, c.ID, 5, model.EstadoCancelada, hoy.AddDate(0, 0, -30), hoy.AddDate(0, 0, -20), 10)

	pendientes, vencidas, err := repo.TransicionarEstados(context.Background(), hoy)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pendientes)
	assert.Equal(t, int64(1), vencidas)

	assert.Equal(t, model.EstadoPendiente, reload(t, db, aPendiente.ID).Estado)
	assert.Equal(t, model.EstadoVencida, reload(t, db, encadenada.ID).Estado)
	assert.Equal(t, model.EstadoCreada, reload(t, db, deHoy.ID).Estado)
	assert.Equal(t, model.EstadoPagado, reload(t, db, pagada.ID).Estado)
	assert.Equal(t, model.EstadoCancelada, reload(t, db, cancelada.ID).Estado)

	// A second run on the same day changes nothing.
	pendientes, vencidas, err = repo.TransicionarEstados(context.Background(), hoy)
	require.NoError(t, err)
	assert.Zero(t, pendientes)
	assert.Zero(t, vencidas)
}

func TestCancelarTx_RespetaEstadosTerminales(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewFacturaRepository(db)
	c := seedCliente(t, db)
	abierta := seedFactura(t, db, c.ID, 1, model.EstadoPendiente, hoy, hoy, 10)
	pagada := seedFactura(t, db, c.ID, 2, model.EstadoPagado, hoy, hoy, 10)

	n, err := repo.CancelarTx(db, abierta.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, model.EstadoCancelada, reload(t, db, abierta.ID).Estado)

	n, err = repo.CancelarTx(db, pagada.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSiguienteNumeroTx(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewFacturaRepository(db)

	n, err := repo.SiguienteNumeroTx(db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	c := seedCliente(t, db)
	seedFactura(t, db, c.ID, 41, model.EstadoCreada, hoy, hoy, 10)
	n, err = repo.SiguienteNumeroTx(db)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestListAbiertasPorCliente_OrdenPorVencimiento(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewFacturaRepository(db)
	c := seedCliente(t, db)
	otro := seedCliente(t, db)

	tarde := seedFactura(t, db, c.ID, 1, model.EstadoPendiente, hoy, hoy.AddDate(0, 0, 10), 10)
	pronto := seedFactura(t, db, c.ID, 2, model.EstadoVencida, hoy, hoy.AddDate(0, 0, -2), 10)
	seedFactura(t, db, c.ID, 3, model.EstadoPagado, hoy, hoy.AddDate(0, 0, -9), 10)
	seedFactura(t, db, otro.ID, 4, model.EstadoPendiente, hoy, hoy.AddDate(0, 0, -9), 10)

	list, err := repo.ListAbiertasPorCliente(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, pronto.ID, list[0].ID)
	assert.Equal(t, tarde.ID, list[1].ID)
}

func TestTransicionarEstados_SinSaldoNoAvanza(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewFacturaRepository(db)
	c := seedCliente(t, db)

	creada := seedFactura(t, db, c.ID, 1, model.EstadoCreada, hoy.AddDate(0, 0, -10), hoy.AddDate(0, 0, -2), 0)
	pendiente := seedFactura(t, db, c.ID, 2, model.EstadoPendiente, hoy.AddDate(0, 0, -10), hoy.AddDate(0, 0, -2), 0)

	pendientes, vencidas, err := repo.TransicionarEstados(context.Background(), hoy)
	require.NoError(t, err)
	assert.Zero(t, pendientes)
	assert.Zero(t, vencidas)
	assert.Equal(t, model.EstadoCreada, reload(t, db, creada.ID).Estado)
	assert.Equal(t, model.EstadoPendiente, reload(t, db, pendiente.ID).Estado)
}
