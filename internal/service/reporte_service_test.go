package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"adriani/internal/dto"
	"adriani/internal/infra"
	"adriani/internal/model"
	"adriani/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reporteFixture struct {
	svc      service.ReporteService
	facturas *stubFacturaRepo
	pagos    *stubPagoRepo
	clientes *stubClienteRepo
	cuentas  *stubCuentaRepo
	cola     *stubEncolador
}

func buildReporteSvc() *reporteFixture {
	fx := &reporteFixture{
		facturas: newStubFacturaRepo(),
		clientes: newStubClienteRepo(),
		cuentas:  newStubCuentaRepo(),
		cola:     &stubEncolador{},
	}
	fx.pagos = newStubPagoRepo(fx.facturas, fx.cuentas)
	fx.svc = service.NewReporteService(fx.facturas, fx.pagos, fx.clientes, fx.cuentas, fx.cola, nil, "Café Adriani", time.UTC)
	return fx
}

func marzo(dia int) time.Time { return time.Date(2026, 3, dia, 12, 0, 0, 0, time.UTC) }

// seedMarzo leaves three invoices dispatched in March 2026 and one in April.
func (fx *reporteFixture) seedMarzo() (*model.Cliente, *model.Cuenta) {
	c := seedCliente(fx.clientes, "Ana", "V1", ptr("584141111111"))
	cuenta := seedCuenta(fx.cuentas, "Zelle", model.MonedaUSD)

	abierta := seedFactura(fx.facturas, c.ID, "100", model.EstadoPendiente, marzo(12))
	abierta.Restante = dec("40")
	seedFactura(fx.facturas, c.ID, "50", model.EstadoCancelada, marzo(20))
	pagada := seedFactura(fx.facturas, c.ID, "30", model.EstadoPagado, marzo(25))
	pagada.Restante = dec("0")
	seedFactura(fx.facturas, c.ID, "70", model.EstadoCreada, marzo(30).AddDate(0, 0, 21))

	for _, p := range []*model.Pago{
		{ID: uuid.New(), ClienteID: c.ID, CuentaID: cuenta.ID, Monto: dec("90"), MontoUSD: dec("90"), Moneda: model.MonedaUSD, Fecha: marzo(15)},
		{ID: uuid.New(), ClienteID: c.ID, CuentaID: cuenta.ID, Monto: dec("10"), MontoUSD: dec("10"), Moneda: model.MonedaUSD, Fecha: marzo(1).AddDate(0, -1, 0)},
	} {
		fx.pagos.pagos[p.ID] = p
	}
	return c, cuenta
}

var periodoMarzo = dto.ReporteFilter{Desde: "2026-03-01", Hasta: "2026-03-31"}

func TestReporteFinanciero(t *testing.T) {
	fx := buildReporteSvc()
	fx.seedMarzo()

	r, err := fx.svc.Financiero(context.Background(), periodoMarzo)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01", r.Desde)
	assert.Equal(t, "2026-03-31", r.Hasta)
	assert.Equal(t, 3, r.Facturas)
	assert.Equal(t, map[string]int{"Pendiente": 1, "Cancelada": 1, "Pagado": 1}, r.PorEstado)
	assert.True(t, dec("130").Equal(r.TotalFacturado), "cancelled invoices are not billed")
	assert.True(t, dec("40").Equal(r.TotalPendiente))
	assert.True(t, dec("90").Equal(r.TotalCobrado))
	require.Len(t, r.PorCuenta, 1)
	assert.Equal(t, "Zelle", r.PorCuenta[0].Cuenta)
	assert.Equal(t, 1, r.PorCuenta[0].Pagos)
}

func TestReporteFinanciero_PeriodoInvalido(t *testing.T) {
	fx := buildReporteSvc()
	_, err := fx.svc.Financiero(context.Background(), dto.ReporteFilter{Desde: "2026-03-31", Hasta: "2026-03-01"})
	assert.ErrorIs(t, err, service.ErrDatoInvalido)

	_, err = fx.svc.Financiero(context.Background(), dto.ReporteFilter{Desde: "31/03/2026"})
	assert.ErrorIs(t, err, service.ErrDatoInvalido)
}

func TestReporteFinancieroExcelYPDF(t *testing.T) {
	fx := buildReporteSvc()
	fx.seedMarzo()

	raw, err := fx.svc.FinancieroExcel(context.Background(), periodoMarzo)
	require.NoError(t, err)
	rows, err := infra.LeerHoja(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"concepto", "valor"}, rows[0])
	assert.Equal(t, []string{"facturado", "130"}, rows[4])

	pdf, err := fx.svc.FinancieroPDF(context.Background(), periodoMarzo)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestReporteEstadoCuenta(t *testing.T) {
	fx := buildReporteSvc()
	c, _ := fx.seedMarzo()

	ec, err := fx.svc.EstadoCuenta(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, dec("110").Equal(ec.TotalDeuda), "open invoices only: 40 pending plus 70 created")
	assert.Len(t, ec.Facturas, 2)

	_, err = fx.svc.EstadoCuenta(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestEnviarEstadoCuenta(t *testing.T) {
	fx := buildReporteSvc()
	c, _ := fx.seedMarzo()

	err := fx.svc.EnviarEstadoCuenta(context.Background(), c.ID, dto.EnviarEstadoCuentaRequest{})
	assert.ErrorIs(t, err, service.ErrSinEmail)
	assert.Empty(t, fx.cola.emails)

	err = fx.svc.EnviarEstadoCuenta(context.Background(), c.ID, dto.EnviarEstadoCuentaRequest{Email: ptr("ana@example.com")})
	require.NoError(t, err)
	require.Len(t, fx.cola.emails, 1)
	job := fx.cola.emails[0]
	assert.Equal(t, "ana@example.com", job.ToEmail)
	assert.Equal(t, "estado-cuenta-V1.pdf", job.NombreArchivo)
	assert.Contains(t, job.Body, "$110.00")
	assert.True(t, bytes.HasPrefix(job.PDF, []byte("%PDF")))
}

func TestFacturaPDF(t *testing.T) {
	fx := buildReporteSvc()
	c := seedCliente(fx.clientes, "Ana", "V1", nil)
	f := seedFactura(fx.facturas, c.ID, "12.50", model.EstadoPendiente, marzo(10))

	pdf, numero, err := fx.svc.FacturaPDF(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Numero, numero)
	assert.NotEmpty(t, pdf)

	_, _, err = fx.svc.FacturaPDF(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}
