package service_test

import (
	"context"
	"testing"
	"time"

	"adriani/internal/dto"
	"adriani/internal/model"
	"adriani/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type facturaFixture struct {
	svc         service.FacturaService
	facturas    *stubFacturaRepo
	clientes    *stubClienteRepo
	productos   *stubProductoRepo
	movimientos *stubMovimientoRepo
	errores     *stubErrorLogRepo
}

func buildFacturaSvc() facturaFixture {
	fx := facturaFixture{
		facturas:    newStubFacturaRepo(),
		clientes:    newStubClienteRepo(),
		productos:   newStubProductoRepo(),
		movimientos: &stubMovimientoRepo{},
		errores:     &stubErrorLogRepo{},
	}
	fx.facturas.clientes = fx.clientes
	fx.svc = service.NewFacturaService(fx.facturas, fx.clientes, fx.productos, fx.movimientos,
		service.NewErrorRecorder(fx.errores), time.UTC)
	return fx
}

func TestCrearFactura_CopiaPrecioYDescuentaStock(t *testing.T) {
	fx := buildFacturaSvc()
	c := seedCliente(fx.clientes, "Bodega La Esquina", "J123456789", nil)
	p := seedProducto(fx.productos, "CAF250", "Café 250g", "4.50", 10)

	resp, err := fx.svc.Crear(context.Background(), dto.CrearFacturaRequest{
		ClienteID:        c.ID.String(),
		FechaDespacho:    "2026-03-01",
		FechaVencimiento: "2026-03-15",
		Items: []dto.ItemFacturaRequest{
			{ProductoID: p.ID.String(), Cantidad: 3},
			{ProductoID: p.ID.String(), Cantidad: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Numero)
	assert.Equal(t, "Creada", resp.Estado)
	assert.True(t, dec("22.50").Equal(resp.MontoTotal))
	assert.True(t, resp.MontoTotal.Equal(resp.Restante))
	assert.Equal(t, "Café 250g", resp.Items[0].Producto)
	assert.Equal(t, 5, fx.productos.productos[p.ID].Stock)

	// Later price changes do not touch the stored line.
	fx.productos.productos[p.ID].Precio = dec("9.99")
	stored, err := fx.svc.ObtenerPorID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.True(t, dec("4.50").Equal(stored.Items[0].PrecioUnitario))

	require.Len(t, fx.movimientos.movimientos, 2)
	assert.Equal(t, 10, fx.movimientos.movimientos[0].StockAnterior)
	assert.Equal(t, 7, fx.movimientos.movimientos[0].StockNuevo)
	assert.Equal(t, 7, fx.movimientos.movimientos[1].StockAnterior)
	assert.Equal(t, 5, fx.movimientos.movimientos[1].StockNuevo)
	assert.Equal(t, "factura", fx.movimientos.movimientos[1].Tipo)
}

func TestCrearFactura_PermiteStockNegativo(t *testing.T) {
	fx := buildFacturaSvc()
	c := seedCliente(fx.clientes, "Abasto Central", "V12345678", nil)
	p := seedProducto(fx.productos, "CAF1K", "Café 1kg", "15", 1)

	_, err := fx.svc.Crear(context.Background(), dto.CrearFacturaRequest{
		ClienteID: c.ID.String(), FechaDespacho: "2026-03-01", FechaVencimiento: "2026-03-10",
		Items: []dto.ItemFacturaRequest{{ProductoID: p.ID.String(), Cantidad: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, -3, fx.productos.productos[p.ID].Stock)
}

func TestCrearFactura_Validaciones(t *testing.T) {
	fx := buildFacturaSvc()
	c := seedCliente(fx.clientes, "Cliente", "V11111111", nil)
	inactivo := seedCliente(fx.clientes, "Inactivo", "V22222222", nil)
	inactivo.Activo = false
	p := seedProducto(fx.productos, "CAF", "Café", "5", 10)
	apagado := seedProducto(fx.productos, "TE", "Té", "5", 10)
	apagado.Activo = false

	item := []dto.ItemFacturaRequest{{ProductoID: p.ID.String(), Cantidad: 1}}
	cases := []struct {
		name string
		req  dto.CrearFacturaRequest
		want error
	}{
		{"cliente inexistente", dto.CrearFacturaRequest{ClienteID: uuid.NewString(), FechaDespacho: "2026-03-01", FechaVencimiento: "2026-03-02", Items: item}, service.ErrNoEncontrado},
		{"cliente inactivo", dto.CrearFacturaRequest{ClienteID: inactivo.ID.String(), FechaDespacho: "2026-03-01", FechaVencimiento: "2026-03-02", Items: item}, service.ErrClienteInactivo},
		{"vence antes del despacho", dto.CrearFacturaRequest{ClienteID: c.ID.String(), FechaDespacho: "2026-03-05", FechaVencimiento: "2026-03-01", Items: item}, service.ErrDatoInvalido},
		{"producto inactivo", dto.CrearFacturaRequest{ClienteID: c.ID.String(), FechaDespacho: "2026-03-01", FechaVencimiento: "2026-03-02",
			Items: []dto.ItemFacturaRequest{{ProductoID: apagado.ID.String(), Cantidad: 1}}}, service.ErrProductoInactivo},
		{"fecha mal formada", dto.CrearFacturaRequest{ClienteID: c.ID.String(), FechaDespacho: "01/03/2026", FechaVencimiento: "2026-03-02", Items: item}, service.ErrDatoInvalido},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Crear(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, fx.facturas.facturas)
	assert.Equal(t, 10, fx.productos.productos[p.ID].Stock)
}

func TestCancelarFactura_RestauraStock(t *testing.T) {
	fx := buildFacturaSvc()
	c := seedCliente(fx.clientes, "Cliente", "V11111111", nil)
	p := seedProducto(fx.productos, "CAF", "Café", "5", 10)

	resp, err := fx.svc.Crear(context.Background(), dto.CrearFacturaRequest{
		ClienteID: c.ID.String(), FechaDespacho: "2026-03-01", FechaVencimiento: "2026-03-02",
		Items: []dto.ItemFacturaRequest{{ProductoID: p.ID.String(), Cantidad: 4}},
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, fx.svc.Cancelar(context.Background(), id))
	assert.Equal(t, model.EstadoCancelada, fx.facturas.facturas[id].Estado)
	assert.Equal(t, 10, fx.productos.productos[p.ID].Stock)
	last := fx.movimientos.movimientos[len(fx.movimientos.movimientos)-1]
	assert.Equal(t, "cancelacion_factura", last.Tipo)
	assert.Equal(t, 4, last.Cantidad)

	assert.ErrorIs(t, fx.svc.Cancelar(context.Background(), id), service.ErrFacturaCancelada)
}

func TestCancelarFactura_BloqueadaConPagosOPagada(t *testing.T) {
	fx := buildFacturaSvc()
	c := seedCliente(fx.clientes, "Cliente", "V11111111", nil)

	conPago := seedFactura(fx.facturas, c.ID, "50", model.EstadoPendiente, time.Now().AddDate(0, 0, 5))
	fx.facturas.asignaciones = append(fx.facturas.asignaciones, model.PagoFactura{
		ID: uuid.New(), PagoID: uuid.New(), FacturaID: conPago.ID, Monto: dec("10"),
	})
	assert.ErrorIs(t, fx.svc.Cancelar(context.Background(), conPago.ID), service.ErrFacturaConPagos)
	assert.Equal(t, model.EstadoPendiente, fx.facturas.facturas[conPago.ID].Estado)

	pagada := seedFactura(fx.facturas, c.ID, "50", model.EstadoPagado, time.Now())
	assert.ErrorIs(t, fx.svc.Cancelar(context.Background(), pagada.ID), service.ErrFacturaPagada)

	assert.ErrorIs(t, fx.svc.Cancelar(context.Background(), uuid.New()), service.ErrNoEncontrado)
	assert.Empty(t, fx.errores.logs, "rule violations are not logged as service errors")
}

func TestDesgloseFactura(t *testing.T) {
	fx := buildFacturaSvc()
	c := seedCliente(fx.clientes, "Cliente", "V11111111", nil)
	f := seedFactura(fx.facturas, c.ID, "100", model.EstadoPendiente, time.Now())
	f.Items = []model.FacturaItem{
		{ProductoID: uuid.New(), Cantidad: 2, PrecioUnitario: dec("30"), Subtotal: dec("60"), Producto: &model.Producto{Nombre: "A"}},
		{ProductoID: uuid.New(), Cantidad: 1, PrecioUnitario: dec("40"), Subtotal: dec("40"), Producto: &model.Producto{Nombre: "B"}},
	}
	f.Restante = dec("25")

	d, err := fx.svc.Desglose(context.Background(), f.ID)
	require.NoError(t, err)
	assert.True(t, dec("0.75").Equal(d.FraccionPagada))
	require.Len(t, d.Items, 2)
	assert.True(t, dec("2").Equal(d.Items[0].CantidadPagada))
	assert.True(t, dec("0.375").Equal(d.Items[1].CantidadPagada))
}

func TestActualizarEstados(t *testing.T) {
	fx := buildFacturaSvc()
	c := seedCliente(fx.clientes, "Cliente", "V11111111", nil)
	ayer := time.Now().AddDate(0, 0, -1)

	creada := seedFactura(fx.facturas, c.ID, "10", model.EstadoCreada, time.Now().AddDate(0, 0, 10))
	creada.FechaDespacho = ayer
	encadenada := seedFactura(fx.facturas, c.ID, "10", model.EstadoCreada, ayer)
	pagada := seedFactura(fx.facturas, c.ID, "10", model.EstadoPagado, ayer.AddDate(0, 0, -30))

	resp, err := fx.svc.ActualizarEstados(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Pendientes)
	assert.Equal(t, int64(1), resp.Vencidas)
	assert.Equal(t, model.EstadoPendiente, fx.facturas.facturas[creada.ID].Estado)
	assert.Equal(t, model.EstadoVencida, fx.facturas.facturas[encadenada.ID].Estado)
	assert.Equal(t, model.EstadoPagado, fx.facturas.facturas[pagada.ID].Estado)

	again, err := fx.svc.ActualizarEstados(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Pendientes)
	assert.Zero(t, again.Vencidas)
}

func TestListarFacturas_FiltroEstado(t *testing.T) {
	fx := buildFacturaSvc()
	c := seedCliente(fx.clientes, "Cliente", "V11111111", nil)
	seedFactura(fx.facturas, c.ID, "10", model.EstadoVencida, time.Now())
	seedFactura(fx.facturas, c.ID, "20", model.EstadoPendiente, time.Now())

	list, err := fx.svc.Listar(context.Background(), dto.FacturaFilter{Estado: "Vencida", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Cliente", list.Data[0].Cliente)

	_, err = fx.svc.Listar(context.Background(), dto.FacturaFilter{Estado: "Borrador"})
	assert.ErrorIs(t, err, service.ErrDatoInvalido)
}

func TestCrearFactura_TotalCeroNacePagada(t *testing.T) {
	fx := buildFacturaSvc()
	c := seedCliente(fx.clientes, "Cliente", "V11111111", nil)
	muestra := seedProducto(fx.productos, "MUESTRA", "Muestra gratis", "0", 10)

	resp, err := fx.svc.Crear(context.Background(), dto.CrearFacturaRequest{
		ClienteID: c.ID.String(), FechaDespacho: "2026-03-01", FechaVencimiento: "2026-03-10",
		Items: []dto.ItemFacturaRequest{{ProductoID: muestra.ID.String(), Cantidad: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pagado", resp.Estado)
	assert.True(t, resp.Restante.IsZero())

	// The sweep leaves it alone even though both dates are past.
	barrido, err := fx.svc.ActualizarEstados(context.Background())
	require.NoError(t, err)
	assert.Zero(t, barrido.Vencidas)
	assert.Equal(t, model.EstadoPagado, fx.facturas.facturas[uuid.MustParse(resp.ID)].Estado)
}
