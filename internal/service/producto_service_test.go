package service_test

import (
	"bytes"
	"context"
	"testing"

	"adriani/internal/dto"
	"adriani/internal/infra"
	"adriani/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductoCrear(t *testing.T) {
	repo := newStubProductoRepo()
	movs := &stubMovimientoRepo{}
	svc := service.NewProductoService(repo, movs, nil)

	resp, err := svc.Crear(context.Background(), dto.CrearProductoRequest{
		Codigo: " caf-250 ", Nombre: "Café 250g", Precio: dec("3.456"), Stock: 12, StockMinimo: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "CAF-250", resp.Codigo)
	assert.True(t, dec("3.46").Equal(resp.Precio))
	require.Len(t, movs.movimientos, 1)
	assert.Equal(t, "ajuste_manual", movs.movimientos[0].Tipo)
	assert.Equal(t, 12, movs.movimientos[0].StockNuevo)

	_, err = svc.Crear(context.Background(), dto.CrearProductoRequest{Codigo: "CAF-250", Nombre: "Otro", Precio: dec("1")})
	assert.ErrorIs(t, err, service.ErrDuplicado)

	_, err = svc.Crear(context.Background(), dto.CrearProductoRequest{Codigo: "NEG", Nombre: "Negativo", Precio: dec("-1")})
	assert.ErrorIs(t, err, service.ErrDatoInvalido)
}

func TestProductoActualizar_NoTocaElStock(t *testing.T) {
	repo := newStubProductoRepo()
	svc := service.NewProductoService(repo, &stubMovimientoRepo{}, nil)
	p := seedProducto(repo, "CAF-1", "Café", "5", 10)

	resp, err := svc.Actualizar(context.Background(), p.ID, dto.ActualizarProductoRequest{
		Nombre: ptr("Café molido"), Precio: ptr(dec("6.5")),
	})
	require.NoError(t, err)
	assert.Equal(t, "Café molido", resp.Nombre)
	assert.True(t, dec("6.5").Equal(resp.Precio))
	assert.Equal(t, 10, resp.Stock)

	_, err = svc.Actualizar(context.Background(), uuid.New(), dto.ActualizarProductoRequest{})
	assert.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestProductoDesactivarYReactivar(t *testing.T) {
	repo := newStubProductoRepo()
	svc := service.NewProductoService(repo, nil, nil)
	p := seedProducto(repo, "CAF-1", "Café", "5", 10)

	require.NoError(t, svc.Desactivar(context.Background(), p.ID))
	assert.False(t, repo.productos[p.ID].Activo)
	require.NoError(t, svc.Reactivar(context.Background(), p.ID))
	assert.True(t, repo.productos[p.ID].Activo)
}

func TestProductoImportarExcel(t *testing.T) {
	repo := newStubProductoRepo()
	movs := &stubMovimientoRepo{}
	svc := service.NewProductoService(repo, movs, nil)
	existente := seedProducto(repo, "CAF-1", "Café", "5", 10)

	raw, err := infra.EscribirLibro(infra.HojaExcel{
		Nombre:     "Productos",
		Encabezado: []string{"codigo", "nombre", "precio", "stock", "stock_minimo"},
		Filas: [][]interface{}{
			{"caf-1", "Café premium", "7,25", "4", ""},
			{"AZU-1", "Azúcar", "2.10", "30", "10"},
			{"MAL-1", "Sin precio", "abc", "", ""},
			{"MAL-2", "Stock malo", "1", "muchos", ""},
		},
	})
	require.NoError(t, err)

	resp, err := svc.ImportarExcel(context.Background(), bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 4, resp.TotalFilas)
	assert.Equal(t, 1, resp.Importados)
	assert.Equal(t, 1, resp.Actualizados)
	require.Len(t, resp.Errores, 2)

	actualizado := repo.productos[existente.ID]
	assert.Equal(t, "Café premium", actualizado.Nombre)
	assert.True(t, dec("7.25").Equal(actualizado.Precio))
	assert.Equal(t, 4, actualizado.Stock)

	var delta []int
	for _, m := range movs.movimientos {
		assert.Equal(t, "importacion", m.Tipo)
		delta = append(delta, m.Cantidad)
	}
	assert.ElementsMatch(t, []int{-6, 30}, delta)
}

func TestInventarioAjustarStock(t *testing.T) {
	repo := newStubProductoRepo()
	movs := &stubMovimientoRepo{}
	svc := service.NewInventarioService(repo, movs, nil)
	p := seedProducto(repo, "CAF-1", "Café", "5", 3)

	resp, err := svc.AjustarStock(context.Background(), p.ID, dto.AjustarStockRequest{Delta: -5, Motivo: "merma"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.StockAnterior)
	assert.Equal(t, -2, resp.StockNuevo)
	assert.Equal(t, -2, repo.productos[p.ID].Stock)

	_, err = svc.AjustarStock(context.Background(), p.ID, dto.AjustarStockRequest{Delta: 0, Motivo: "nada"})
	assert.ErrorIs(t, err, service.ErrDatoInvalido)

	_, err = svc.AjustarStock(context.Background(), uuid.New(), dto.AjustarStockRequest{Delta: 1, Motivo: "x"})
	assert.ErrorIs(t, err, service.ErrNoEncontrado)

	repo.productos[p.ID].Activo = false
	_, err = svc.AjustarStock(context.Background(), p.ID, dto.AjustarStockRequest{Delta: 1, Motivo: "x"})
	assert.ErrorIs(t, err, service.ErrProductoInactivo)
}

func TestInventarioAlertasYMovimientos(t *testing.T) {
	repo := newStubProductoRepo()
	movs := &stubMovimientoRepo{}
	svc := service.NewInventarioService(repo, movs, nil)
	bajo := seedProducto(repo, "CAF-1", "Café", "5", 2)
	seedProducto(repo, "AZU-1", "Azúcar", "2", 50)

	alertas, err := svc.ObtenerAlertas(context.Background())
	require.NoError(t, err)
	require.Len(t, alertas, 1)
	assert.Equal(t, bajo.ID.String(), alertas[0].ProductoID)

	_, err = svc.AjustarStock(context.Background(), bajo.ID, dto.AjustarStockRequest{Delta: 10, Motivo: "compra"})
	require.NoError(t, err)

	list, err := svc.ListarMovimientos(context.Background(), dto.MovimientoStockFilter{ProductoID: bajo.ID.String(), Page: 1, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	_, err = svc.ListarMovimientos(context.Background(), dto.MovimientoStockFilter{ProductoID: "x"})
	assert.ErrorIs(t, err, service.ErrDatoInvalido)
}
