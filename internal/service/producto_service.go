package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"adriani/internal/dto"
	"adriani/internal/infra"
	"adriani/internal/model"
	"adriani/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	ObtenerPorCodigo(ctx context.Context, codigo string) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
	// ImportarExcel upserts products by codigo. A stock column, when present,
	// sets the absolute stock and records the difference as an "importacion"
	// movement.
	ImportarExcel(ctx context.Context, r io.Reader) (*dto.ImportResponse, error)
	ExportarExcel(ctx context.Context) ([]byte, error)
}

type productoService struct {
	repo        repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	rec         ErrorRecorder
}

func NewProductoService(repo repository.ProductoRepository, movimientos repository.MovimientoStockRepository, rec ErrorRecorder) ProductoService {
	return &productoService{repo: repo, movimientos: movimientos, rec: rec}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if req.Precio.IsNegative() {
		return nil, fmt.Errorf("%w: el precio no puede ser negativo", ErrDatoInvalido)
	}
	codigo := strings.ToUpper(strings.TrimSpace(req.Codigo))
	if _, err := s.repo.FindByCodigo(ctx, codigo); err == nil {
		return nil, ErrDuplicado
	}

	p := &model.Producto{
		Codigo:      codigo,
		Nombre:      strings.TrimSpace(req.Nombre),
		Descripcion: req.Descripcion,
		Precio:      req.Precio.Round(2),
		Stock:       req.Stock,
		StockMinimo: req.StockMinimo,
		Activo:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		registrar(ctx, s.rec, "productos", err)
		return nil, err
	}
	if p.Stock != 0 {
		s.registrarMovimiento(ctx, &model.MovimientoStock{
			ProductoID: p.ID, Tipo: "ajuste_manual", Cantidad: p.Stock,
			StockAnterior: 0, StockNuevo: p.Stock, Motivo: "stock inicial",
		})
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err)
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) ObtenerPorCodigo(ctx context.Context, codigo string) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByCodigo(ctx, strings.ToUpper(strings.TrimSpace(codigo)))
	if err != nil {
		return nil, noEncontrado(err)
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductoResponse, len(productos))
	for i := range productos {
		data[i] = productoToResponse(&productos[i])
	}
	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(filter.Limit)))
	}
	return &dto.ProductoListResponse{
		Data: data, Total: total, Page: filter.Page, Limit: filter.Limit, TotalPages: totalPages,
	}, nil
}

// Actualizar changes catalog fields. Stock is only modified through
// inventory adjustments, invoices and imports.
func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err)
	}
	if req.Nombre != nil {
		p.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Descripcion != nil {
		p.Descripcion = textoOpcional(*req.Descripcion)
	}
	if req.Precio != nil {
		if req.Precio.IsNegative() {
			return nil, fmt.Errorf("%w: el precio no puede ser negativo", ErrDatoInvalido)
		}
		p.Precio = req.Precio.Round(2)
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if err := s.repo.Update(ctx, p); err != nil {
		registrar(ctx, s.rec, "productos", err)
		return nil, err
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return noEncontrado(err)
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *productoService) Reactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return noEncontrado(err)
	}
	return s.repo.Reactivar(ctx, id)
}

func (s *productoService) registrarMovimiento(ctx context.Context, m *model.MovimientoStock) {
	if s.movimientos == nil {
		return
	}
	if err := s.movimientos.Create(ctx, m); err != nil {
		registrar(ctx, s.rec, "inventario", fmt.Errorf("movimiento de stock %s: %w", m.ProductoID, err))
	}
}

var columnasProducto = []string{"codigo", "nombre", "descripcion", "precio", "stock", "stock_minimo"}

func (s *productoService) ImportarExcel(ctx context.Context, r io.Reader) (*dto.ImportResponse, error) {
	rows, err := infra.LeerHoja(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchivoInvalido, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: la hoja está vacía", ErrArchivoInvalido)
	}
	col := indiceColumnas(rows[0])
	for _, req := range []string{"codigo", "nombre", "precio"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("%w: falta la columna %q", ErrArchivoInvalido, req)
		}
	}
	_, tieneStock := col["stock"]

	resp := &dto.ImportResponse{Errores: []dto.ImportErrorRow{}}
	for i, row := range rows[1:] {
		fila := i + 2
		if filaVacia(row) {
			continue
		}
		resp.TotalFilas++
		celda := func(nombre string) string { return celdaPorNombre(row, col, nombre) }
		fallo := func(motivo string) {
			resp.Errores = append(resp.Errores, dto.ImportErrorRow{Fila: fila, Motivo: motivo})
		}

		codigo := strings.ToUpper(celda("codigo"))
		nombre := celda("nombre")
		if codigo == "" || nombre == "" {
			fallo("codigo y nombre son obligatorios")
			continue
		}
		precio, err := decimal.NewFromString(strings.ReplaceAll(celda("precio"), ",", "."))
		if err != nil || precio.IsNegative() {
			fallo("precio inválido: " + celda("precio"))
			continue
		}
		stock, okStock := 0, false
		if tieneStock && celda("stock") != "" {
			stock, err = strconv.Atoi(celda("stock"))
			if err != nil {
				fallo("stock inválido: " + celda("stock"))
				continue
			}
			okStock = true
		}
		minimo := -1
		if v := celda("stock_minimo"); v != "" {
			if minimo, err = strconv.Atoi(v); err != nil || minimo < 0 {
				fallo("stock_minimo inválido: " + v)
				continue
			}
		}

		existente, err := s.repo.FindByCodigo(ctx, codigo)
		if err != nil {
			p := &model.Producto{
				Codigo:      codigo,
				Nombre:      nombre,
				Descripcion: textoOpcional(celda("descripcion")),
				Precio:      precio.Round(2),
				Stock:       stock,
				StockMinimo: 5,
				Activo:      true,
			}
			if minimo >= 0 {
				p.StockMinimo = minimo
			}
			if err := s.repo.Create(ctx, p); err != nil {
				fallo(err.Error())
				continue
			}
			if stock != 0 {
				s.registrarMovimiento(ctx, &model.MovimientoStock{
					ProductoID: p.ID, Tipo: "importacion", Cantidad: stock,
					StockAnterior: 0, StockNuevo: stock, Motivo: "importación Excel",
				})
			}
			resp.Importados++
			continue
		}

		existente.Nombre = nombre
		if d := textoOpcional(celda("descripcion")); d != nil {
			existente.Descripcion = d
		}
		existente.Precio = precio.Round(2)
		if minimo >= 0 {
			existente.StockMinimo = minimo
		}
		existente.Activo = true
		if err := s.actualizarImportado(ctx, existente, stock, okStock); err != nil {
			fallo(err.Error())
			continue
		}
		resp.Actualizados++
	}

	if len(resp.Errores) > 0 {
		registrar(ctx, s.rec, "productos", fmt.Errorf("importación de productos: %d filas con error", len(resp.Errores)))
	}
	return resp, nil
}

// actualizarImportado saves catalog fields and, when the sheet carries a
// stock value, moves the stock to it with a matching movement.
func (s *productoService) actualizarImportado(ctx context.Context, p *model.Producto, stock int, conStock bool) error {
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	if !conStock {
		return nil
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		actual, err := s.repo.FindByIDTx(tx, p.ID)
		if err != nil {
			return err
		}
		delta := stock - actual.Stock
		if delta == 0 {
			return nil
		}
		if err := s.repo.UpdateStockTx(tx, p.ID, delta); err != nil {
			return err
		}
		p.Stock = stock
		return s.movimientos.CreateTx(tx, &model.MovimientoStock{
			ProductoID: p.ID, Tipo: "importacion", Cantidad: delta,
			StockAnterior: actual.Stock, StockNuevo: stock, Motivo: "importación Excel",
		})
	})
}

func (s *productoService) ExportarExcel(ctx context.Context) ([]byte, error) {
	productos, _, err := s.repo.List(ctx, dto.ProductoFilter{Activo: "all", Page: 1, Limit: 100000})
	if err != nil {
		return nil, err
	}
	filas := make([][]interface{}, len(productos))
	for i, p := range productos {
		precio, _ := p.Precio.Float64()
		filas[i] = []interface{}{p.Codigo, p.Nombre, deref(p.Descripcion), precio, p.Stock, p.StockMinimo}
	}
	return infra.EscribirLibro(infra.HojaExcel{Nombre: "Productos", Encabezado: columnasProducto, Filas: filas})
}
