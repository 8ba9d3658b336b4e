package service

import (
	"context"
	"fmt"
	"time"

	"adriani/internal/conciliacion"
	"adriani/internal/dto"
	"adriani/internal/model"
	"adriani/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FacturaService interface {
	Crear(ctx context.Context, req dto.CrearFacturaRequest) (*dto.FacturaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error)
	Listar(ctx context.Context, filter dto.FacturaFilter) (*dto.FacturaListResponse, error)
	Cancelar(ctx context.Context, id uuid.UUID) error
	Desglose(ctx context.Context, id uuid.UUID) (*dto.DesgloseFacturaResponse, error)
	// ActualizarEstados runs the daily status sweep against the start of
	// today in the configured time zone.
	ActualizarEstados(ctx context.Context) (*dto.BarridoEstadosResponse, error)
}

type facturaService struct {
	repo        repository.FacturaRepository
	clientes    repository.ClienteRepository
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	rec         ErrorRecorder
	loc         *time.Location
	now         func() time.Time
}

func NewFacturaService(
	repo repository.FacturaRepository,
	clientes repository.ClienteRepository,
	productos repository.ProductoRepository,
	movimientos repository.MovimientoStockRepository,
	rec ErrorRecorder,
	loc *time.Location,
) FacturaService {
	if loc == nil {
		loc = time.UTC
	}
	return &facturaService{
		repo:        repo,
		clientes:    clientes,
		productos:   productos,
		movimientos: movimientos,
		rec:         rec,
		loc:         loc,
		now:         time.Now,
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────
//   1. Validate client, dates and products (outside TX)
//   2. BEGIN TX: next numero, insert factura+items, decrement stock, record movements
//   3. COMMIT

func (s *facturaService) Crear(ctx context.Context, req dto.CrearFacturaRequest) (*dto.FacturaResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, fmt.Errorf("%w: cliente_id", ErrDatoInvalido)
	}
	cliente, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, fmt.Errorf("cliente: %w", noEncontrado(err))
	}
	if !cliente.Activo {
		return nil, ErrClienteInactivo
	}

	despacho, err := parseFecha(req.FechaDespacho, s.loc)
	if err != nil {
		return nil, err
	}
	vencimiento, err := parseFecha(req.FechaVencimiento, s.loc)
	if err != nil {
		return nil, err
	}
	if vencimiento.Before(despacho) {
		return nil, fmt.Errorf("%w: la fecha de vencimiento es anterior al despacho", ErrDatoInvalido)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: la factura necesita al menos un item", ErrDatoInvalido)
	}

	items := make([]model.FacturaItem, 0, len(req.Items))
	nombres := make(map[uuid.UUID]string, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("%w: producto_id %s", ErrDatoInvalido, it.ProductoID)
		}
		if it.Cantidad <= 0 {
			return nil, fmt.Errorf("%w: cantidad debe ser mayor a 0", ErrDatoInvalido)
		}
		p, err := s.productos.FindByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("producto %s: %w", it.ProductoID, noEncontrado(err))
		}
		if !p.Activo {
			return nil, fmt.Errorf("%w: %s", ErrProductoInactivo, p.Nombre)
		}
		subtotal := p.Precio.Mul(decimal.NewFromInt(int64(it.Cantidad))).Round(2)
		items = append(items, model.FacturaItem{
			ProductoID:     pid,
			Cantidad:       it.Cantidad,
			PrecioUnitario: p.Precio,
			Subtotal:       subtotal,
		})
		nombres[pid] = p.Nombre
		total = total.Add(subtotal)
	}

	// Nothing to collect on a zero total, so it is born paid.
	estado := model.EstadoCreada
	if total.IsZero() {
		estado = model.EstadoPagado
	}
	f := model.Factura{
		ClienteID:        clienteID,
		MontoTotal:       total,
		Restante:         total,
		Estado:           estado,
		FechaDespacho:    despacho,
		FechaVencimiento: vencimiento,
		Observaciones:    req.Observaciones,
		Items:            items,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		numero, err := s.repo.SiguienteNumeroTx(tx)
		if err != nil {
			return err
		}
		f.Numero = numero
		if err := s.repo.CreateTx(tx, &f); err != nil {
			return err
		}

		// The same product may appear on several lines; track its running stock.
		stock := make(map[uuid.UUID]int)
		for _, it := range f.Items {
			antes, ok := stock[it.ProductoID]
			if !ok {
				p, err := s.productos.FindByIDTx(tx, it.ProductoID)
				if err != nil {
					return fmt.Errorf("producto %s: %w", it.ProductoID, noEncontrado(err))
				}
				antes = p.Stock
			}
			if err := s.productos.UpdateStockTx(tx, it.ProductoID, -it.Cantidad); err != nil {
				return fmt.Errorf("descontando stock de %s: %w", nombres[it.ProductoID], err)
			}
			stock[it.ProductoID] = antes - it.Cantidad

			ref := f.ID
			if err := s.movimientos.CreateTx(tx, &model.MovimientoStock{
				ProductoID:    it.ProductoID,
				Tipo:          "factura",
				Cantidad:      -it.Cantidad,
				StockAnterior: antes,
				StockNuevo:    antes - it.Cantidad,
				Motivo:        fmt.Sprintf("Factura #%d", f.Numero),
				ReferenciaID:  &ref,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		if !esErrorDeNegocio(txErr) {
			registrar(ctx, s.rec, "facturas", txErr)
		}
		return nil, txErr
	}

	log.Info().Int("numero", f.Numero).Str("cliente", cliente.Nombre).
		Str("total", f.MontoTotal.StringFixed(2)).Msg("factura creada")

	f.Cliente = cliente
	for i := range f.Items {
		f.Items[i].Producto = &model.Producto{ID: f.Items[i].ProductoID, Nombre: nombres[f.Items[i].ProductoID]}
	}
	resp := facturaToResponse(&f, s.loc)
	return &resp, nil
}

func (s *facturaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err)
	}
	resp := facturaToResponse(f, s.loc)
	return &resp, nil
}

func (s *facturaService) Listar(ctx context.Context, filter dto.FacturaFilter) (*dto.FacturaListResponse, error) {
	clienteID, err := parseUUIDOpcional(filter.ClienteID, "cliente_id")
	if err != nil {
		return nil, err
	}
	estado := model.EstadoFactura(filter.Estado)
	if estado != "" && !estado.Valido() {
		return nil, fmt.Errorf("%w: estado %q", ErrDatoInvalido, filter.Estado)
	}
	desde, hasta, err := rangoFechas(filter.Desde, filter.Hasta, s.loc)
	if err != nil {
		return nil, err
	}

	facturas, total, err := s.repo.List(ctx, repository.FacturaFilter{
		ClienteID: clienteID,
		Estado:    estado,
		Desde:     desde,
		Hasta:     hasta,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	data := make([]dto.FacturaResponse, len(facturas))
	for i := range facturas {
		data[i] = facturaToResponse(&facturas[i], s.loc)
	}
	return &dto.FacturaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Cancelar moves the invoice to Cancelada and puts its items back in stock.
// Invoices with allocated payments, or already Pagado, cannot be cancelled.
func (s *facturaService) Cancelar(ctx context.Context, id uuid.UUID) error {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err)
	}
	switch f.Estado {
	case model.EstadoCancelada:
		return ErrFacturaCancelada
	case model.EstadoPagado:
		return ErrFacturaPagada
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		n, err := s.repo.ContarAsignacionesTx(tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrFacturaConPagos
		}
		changed, err := s.repo.CancelarTx(tx, id)
		if err != nil {
			return err
		}
		if changed == 0 {
			// Paid or cancelled by someone else since the read above.
			return ErrFacturaPagada
		}

		stock := make(map[uuid.UUID]int)
		for _, it := range f.Items {
			antes, ok := stock[it.ProductoID]
			if !ok {
				p, err := s.productos.FindByIDTx(tx, it.ProductoID)
				if err != nil {
					return fmt.Errorf("producto %s: %w", it.ProductoID, noEncontrado(err))
				}
				antes = p.Stock
			}
			if err := s.productos.UpdateStockTx(tx, it.ProductoID, it.Cantidad); err != nil {
				return err
			}
			stock[it.ProductoID] = antes + it.Cantidad

			ref := f.ID
			if err := s.movimientos.CreateTx(tx, &model.MovimientoStock{
				ProductoID:    it.ProductoID,
				Tipo:          "cancelacion_factura",
				Cantidad:      it.Cantidad,
				StockAnterior: antes,
				StockNuevo:    antes + it.Cantidad,
				Motivo:        fmt.Sprintf("Cancelación factura #%d", f.Numero),
				ReferenciaID:  &ref,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		if !esErrorDeNegocio(txErr) {
			registrar(ctx, s.rec, "facturas", txErr)
		}
		return txErr
	}
	log.Info().Int("numero", f.Numero).Msg("factura cancelada")
	return nil
}

func (s *facturaService) Desglose(ctx context.Context, id uuid.UUID) (*dto.DesgloseFacturaResponse, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err)
	}
	d := conciliacion.Desglosar(f)
	resp := &dto.DesgloseFacturaResponse{
		FacturaID:      d.FacturaID.String(),
		MontoTotal:     d.MontoTotal,
		Restante:       d.Restante,
		FraccionPagada: d.FraccionPagada.Round(4),
		Items:          make([]dto.ItemDesgloseResponse, len(d.Items)),
	}
	for i, it := range d.Items {
		resp.Items[i] = dto.ItemDesgloseResponse{
			ProductoID:        it.ProductoID.String(),
			Producto:          it.Producto,
			Cantidad:          it.Cantidad,
			PrecioUnitario:    it.PrecioUnitario,
			CantidadPagada:    it.CantidadPagada,
			CantidadPendiente: it.CantidadPendiente,
			MontoPagado:       it.MontoPagado,
		}
	}
	return resp, nil
}

func (s *facturaService) ActualizarEstados(ctx context.Context) (*dto.BarridoEstadosResponse, error) {
	hoy := model.InicioDelDia(s.now().In(s.loc))
	pendientes, vencidas, err := s.repo.TransicionarEstados(ctx, hoy)
	if err != nil {
		registrar(ctx, s.rec, "facturas", fmt.Errorf("barrido de estados: %w", err))
		return nil, err
	}
	log.Info().Int64("pendientes", pendientes).Int64("vencidas", vencidas).
		Time("inicio_dia", hoy).Msg("facturas: barrido de estados")
	return &dto.BarridoEstadosResponse{Pendientes: pendientes, Vencidas: vencidas}, nil
}
