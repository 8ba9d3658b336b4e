package service

import (
	"context"
	"fmt"
	"time"

	"adriani/internal/conciliacion"
	"adriani/internal/dto"
	"adriani/internal/infra"
	"adriani/internal/model"
	"adriani/internal/repository"
	"adriani/internal/worker"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type ReporteService interface {
	Financiero(ctx context.Context, filter dto.ReporteFilter) (*dto.ReporteFinancieroResponse, error)
	Productos(ctx context.Context, filter dto.ReporteFilter) ([]dto.ResumenProductoResponse, error)
	FinancieroPDF(ctx context.Context, filter dto.ReporteFilter) ([]byte, error)
	FinancieroExcel(ctx context.Context, filter dto.ReporteFilter) ([]byte, error)
	FacturaPDF(ctx context.Context, id uuid.UUID) ([]byte, int, error)
	EstadoCuenta(ctx context.Context, clienteID uuid.UUID) (*dto.EstadoCuentaResponse, error)
	EstadoCuentaPDF(ctx context.Context, clienteID uuid.UUID) ([]byte, error)
	// EnviarEstadoCuenta queues an email with the statement PDF. The address
	// in req overrides the one on file.
	EnviarEstadoCuenta(ctx context.Context, clienteID uuid.UUID, req dto.EnviarEstadoCuentaRequest) error
}

type reporteService struct {
	facturas repository.FacturaRepository
	pagos    repository.PagoRepository
	clientes repository.ClienteRepository
	cuentas  repository.CuentaRepository
	cola     Encolador
	rec      ErrorRecorder
	empresa  string
	loc      *time.Location
	now      func() time.Time
}

func NewReporteService(
	facturas repository.FacturaRepository,
	pagos repository.PagoRepository,
	clientes repository.ClienteRepository,
	cuentas repository.CuentaRepository,
	cola Encolador,
	rec ErrorRecorder,
	empresa string,
	loc *time.Location,
) ReporteService {
	if loc == nil {
		loc = time.UTC
	}
	return &reporteService{
		facturas: facturas, pagos: pagos, clientes: clientes, cuentas: cuentas,
		cola: cola, rec: rec, empresa: empresa, loc: loc, now: time.Now,
	}
}

// periodo resolves the report range. Missing bounds default to the first
// day of the current month and today, both inclusive.
func (s *reporteService) periodo(filter dto.ReporteFilter) (desde, hasta time.Time, err error) {
	hoy := model.InicioDelDia(s.now().In(s.loc))
	if filter.Desde == "" {
		filter.Desde = time.Date(hoy.Year(), hoy.Month(), 1, 0, 0, 0, 0, s.loc).Format(formatoFecha)
	}
	if filter.Hasta == "" {
		filter.Hasta = hoy.Format(formatoFecha)
	}
	d, h, err := rangoFechas(filter.Desde, filter.Hasta, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !d.Before(*h) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: desde es posterior a hasta", ErrDatoInvalido)
	}
	return *d, *h, nil
}

func (s *reporteService) Financiero(ctx context.Context, filter dto.ReporteFilter) (*dto.ReporteFinancieroResponse, error) {
	desde, hasta, err := s.periodo(filter)
	if err != nil {
		return nil, err
	}
	facturas, err := s.facturas.ListConItems(ctx, desde, hasta)
	if err != nil {
		registrar(ctx, s.rec, "reportes", err)
		return nil, err
	}
	cobros, err := s.pagos.TotalesPorCuenta(ctx, desde, hasta)
	if err != nil {
		registrar(ctx, s.rec, "reportes", err)
		return nil, err
	}

	resp := &dto.ReporteFinancieroResponse{
		Desde:          desde.Format(formatoFecha),
		Hasta:          hasta.AddDate(0, 0, -1).Format(formatoFecha),
		TotalFacturado: decimal.Zero,
		TotalCobrado:   decimal.Zero,
		TotalPendiente: decimal.Zero,
		Facturas:       len(facturas),
		PorEstado:      map[string]int{},
		PorCuenta:      make([]dto.CobroPorCuentaResponse, 0, len(cobros)),
	}
	for _, f := range facturas {
		resp.PorEstado[string(f.Estado)]++
		if f.Estado == model.EstadoCancelada {
			continue
		}
		resp.TotalFacturado = resp.TotalFacturado.Add(f.MontoTotal)
		resp.TotalPendiente = resp.TotalPendiente.Add(f.Restante)
	}
	for _, c := range cobros {
		row := dto.CobroPorCuentaResponse{
			CuentaID: c.CuentaID.String(),
			Monto:    c.Monto,
			MontoUSD: c.MontoUSD,
			Pagos:    c.Pagos,
		}
		if cuenta, err := s.cuentas.FindByID(ctx, c.CuentaID); err == nil {
			row.Cuenta = cuenta.Nombre
			row.Moneda = cuenta.Moneda
		}
		resp.TotalCobrado = resp.TotalCobrado.Add(c.MontoUSD)
		resp.PorCuenta = append(resp.PorCuenta, row)
	}
	resp.Productos = resumenToResponse(conciliacion.ResumirProductos(facturas))
	return resp, nil
}

func (s *reporteService) Productos(ctx context.Context, filter dto.ReporteFilter) ([]dto.ResumenProductoResponse, error) {
	desde, hasta, err := s.periodo(filter)
	if err != nil {
		return nil, err
	}
	facturas, err := s.facturas.ListConItems(ctx, desde, hasta)
	if err != nil {
		return nil, err
	}
	return resumenToResponse(conciliacion.ResumirProductos(facturas)), nil
}

func resumenToResponse(rs []conciliacion.ResumenProducto) []dto.ResumenProductoResponse {
	return lo.Map(rs, func(r conciliacion.ResumenProducto, _ int) dto.ResumenProductoResponse {
		return dto.ResumenProductoResponse{
			ProductoID:   r.ProductoID.String(),
			Producto:     r.Producto,
			Vendido:      r.Vendido,
			Pagado:       r.Pagado.Round(4),
			Pendiente:    r.Pendiente.Round(4),
			MontoVendido: r.MontoVendido.Round(2),
			MontoPagado:  r.MontoPagado.Round(2),
		}
	})
}

func (s *reporteService) FinancieroPDF(ctx context.Context, filter dto.ReporteFilter) ([]byte, error) {
	r, err := s.Financiero(ctx, filter)
	if err != nil {
		return nil, err
	}
	pdf, err := infra.ReporteFinancieroPDF(s.empresa, r)
	if err != nil {
		registrar(ctx, s.rec, "reportes", err)
	}
	return pdf, err
}

func (s *reporteService) FinancieroExcel(ctx context.Context, filter dto.ReporteFilter) ([]byte, error) {
	r, err := s.Financiero(ctx, filter)
	if err != nil {
		return nil, err
	}
	desde, hasta, _ := s.periodo(filter)
	facturas, err := s.facturas.ListConItems(ctx, desde, hasta)
	if err != nil {
		return nil, err
	}

	resumen := infra.HojaExcel{
		Nombre:     "Resumen",
		Encabezado: []string{"concepto", "valor"},
		Filas: [][]interface{}{
			{"desde", r.Desde},
			{"hasta", r.Hasta},
			{"facturas", r.Facturas},
			{"facturado", num(r.TotalFacturado)},
			{"cobrado", num(r.TotalCobrado)},
			{"pendiente", num(r.TotalPendiente)},
		},
	}
	for _, e := range []model.EstadoFactura{model.EstadoCreada, model.EstadoPendiente, model.EstadoVencida, model.EstadoPagado, model.EstadoCancelada} {
		resumen.Filas = append(resumen.Filas, []interface{}{"estado " + string(e), r.PorEstado[string(e)]})
	}

	cuentas := infra.HojaExcel{
		Nombre:     "Cuentas",
		Encabezado: []string{"cuenta", "moneda", "pagos", "monto", "monto_usd"},
		Filas: lo.Map(r.PorCuenta, func(c dto.CobroPorCuentaResponse, _ int) []interface{} {
			return []interface{}{c.Cuenta, c.Moneda, c.Pagos, num(c.Monto), num(c.MontoUSD)}
		}),
	}
	productos := infra.HojaExcel{
		Nombre:     "Productos",
		Encabezado: []string{"producto", "vendido", "pagado", "pendiente", "monto_vendido", "monto_pagado"},
		Filas: lo.Map(r.Productos, func(p dto.ResumenProductoResponse, _ int) []interface{} {
			return []interface{}{p.Producto, num(p.Vendido), num(p.Pagado), num(p.Pendiente), num(p.MontoVendido), num(p.MontoPagado)}
		}),
	}
	detalle := infra.HojaExcel{
		Nombre:     "Facturas",
		Encabezado: []string{"numero", "cliente", "despacho", "vencimiento", "estado", "total", "restante"},
		Filas: lo.Map(facturas, func(f model.Factura, _ int) []interface{} {
			cliente := f.ClienteID.String()
			if f.Cliente != nil {
				cliente = f.Cliente.Nombre
			}
			return []interface{}{
				f.Numero, cliente,
				f.FechaDespacho.In(s.loc).Format(formatoFecha),
				f.FechaVencimiento.In(s.loc).Format(formatoFecha),
				string(f.Estado), num(f.MontoTotal), num(f.Restante),
			}
		}),
	}
	return infra.EscribirLibro(resumen, cuentas, productos, detalle)
}

func num(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func (s *reporteService) FacturaPDF(ctx context.Context, id uuid.UUID) ([]byte, int, error) {
	f, err := s.facturas.FindByID(ctx, id)
	if err != nil {
		return nil, 0, noEncontrado(err)
	}
	pdf, err := infra.FacturaPDF(s.empresa, f)
	if err != nil {
		registrar(ctx, s.rec, "reportes", err)
		return nil, 0, err
	}
	return pdf, f.Numero, nil
}

// estadoCuenta loads the client and its open invoices with their payments.
func (s *reporteService) estadoCuenta(ctx context.Context, clienteID uuid.UUID) (*model.Cliente, []model.Factura, decimal.Decimal, error) {
	c, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, nil, decimal.Zero, noEncontrado(err)
	}
	facturas, err := s.facturas.ListAbiertasPorCliente(ctx, clienteID)
	if err != nil {
		return nil, nil, decimal.Zero, err
	}
	abonos, err := s.pagos.AbonosPorFactura(ctx, lo.Map(facturas, func(f model.Factura, _ int) uuid.UUID { return f.ID }))
	if err != nil {
		return nil, nil, decimal.Zero, err
	}
	porFactura := lo.GroupBy(abonos, func(a model.PagoFactura) uuid.UUID { return a.FacturaID })

	deuda := decimal.Zero
	for i := range facturas {
		facturas[i].Asignaciones = porFactura[facturas[i].ID]
		deuda = deuda.Add(facturas[i].Restante)
	}
	return c, facturas, deuda, nil
}

func (s *reporteService) EstadoCuenta(ctx context.Context, clienteID uuid.UUID) (*dto.EstadoCuentaResponse, error) {
	c, facturas, deuda, err := s.estadoCuenta(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	return &dto.EstadoCuentaResponse{
		Cliente: clienteToResponse(c),
		Facturas: lo.Map(facturas, func(f model.Factura, _ int) dto.FacturaResponse {
			return facturaToResponse(&f, s.loc)
		}),
		TotalDeuda: deuda,
		Generado:   s.now().In(s.loc).Format(formatoFechaHora),
	}, nil
}

func (s *reporteService) EstadoCuentaPDF(ctx context.Context, clienteID uuid.UUID) ([]byte, error) {
	c, facturas, deuda, err := s.estadoCuenta(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	pdf, err := infra.EstadoCuentaPDF(s.empresa, c, facturas, deuda, s.now().In(s.loc))
	if err != nil {
		registrar(ctx, s.rec, "reportes", err)
	}
	return pdf, err
}

func (s *reporteService) EnviarEstadoCuenta(ctx context.Context, clienteID uuid.UUID, req dto.EnviarEstadoCuentaRequest) error {
	c, facturas, deuda, err := s.estadoCuenta(ctx, clienteID)
	if err != nil {
		return err
	}
	destino := c.Email
	if req.Email != nil && *req.Email != "" {
		destino = req.Email
	}
	if destino == nil || *destino == "" {
		return ErrSinEmail
	}
	if s.cola == nil {
		return fmt.Errorf("reportes: cola de trabajos no configurada")
	}

	generado := s.now().In(s.loc)
	pdf, err := infra.EstadoCuentaPDF(s.empresa, c, facturas, deuda, generado)
	if err != nil {
		registrar(ctx, s.rec, "reportes", err)
		return err
	}
	err = s.cola.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: *destino,
		Subject: fmt.Sprintf("%s - Estado de cuenta al %s", s.empresa, generado.Format("02/01/2006")),
		Body: fmt.Sprintf("Estimado(a) %s,\n\nAdjuntamos su estado de cuenta. Saldo pendiente: $%s.\n\n%s",
			c.Nombre, deuda.StringFixed(2), s.empresa),
		NombreArchivo: fmt.Sprintf("estado-cuenta-%s.pdf", c.Documento),
		PDF:           pdf,
	})
	if err != nil {
		registrar(ctx, s.rec, "reportes", err)
	}
	return err
}
