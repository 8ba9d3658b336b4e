package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

type PagoService interface {
	CrearCuenta(ctx context.Context, req dto.CrearCuentaRequest) (*dto.CuentaResponse, error)
	ListarCuentas(ctx context.Context) ([]dto.CuentaResponse, error)
	DesactivarCuenta(ctx context.Context, id uuid.UUID) error
	// Registrar stores a payment and applies it to invoices in a single
	// transaction. Without explicit allocations the amount goes to the
	// client's open invoices, oldest due date first.
	Registrar(ctx context.Context, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.PagoResponse, error)
	Listar(ctx context.Context, filter dto.PagoFilter) (*dto.PagoListResponse, error)
}

type pagoService struct {
	repo     repository.PagoRepository
	facturas repository.FacturaRepository
	clientes repository.ClienteRepository
	cuentas  repository.CuentaRepository
	tasas    repository.TasaDolarRepository
	rec      ErrorRecorder
	loc      *time.Location
	now      func() time.Time
}

func NewPagoService(
	repo repository.PagoRepository,
	facturas repository.FacturaRepository,
	clientes repository.ClienteRepository,
	cuentas repository.CuentaRepository,
	tasas repository.TasaDolarRepository,
	rec ErrorRecorder,
	loc *time.Location,
) PagoService {
	if loc == nil {
		loc = time.UTC
	}
	return &pagoService{
		repo: repo, facturas: facturas, clientes: clientes, cuentas: cuentas,
		tasas: tasas, rec: rec, loc: loc, now: time.Now,
	}
}

// ── Cuentas ───────────────────────────────────────────────────────────────────

func (s *pagoService) CrearCuenta(ctx context.Context, req dto.CrearCuentaRequest) (*dto.CuentaResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	existentes, err := s.cuentas.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range existentes {
		if strings.EqualFold(c.Nombre, nombre) {
			return nil, ErrDuplicado
		}
	}
	c := &model.Cuenta{Nombre: nombre, Metodo: req.Metodo, Moneda: req.Moneda, Banco: req.Banco, Activo: true}
	if err := s.cuentas.Create(ctx, c); err != nil {
		registrar(ctx, s.rec, "pagos", err)
		return nil, err
	}
	resp := cuentaToResponse(c)
	return &resp, nil
}

func (s *pagoService) ListarCuentas(ctx context.Context) ([]dto.CuentaResponse, error) {
	list, err := s.cuentas.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CuentaResponse, len(list))
	for i := range list {
		out[i] = cuentaToResponse(&list[i])
	}
	return out, nil
}

func (s *pagoService) DesactivarCuenta(ctx context.Context, id uuid.UUID) error {
	if _, err := s.cuentas.FindByID(ctx, id); err != nil {
		return noEncontrado(err)
	}
	return s.cuentas.Desactivar(ctx, id)
}

// ── Registrar ─────────────────────────────────────────────────────────────────
//   1. Resolve client, account and rate snapshot (outside TX)
//   2. BEGIN TX: validate or compute allocations, insert pago + asignaciones,
//      decrement each invoice with one clamped UPDATE
//   3. COMMIT

func (s *pagoService) Registrar(ctx context.Context, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, fmt.Errorf("%w: cliente_id", ErrDatoInvalido)
	}
	cuentaID, err := uuid.Parse(req.CuentaID)
	if err != nil {
		return nil, fmt.Errorf("%w: cuenta_id", ErrDatoInvalido)
	}
	if !req.Monto.IsPositive() {
		return nil, fmt.Errorf("%w: el monto debe ser mayor a 0", ErrDatoInvalido)
	}
	if _, err := s.clientes.FindByID(ctx, clienteID); err != nil {
		return nil, fmt.Errorf("cliente: %w", noEncontrado(err))
	}
	cuenta, err := s.cuentas.FindByID(ctx, cuentaID)
	if err != nil {
		return nil, fmt.Errorf("cuenta: %w", noEncontrado(err))
	}
	if !cuenta.Activo {
		return nil, ErrCuentaInactiva
	}

	tasa, err := s.resolverTasa(ctx, req.Tasa, cuenta.Moneda)
	if err != nil {
		return nil, err
	}
	monto := req.Monto.Round(2)
	montoUSD := model.ConvertirAUSD(monto, cuenta.Moneda, tasa)

	fecha := s.now().In(s.loc)
	if req.Fecha != "" {
		if fecha, err = parseFecha(req.Fecha, s.loc); err != nil {
			return nil, err
		}
	}

	explicitas := make([]conciliacion.Asignacion, 0, len(req.Asignaciones))
	sumaExplicita := decimal.Zero
	for _, a := range req.Asignaciones {
		fid, err := uuid.Parse(a.FacturaID)
		if err != nil {
			return nil, fmt.Errorf("%w: factura_id %s", ErrDatoInvalido, a.FacturaID)
		}
		if !a.Monto.IsPositive() {
			return nil, fmt.Errorf("%w: monto de asignación debe ser mayor a 0", ErrDatoInvalido)
		}
		explicitas = append(explicitas, conciliacion.Asignacion{FacturaID: fid, Monto: a.Monto.Round(2)})
		sumaExplicita = sumaExplicita.Add(a.Monto.Round(2))
	}
	if sumaExplicita.GreaterThan(montoUSD) {
		return nil, fmt.Errorf("%w: las asignaciones (%s) superan el monto del pago en USD (%s)",
			ErrDatoInvalido, sumaExplicita.StringFixed(2), montoUSD.StringFixed(2))
	}

	pago := model.Pago{
		ClienteID:  clienteID,
		CuentaID:   cuentaID,
		Monto:      monto,
		Moneda:     cuenta.Moneda,
		Tasa:       tasa,
		MontoUSD:   montoUSD,
		Referencia: req.Referencia,
		Fecha:      fecha,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		asignaciones := explicitas
		if len(asignaciones) > 0 {
			for _, a := range asignaciones {
				f, err := s.facturas.FindByIDTx(tx, a.FacturaID)
				if err != nil {
					return fmt.Errorf("factura %s: %w", a.FacturaID, noEncontrado(err))
				}
				if f.ClienteID != clienteID {
					return ErrFacturaDeOtroCliente
				}
				switch f.Estado {
				case model.EstadoCancelada:
					return ErrFacturaCancelada
				case model.EstadoPagado:
					return ErrFacturaPagada
				}
			}
			pago.MontoSinAsignar = montoUSD.Sub(sumaExplicita)
		} else {
			abiertas, err := s.facturas.ListAbiertasPorClienteTx(tx, clienteID)
			if err != nil {
				return err
			}
			var sobrante decimal.Decimal
			asignaciones, sobrante = conciliacion.AsignarFIFO(montoUSD, abiertas)
			pago.MontoSinAsignar = sobrante
		}

		if err := s.repo.CreateTx(tx, &pago); err != nil {
			return err
		}
		for _, a := range asignaciones {
			if err := s.repo.CreateAsignacionTx(tx, &model.PagoFactura{
				PagoID:    pago.ID,
				FacturaID: a.FacturaID,
				Monto:     a.Monto,
			}); err != nil {
				return err
			}
			if err := s.facturas.AplicarAbonoTx(tx, a.FacturaID, a.Monto); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrFacturaCancelada
				}
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		if !esErrorDeNegocio(txErr) {
			registrar(ctx, s.rec, "pagos", txErr)
		}
		return nil, txErr
	}

	log.Info().Str("pago_id", pago.ID.String()).Str("monto_usd", montoUSD.StringFixed(2)).
		Str("sin_asignar", pago.MontoSinAsignar.StringFixed(2)).Msg("pago registrado")
	return s.ObtenerPorID(ctx, pago.ID)
}

// resolverTasa picks the rate snapshot: the request value, else the latest
// stored rate. VES accounts require one; USD payments store zero when none
// has ever been recorded.
func (s *pagoService) resolverTasa(ctx context.Context, solicitada *decimal.Decimal, moneda string) (decimal.Decimal, error) {
	if solicitada != nil {
		if !solicitada.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: la tasa debe ser mayor a 0", ErrDatoInvalido)
		}
		return *solicitada, nil
	}
	ultima, err := s.tasas.Ultima(ctx)
	if err != nil {
		if !errors.Is(noEncontrado(err), ErrNoEncontrado) {
			return decimal.Zero, err
		}
		if moneda == model.MonedaVES {
			return decimal.Zero, ErrSinTasa
		}
		return decimal.Zero, nil
	}
	return ultima.Valor, nil
}

func (s *pagoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.PagoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err)
	}
	resp := pagoToResponse(p, s.loc)
	return &resp, nil
}

func (s *pagoService) Listar(ctx context.Context, filter dto.PagoFilter) (*dto.PagoListResponse, error) {
	clienteID, err := parseUUIDOpcional(filter.ClienteID, "cliente_id")
	if err != nil {
		return nil, err
	}
	cuentaID, err := parseUUIDOpcional(filter.CuentaID, "cuenta_id")
	if err != nil {
		return nil, err
	}
	desde, hasta, err := rangoFechas(filter.Desde, filter.Hasta, s.loc)
	if err != nil {
		return nil, err
	}
	pagos, total, err := s.repo.List(ctx, repository.PagoFilter{
		ClienteID: clienteID, CuentaID: cuentaID, Desde: desde, Hasta: hasta,
		Page: filter.Page, Limit: filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	data := make([]dto.PagoResponse, len(pagos))
	for i := range pagos {
		data[i] = pagoToResponse(&pagos[i], s.loc)
	}
	return &dto.PagoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// esErrorDeNegocio reports whether err is a rule violation rather than an
// infrastructure failure. Only the latter go to error_logs.
func esErrorDeNegocio(err error) bool {
	for _, e := range []error{
		ErrNoEncontrado, ErrDuplicado, ErrDatoInvalido, ErrFacturaConPagos, ErrFacturaPagada,
		ErrFacturaCancelada, ErrFacturaDeOtroCliente, ErrClienteInactivo, ErrCuentaInactiva,
		ErrProductoInactivo, ErrSinTasa, ErrArchivoInvalido, ErrSinEmail, ErrEnvioEnCurso,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func cuentaToResponse(c *model.Cuenta) dto.CuentaResponse {
	return dto.CuentaResponse{
		ID: c.ID.String(), Nombre: c.Nombre, Metodo: c.Metodo,
		Moneda: c.Moneda, Banco: c.Banco, Activo: c.Activo,
	}
}

func pagoToResponse(p *model.Pago, loc *time.Location) dto.PagoResponse {
	r := dto.PagoResponse{
		ID:              p.ID.String(),
		ClienteID:       p.ClienteID.String(),
		CuentaID:        p.CuentaID.String(),
		Monto:           p.Monto,
		Moneda:          p.Moneda,
		Tasa:            p.Tasa,
		MontoUSD:        p.MontoUSD,
		MontoSinAsignar: p.MontoSinAsignar,
		Referencia:      p.Referencia,
		Fecha:           p.Fecha.In(loc).Format(formatoFecha),
		Asignaciones:    make([]dto.AsignacionResponse, len(p.Asignaciones)),
	}
	if p.Cliente != nil {
		r.Cliente = p.Cliente.Nombre
	}
	if p.Cuenta != nil {
		r.Cuenta = p.Cuenta.Nombre
	}
	for i, a := range p.Asignaciones {
		ar := dto.AsignacionResponse{FacturaID: a.FacturaID.String(), Monto: a.Monto}
		if a.Factura != nil {
			ar.NumeroFactura = a.Factura.Numero
			ar.Restante = a.Factura.Restante
			ar.Estado = string(a.Factura.Estado)
		}
		r.Asignaciones[i] = ar
	}
	return r
}
