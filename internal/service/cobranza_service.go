package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"adriani/internal/dto"
	"adriani/internal/infra"
	"adriani/internal/model"
	"adriani/internal/repository"
	"adriani/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Mensajero delivers a text message to a phone number.
// infra.WhatsAppClient satisfies it.
type Mensajero interface {
	EnviarMensaje(ctx context.Context, telefono, texto string) error
}

// Encolador pushes background jobs. worker.Dispatcher satisfies it.
type Encolador interface {
	EnqueueRecordatorios(ctx context.Context) error
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
}

type CobranzaService interface {
	// EncolarRecordatorios creates one pending reminder per client with
	// overdue invoices, skipping clients already reminded today.
	EncolarRecordatorios(ctx context.Context) (*dto.EncolarRecordatoriosResponse, error)
	// SolicitarEnvio hands the delivery of pending reminders to the worker pool.
	SolicitarEnvio(ctx context.Context) error
	// EnviarPendientes delivers every pending reminder in batches.
	EnviarPendientes(ctx context.Context) (*dto.ResultadoEnvio, error)
	Morosos(ctx context.Context) ([]dto.MorosoResponse, error)
	Historial(ctx context.Context, filter dto.HistorialFilter) (*dto.HistorialListResponse, error)
}

// CobranzaConfig groups the tunables of the collections flow.
type CobranzaConfig struct {
	Empresa string
	Lote    worker.LoteConfig
	Loc     *time.Location
}

type cobranzaService struct {
	facturas      repository.FacturaRepository
	clientes      repository.ClienteRepository
	recordatorios repository.RecordatorioRepository
	mensajero     Mensajero
	cb            *infra.CircuitBreaker
	cola          Encolador
	rec           ErrorRecorder
	cfg           CobranzaConfig
	now           func() time.Time

	// enviando serialises EnviarPendientes within the process.
	enviando sync.Mutex
}

func NewCobranzaService(
	facturas repository.FacturaRepository,
	clientes repository.ClienteRepository,
	recordatorios repository.RecordatorioRepository,
	mensajero Mensajero,
	cb *infra.CircuitBreaker,
	cola Encolador,
	rec ErrorRecorder,
	cfg CobranzaConfig,
) CobranzaService {
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return &cobranzaService{
		facturas:      facturas,
		clientes:      clientes,
		recordatorios: recordatorios,
		mensajero:     mensajero,
		cb:            cb,
		cola:          cola,
		rec:           rec,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (s *cobranzaService) EncolarRecordatorios(ctx context.Context) (*dto.EncolarRecordatoriosResponse, error) {
	morosos, err := s.facturas.ListMorosos(ctx)
	if err != nil {
		registrar(ctx, s.rec, "cobranza", err)
		return nil, err
	}
	resp := &dto.EncolarRecordatoriosResponse{}
	if len(morosos) == 0 {
		return resp, nil
	}

	hoy := model.InicioDelDia(s.now().In(s.cfg.Loc))
	avisados, err := s.recordatorios.ClientesAvisados(ctx, hoy)
	if err != nil {
		registrar(ctx, s.rec, "cobranza", err)
		return nil, err
	}
	yaAvisado := lo.Associate(avisados, func(id uuid.UUID) (uuid.UUID, struct{}) { return id, struct{}{} })

	clientes, err := s.clientes.FindByIDs(ctx, lo.Map(morosos, func(m repository.MorosoRow, _ int) uuid.UUID { return m.ClienteID }))
	if err != nil {
		registrar(ctx, s.rec, "cobranza", err)
		return nil, err
	}
	porID := lo.KeyBy(clientes, func(c model.Cliente) uuid.UUID { return c.ID })

	var fallos []error
	for _, m := range morosos {
		c, ok := porID[m.ClienteID]
		_, avisado := yaAvisado[m.ClienteID]
		if !ok || avisado || !c.Activo || c.Telefono == nil || *c.Telefono == "" {
			resp.Omitidos++
			continue
		}
		r := &model.Recordatorio{
			ClienteID: c.ID,
			Telefono:  *c.Telefono,
			Mensaje:   s.mensaje(&c, m),
			Estado:    model.RecordatorioPendiente,
		}
		if err := s.recordatorios.Create(ctx, r); err != nil {
			fallos = append(fallos, fmt.Errorf("cliente %s: %w", c.ID, err))
			resp.Omitidos++
			continue
		}
		resp.Encolados++
	}
	if len(fallos) > 0 {
		registrar(ctx, s.rec, "cobranza", fmt.Errorf("encolar recordatorios: %d fallos: %w", len(fallos), errors.Join(fallos...)))
	}
	log.Info().Int("encolados", resp.Encolados).Int("omitidos", resp.Omitidos).Msg("recordatorios: encolados")
	return resp, nil
}

func (s *cobranzaService) mensaje(c *model.Cliente, m repository.MorosoRow) string {
	facturas := "1 factura vencida"
	if m.Facturas != 1 {
		facturas = fmt.Sprintf("%d facturas vencidas", m.Facturas)
	}
	return fmt.Sprintf(
		"Hola %s, le saluda %s. Le recordamos que tiene %s por un total de $%s. "+
			"La más antigua venció el %s. Por favor comuníquese con nosotros para coordinar el pago.",
		c.Nombre, s.cfg.Empresa, facturas, m.TotalDeuda.StringFixed(2),
		m.MasAntigua.In(s.cfg.Loc).Format("02/01/2006"),
	)
}

func (s *cobranzaService) SolicitarEnvio(ctx context.Context) error {
	if s.cola == nil {
		return fmt.Errorf("cobranza: cola de trabajos no configurada")
	}
	return s.cola.EnqueueRecordatorios(ctx)
}

func (s *cobranzaService) EnviarPendientes(ctx context.Context) (*dto.ResultadoEnvio, error) {
	if !s.enviando.TryLock() {
		return nil, ErrEnvioEnCurso
	}
	defer s.enviando.Unlock()

	pendientes, err := s.recordatorios.ListPendientes(ctx)
	if err != nil {
		registrar(ctx, s.rec, "cobranza", err)
		return nil, err
	}
	dest := lo.Map(pendientes, func(r model.Recordatorio, _ int) worker.Destinatario {
		return worker.Destinatario{RecordatorioID: r.ID, ClienteID: r.ClienteID, Telefono: r.Telefono, Mensaje: r.Mensaje}
	})

	res, err := worker.EnviarEnLotes(ctx, dest, s.cfg.Lote, s.enviar, s.registrarIntento)
	if res.Fallidos > 0 {
		registrar(ctx, s.rec, "cobranza",
			fmt.Errorf("envío de recordatorios: %d de %d fallidos", res.Fallidos, res.Enviados+res.Fallidos))
	}
	log.Info().Int("lotes", res.Lotes).Int("enviados", res.Enviados).Int("fallidos", res.Fallidos).
		Msg("recordatorios: envío terminado")
	return &res, err
}

func (s *cobranzaService) enviar(ctx context.Context, d worker.Destinatario) error {
	if s.mensajero == nil {
		return fmt.Errorf("cobranza: mensajero no configurado")
	}
	send := func() error { return s.mensajero.EnviarMensaje(ctx, d.Telefono, d.Mensaje) }
	if s.cb == nil {
		return send()
	}
	return s.cb.ExecuteIf(send, func(err error) bool {
		return !errors.Is(err, infra.ErrDestinatarioInvalido)
	})
}

// registrarIntento writes the history row and moves the reminder out of
// pendiente. It runs concurrently for every member of a batch.
func (s *cobranzaService) registrarIntento(ctx context.Context, d worker.Destinatario, sendErr error) {
	ctx = context.WithoutCancel(ctx)
	id := d.RecordatorioID
	h := &model.HistorialMensaje{
		RecordatorioID: &id,
		ClienteID:      d.ClienteID,
		Telefono:       d.Telefono,
		Mensaje:        d.Mensaje,
		Exitoso:        sendErr == nil,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		h.Error = &msg
	}
	if err := s.recordatorios.CrearHistorial(ctx, h); err != nil {
		log.Error().Err(err).Str("recordatorio_id", id.String()).Msg("recordatorios: no se pudo guardar el historial")
	}

	var err error
	if sendErr == nil {
		err = s.recordatorios.MarcarEnviado(ctx, id, s.now())
	} else {
		err = s.recordatorios.MarcarFallido(ctx, id)
	}
	if err != nil {
		log.Error().Err(err).Str("recordatorio_id", id.String()).Msg("recordatorios: no se pudo actualizar el estado")
	}
}

func (s *cobranzaService) Morosos(ctx context.Context) ([]dto.MorosoResponse, error) {
	morosos, err := s.facturas.ListMorosos(ctx)
	if err != nil {
		return nil, err
	}
	ids := lo.Map(morosos, func(m repository.MorosoRow, _ int) uuid.UUID { return m.ClienteID })
	clientes, err := s.clientes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	porID := lo.KeyBy(clientes, func(c model.Cliente) uuid.UUID { return c.ID })
	avisos, err := s.recordatorios.UltimosAvisos(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MorosoResponse, 0, len(morosos))
	for _, m := range morosos {
		r := dto.MorosoResponse{
			ClienteID:  m.ClienteID.String(),
			Facturas:   m.Facturas,
			TotalDeuda: m.TotalDeuda,
			MasAntigua: m.MasAntigua.In(s.cfg.Loc).Format(formatoFecha),
		}
		if c, ok := porID[m.ClienteID]; ok {
			r.Cliente = c.Nombre
			r.Telefono = c.Telefono
		}
		if t, ok := avisos[m.ClienteID]; ok {
			v := t.In(s.cfg.Loc).Format(formatoFechaHora)
			r.UltimoAviso = &v
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *cobranzaService) Historial(ctx context.Context, filter dto.HistorialFilter) (*dto.HistorialListResponse, error) {
	clienteID, err := parseUUIDOpcional(filter.ClienteID, "cliente_id")
	if err != nil {
		return nil, err
	}
	f := repository.HistorialFilter{ClienteID: clienteID, Page: filter.Page, Limit: filter.Limit}
	if filter.Exitoso != "" {
		v := filter.Exitoso == "true"
		f.Exitoso = &v
	}
	list, total, err := s.recordatorios.ListHistorial(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.HistorialMensajeResponse, len(list))
	for i, h := range list {
		data[i] = dto.HistorialMensajeResponse{
			ID:        h.ID.String(),
			ClienteID: h.ClienteID.String(),
			Telefono:  h.Telefono,
			Mensaje:   h.Mensaje,
			Exitoso:   h.Exitoso,
			Error:     h.Error,
			CreatedAt: h.CreatedAt.In(s.cfg.Loc).Format(formatoFechaHora),
		}
	}
	return &dto.HistorialListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
