package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adriani/internal/dto"
	"adriani/internal/infra"
	"adriani/internal/model"
	"adriani/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	claveDolarActual = "dolar:actual"
	ttlDolarActual   = 6 * time.Hour
)

// Cache is the subset of a key/value store the services need.
// infra.RedisCache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// FuenteDolar fetches the current USD/VES rate from an external API.
type FuenteDolar interface {
	Obtener(ctx context.Context) (*infra.CotizacionDolar, error)
}

type DolarService interface {
	Actual(ctx context.Context) (*dto.TasaDolarResponse, error)
	Registrar(ctx context.Context, req dto.RegistrarTasaRequest) (*dto.TasaDolarResponse, error)
	// Actualizar pulls the rate from the external source and stores it.
	Actualizar(ctx context.Context) (*dto.TasaDolarResponse, error)
}

type dolarService struct {
	repo   repository.TasaDolarRepository
	cache  Cache
	fuente FuenteDolar
	rec    ErrorRecorder
	now    func() time.Time
}

func NewDolarService(repo repository.TasaDolarRepository, cache Cache, fuente FuenteDolar, rec ErrorRecorder) DolarService {
	return &dolarService{repo: repo, cache: cache, fuente: fuente, rec: rec, now: time.Now}
}

// Actual serves the latest rate from cache, falling back to the database.
func (s *dolarService) Actual(ctx context.Context) (*dto.TasaDolarResponse, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, claveDolarActual); err == nil {
			var resp dto.TasaDolarResponse
			if json.Unmarshal([]byte(raw), &resp) == nil {
				return &resp, nil
			}
		} else if !errors.Is(err, infra.ErrCacheMiss) {
			log.Warn().Err(err).Msg("dolar: cache no disponible, leyendo de la base")
		}
	}
	t, err := s.repo.Ultima(ctx)
	if err != nil {
		if errors.Is(noEncontrado(err), ErrNoEncontrado) {
			return nil, ErrSinTasa
		}
		return nil, err
	}
	resp := tasaToResponse(t)
	s.guardarEnCache(ctx, &resp)
	return &resp, nil
}

func (s *dolarService) Registrar(ctx context.Context, req dto.RegistrarTasaRequest) (*dto.TasaDolarResponse, error) {
	if !req.Valor.IsPositive() {
		return nil, fmt.Errorf("%w: la tasa debe ser mayor a 0", ErrDatoInvalido)
	}
	return s.guardar(ctx, &model.TasaDolar{Valor: req.Valor, Fuente: "manual", Fecha: s.now()})
}

func (s *dolarService) Actualizar(ctx context.Context) (*dto.TasaDolarResponse, error) {
	if s.fuente == nil {
		return nil, fmt.Errorf("dolar: no hay fuente configurada")
	}
	cot, err := s.fuente.Obtener(ctx)
	if err != nil {
		registrar(ctx, s.rec, "dolar", err)
		return nil, err
	}
	fecha := cot.FechaActualizacion
	if fecha.IsZero() {
		fecha = s.now()
	}
	resp, err := s.guardar(ctx, &model.TasaDolar{Valor: cot.Promedio, Fuente: "dolarapi", Fecha: fecha})
	if err != nil {
		return nil, err
	}
	log.Info().Str("valor", cot.Promedio.String()).Msg("dolar: tasa actualizada")
	return resp, nil
}

func (s *dolarService) guardar(ctx context.Context, t *model.TasaDolar) (*dto.TasaDolarResponse, error) {
	if err := s.repo.Create(ctx, t); err != nil {
		registrar(ctx, s.rec, "dolar", err)
		return nil, err
	}
	resp := tasaToResponse(t)
	s.guardarEnCache(ctx, &resp)
	return &resp, nil
}

func (s *dolarService) guardarEnCache(ctx context.Context, resp *dto.TasaDolarResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, claveDolarActual, string(raw), ttlDolarActual); err != nil {
		log.Warn().Err(err).Msg("dolar: no se pudo escribir la cache")
	}
}

func tasaToResponse(t *model.TasaDolar) dto.TasaDolarResponse {
	return dto.TasaDolarResponse{Valor: t.Valor, Fuente: t.Fuente, Fecha: t.Fecha.Format(formatoFechaHora)}
}
