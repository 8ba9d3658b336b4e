package service

import (
	"context"

	"adriani/internal/dto"
	"adriani/internal/model"
	"adriani/internal/repository"

	"github.com/rs/zerolog/log"
)

// ErrorRecorder persists service failures to the error_logs table.
type ErrorRecorder interface {
	Registrar(ctx context.Context, servicio string, err error)
	Listar(ctx context.Context, filter dto.ErrorLogFilter) (*dto.ErrorLogListResponse, error)
}

type errorRecorder struct{ repo repository.ErrorLogRepository }

func NewErrorRecorder(repo repository.ErrorLogRepository) ErrorRecorder {
	return &errorRecorder{repo: repo}
}

// Registrar logs err and stores it. A failure to store is only logged.
func (r *errorRecorder) Registrar(ctx context.Context, servicio string, err error) {
	if err == nil {
		return
	}
	log.Error().Err(err).Str("servicio", servicio).Msg("service error")
	if r == nil || r.repo == nil {
		return
	}
	// The caller's context may already be cancelled; the record must still land.
	if saveErr := r.repo.Create(context.WithoutCancel(ctx), &model.ErrorLog{
		Servicio: servicio,
		Mensaje:  err.Error(),
	}); saveErr != nil {
		log.Warn().Err(saveErr).Str("servicio", servicio).Msg("error_logs: could not persist error")
	}
}

func (r *errorRecorder) Listar(ctx context.Context, filter dto.ErrorLogFilter) (*dto.ErrorLogListResponse, error) {
	logs, total, err := r.repo.List(ctx, filter.Servicio, filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ErrorLogResponse, len(logs))
	for i, l := range logs {
		data[i] = dto.ErrorLogResponse{
			ID:        l.ID.String(),
			Servicio:  l.Servicio,
			Mensaje:   l.Mensaje,
			CreatedAt: l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return &dto.ErrorLogListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// registrar forwards err to rec when one is configured.
func registrar(ctx context.Context, rec ErrorRecorder, servicio string, err error) {
	if rec == nil || err == nil {
		return
	}
	rec.Registrar(ctx, servicio, err)
}
