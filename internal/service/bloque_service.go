package service

import (
	"context"
	"strings"

	"adriani/internal/dto"
	"adriani/internal/model"
	"adriani/internal/repository"

	"github.com/google/uuid"
)

type BloqueService interface {
	Crear(ctx context.Context, req dto.CrearBloqueRequest) (*dto.BloqueResponse, error)
	Listar(ctx context.Context) ([]dto.BloqueResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarBloqueRequest) (*dto.BloqueResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type bloqueService struct{ repo repository.BloqueRepository }

func NewBloqueService(repo repository.BloqueRepository) BloqueService {
	return &bloqueService{repo: repo}
}

func (s *bloqueService) Crear(ctx context.Context, req dto.CrearBloqueRequest) (*dto.BloqueResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if _, err := s.repo.ObtenerPorNombre(ctx, nombre); err == nil {
		return nil, ErrDuplicado
	}
	b := &model.Bloque{Nombre: nombre, Descripcion: req.Descripcion, Activo: true}
	if err := s.repo.Crear(ctx, b); err != nil {
		return nil, err
	}
	return &dto.BloqueResponse{ID: b.ID, Nombre: b.Nombre, Descripcion: b.Descripcion, Activo: b.Activo}, nil
}

func (s *bloqueService) Listar(ctx context.Context) ([]dto.BloqueResponse, error) {
	list, err := s.repo.Listar(ctx)
	if err != nil {
		return nil, err
	}
	conteo, err := s.repo.ContarClientes(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.BloqueResponse, len(list))
	for i, b := range list {
		resp[i] = dto.BloqueResponse{
			ID: b.ID, Nombre: b.Nombre, Descripcion: b.Descripcion,
			Activo: b.Activo, Clientes: conteo[b.ID],
		}
	}
	return resp, nil
}

func (s *bloqueService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarBloqueRequest) (*dto.BloqueResponse, error) {
	b, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err)
	}
	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if otro, err := s.repo.ObtenerPorNombre(ctx, nombre); err == nil && otro.ID != b.ID {
			return nil, ErrDuplicado
		}
		b.Nombre = nombre
	}
	if req.Descripcion != nil {
		b.Descripcion = req.Descripcion
	}
	if req.Activo != nil {
		b.Activo = *req.Activo
	}
	if err := s.repo.Actualizar(ctx, b); err != nil {
		return nil, err
	}
	return &dto.BloqueResponse{ID: b.ID, Nombre: b.Nombre, Descripcion: b.Descripcion, Activo: b.Activo}, nil
}

func (s *bloqueService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.ObtenerPorID(ctx, id); err != nil {
		return noEncontrado(err)
	}
	return s.repo.Desactivar(ctx, id)
}
