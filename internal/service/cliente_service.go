package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"adriani/internal/dto"
	"adriani/internal/infra"
	"adriani/internal/model"
	"adriani/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	// ImportarExcel upserts clients by documento from the first sheet of an
	// .xlsx file. Row failures are collected, never fatal.
	ImportarExcel(ctx context.Context, r io.Reader) (*dto.ImportResponse, error)
	ExportarExcel(ctx context.Context) ([]byte, error)
}

type clienteService struct {
	repo    repository.ClienteRepository
	bloques repository.BloqueRepository
	rec     ErrorRecorder
	valid   *validator.Validate
}

func NewClienteService(repo repository.ClienteRepository, bloques repository.BloqueRepository, rec ErrorRecorder) ClienteService {
	return &clienteService{repo: repo, bloques: bloques, rec: rec, valid: validator.New()}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	doc := normalizarDocumento(req.Documento)
	if _, err := s.repo.FindByDocumento(ctx, doc); err == nil {
		return nil, ErrDuplicado
	}
	bloqueID, err := s.resolverBloque(ctx, req.BloqueID)
	if err != nil {
		return nil, err
	}
	c := &model.Cliente{
		Nombre:    strings.TrimSpace(req.Nombre),
		Documento: doc,
		Telefono:  normalizarTelefono(req.Telefono),
		Email:     req.Email,
		Direccion: req.Direccion,
		BloqueID:  bloqueID,
		Activo:    true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		registrar(ctx, s.rec, "clientes", err)
		return nil, err
	}
	return s.ObtenerPorID(ctx, c.ID)
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err)
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	clientes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		data[i] = clienteToResponse(&clientes[i])
	}
	return &dto.ClienteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err)
	}
	if req.Nombre != nil {
		c.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Telefono != nil {
		c.Telefono = normalizarTelefono(req.Telefono)
	}
	if req.Email != nil {
		c.Email = textoOpcional(*req.Email)
	}
	if req.Direccion != nil {
		c.Direccion = textoOpcional(*req.Direccion)
	}
	if req.BloqueID != nil {
		bloqueID, err := s.resolverBloque(ctx, req.BloqueID)
		if err != nil {
			return nil, err
		}
		c.BloqueID = bloqueID
		c.Bloque = nil
	}
	if err := s.repo.Update(ctx, c); err != nil {
		registrar(ctx, s.rec, "clientes", err)
		return nil, err
	}
	return s.ObtenerPorID(ctx, id)
}

func (s *clienteService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return noEncontrado(err)
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *clienteService) resolverBloque(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, fmt.Errorf("%w: bloque_id", ErrDatoInvalido)
	}
	if _, err := s.bloques.ObtenerPorID(ctx, id); err != nil {
		return nil, fmt.Errorf("bloque: %w", noEncontrado(err))
	}
	return &id, nil
}

var columnasCliente = []string{"nombre", "documento", "telefono", "email", "direccion", "bloque"}

func (s *clienteService) ImportarExcel(ctx context.Context, r io.Reader) (*dto.ImportResponse, error) {
	rows, err := infra.LeerHoja(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchivoInvalido, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: la hoja está vacía", ErrArchivoInvalido)
	}
	col := indiceColumnas(rows[0])
	for _, req := range []string{"nombre", "documento"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("%w: falta la columna %q", ErrArchivoInvalido, req)
		}
	}

	resp := &dto.ImportResponse{Errores: []dto.ImportErrorRow{}}
	bloques := map[string]*uuid.UUID{}

	for i, row := range rows[1:] {
		fila := i + 2 // Excel row number, header is row 1
		if filaVacia(row) {
			continue
		}
		resp.TotalFilas++
		celda := func(nombre string) string { return celdaPorNombre(row, col, nombre) }

		nombre, doc := celda("nombre"), normalizarDocumento(celda("documento"))
		if nombre == "" || doc == "" {
			resp.Errores = append(resp.Errores, dto.ImportErrorRow{Fila: fila, Motivo: "nombre y documento son obligatorios"})
			continue
		}
		email := textoOpcional(celda("email"))
		if email != nil && s.valid.Var(*email, "email") != nil {
			resp.Errores = append(resp.Errores, dto.ImportErrorRow{Fila: fila, Motivo: "email inválido: " + *email})
			continue
		}
		telefono := celda("telefono")

		var bloqueID *uuid.UUID
		if nb := celda("bloque"); nb != "" {
			id, err := s.bloquePorNombre(ctx, bloques, nb)
			if err != nil {
				resp.Errores = append(resp.Errores, dto.ImportErrorRow{Fila: fila, Motivo: "bloque: " + err.Error()})
				continue
			}
			bloqueID = id
		}

		existente, err := s.repo.FindByDocumento(ctx, doc)
		if err == nil {
			existente.Nombre = nombre
			existente.Telefono = normalizarTelefono(&telefono)
			existente.Email = email
			existente.Direccion = textoOpcional(celda("direccion"))
			if bloqueID != nil {
				existente.BloqueID = bloqueID
			}
			existente.Bloque = nil
			existente.Activo = true
			if err := s.repo.Update(ctx, existente); err != nil {
				resp.Errores = append(resp.Errores, dto.ImportErrorRow{Fila: fila, Motivo: err.Error()})
				continue
			}
			resp.Actualizados++
			continue
		}

		c := &model.Cliente{
			Nombre:    nombre,
			Documento: doc,
			Telefono:  normalizarTelefono(&telefono),
			Email:     email,
			Direccion: textoOpcional(celda("direccion")),
			BloqueID:  bloqueID,
			Activo:    true,
		}
		if err := s.repo.Create(ctx, c); err != nil {
			resp.Errores = append(resp.Errores, dto.ImportErrorRow{Fila: fila, Motivo: err.Error()})
			continue
		}
		resp.Importados++
	}

	if len(resp.Errores) > 0 {
		registrar(ctx, s.rec, "clientes", fmt.Errorf("importación de clientes: %d filas con error", len(resp.Errores)))
	}
	return resp, nil
}

// bloquePorNombre finds a block by name, creating it the first time it is seen.
func (s *clienteService) bloquePorNombre(ctx context.Context, cache map[string]*uuid.UUID, nombre string) (*uuid.UUID, error) {
	key := strings.ToLower(nombre)
	if id, ok := cache[key]; ok {
		return id, nil
	}
	b, err := s.bloques.ObtenerPorNombre(ctx, nombre)
	if err != nil {
		b = &model.Bloque{Nombre: nombre, Activo: true}
		if err := s.bloques.Crear(ctx, b); err != nil {
			return nil, err
		}
	}
	cache[key] = &b.ID
	return &b.ID, nil
}

func (s *clienteService) ExportarExcel(ctx context.Context) ([]byte, error) {
	clientes, err := s.repo.ListActivos(ctx)
	if err != nil {
		return nil, err
	}
	filas := make([][]interface{}, len(clientes))
	for i, c := range clientes {
		bloque := ""
		if c.Bloque != nil {
			bloque = c.Bloque.Nombre
		}
		filas[i] = []interface{}{c.Nombre, c.Documento, deref(c.Telefono), deref(c.Email), deref(c.Direccion), bloque}
	}
	return infra.EscribirLibro(infra.HojaExcel{Nombre: "Clientes", Encabezado: columnasCliente, Filas: filas})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// indiceColumnas maps lower-cased header names to their column index.
func indiceColumnas(header []string) map[string]int {
	out := make(map[string]int, len(header))
	for i, h := range header {
		out[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return out
}

func celdaPorNombre(row []string, col map[string]int, nombre string) string {
	i, ok := col[nombre]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func filaVacia(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
