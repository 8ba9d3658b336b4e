package service

import (
	"context"
	"fmt"

	"adriani/internal/dto"
	"adriani/internal/model"
	"adriani/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventarioService defines the contract for manual stock control.
type InventarioService interface {
	AjustarStock(ctx context.Context, productoID uuid.UUID, req dto.AjustarStockRequest) (*dto.MovimientoStockResponse, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error)
	ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
}

type inventarioService struct {
	repo        repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	rec         ErrorRecorder
}

func NewInventarioService(repo repository.ProductoRepository, movimientos repository.MovimientoStockRepository, rec ErrorRecorder) InventarioService {
	return &inventarioService{repo: repo, movimientos: movimientos, rec: rec}
}

// AjustarStock applies a signed delta and records an "ajuste_manual"
// movement in the same transaction. The resulting stock may be negative.
func (s *inventarioService) AjustarStock(ctx context.Context, productoID uuid.UUID, req dto.AjustarStockRequest) (*dto.MovimientoStockResponse, error) {
	if req.Delta == 0 {
		return nil, fmt.Errorf("%w: delta no puede ser 0", ErrDatoInvalido)
	}
	var mov *model.MovimientoStock
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDTx(tx, productoID)
		if err != nil {
			return noEncontrado(err)
		}
		if !p.Activo {
			return ErrProductoInactivo
		}
		if err := s.repo.UpdateStockTx(tx, p.ID, req.Delta); err != nil {
			return err
		}
		mov = &model.MovimientoStock{
			ProductoID:    p.ID,
			Tipo:          "ajuste_manual",
			Cantidad:      req.Delta,
			StockAnterior: p.Stock,
			StockNuevo:    p.Stock + req.Delta,
			Motivo:        req.Motivo,
			Producto:      p,
		}
		return s.movimientos.CreateTx(tx, mov)
	})
	if err != nil {
		if !esErrorDeNegocio(err) {
			registrar(ctx, s.rec, "inventario", err)
		}
		return nil, err
	}
	resp := movimientoToResponse(mov)
	return &resp, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error) {
	productoID, err := parseUUIDOpcional(filter.ProductoID, "producto_id")
	if err != nil {
		return nil, err
	}
	movs, total, err := s.movimientos.List(ctx, repository.MovimientoStockFilter{
		ProductoID: productoID,
		Tipo:       filter.Tipo,
		Page:       filter.Page,
		Limit:      filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovimientoStockResponse, len(movs))
	for i := range movs {
		data[i] = movimientoToResponse(&movs[i])
	}
	return &dto.MovimientoStockListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ObtenerAlertas lists active products at or below their minimum stock.
func (s *inventarioService) ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.repo.ListBajoStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AlertaStockResponse, len(productos))
	for i, p := range productos {
		out[i] = dto.AlertaStockResponse{
			ProductoID:  p.ID.String(),
			Codigo:      p.Codigo,
			Nombre:      p.Nombre,
			Stock:       p.Stock,
			StockMinimo: p.StockMinimo,
		}
	}
	return out, nil
}
