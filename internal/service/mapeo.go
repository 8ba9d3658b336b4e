package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"adriani/internal/dto"
	"adriani/internal/model"

	"github.com/google/uuid"
)

const (
	formatoFecha     = "2006-01-02"
	formatoFechaHora = time.RFC3339
)

// parseFecha reads a YYYY-MM-DD date as midnight in loc.
func parseFecha(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(formatoFecha, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha %q, se espera AAAA-MM-DD", ErrDatoInvalido, s)
	}
	return t, nil
}

// rangoFechas resolves an inclusive [desde, hasta] pair of dates into the
// half-open instant range [desde 00:00, hasta+1 00:00). Empty bounds yield nil.
func rangoFechas(desde, hasta string, loc *time.Location) (*time.Time, *time.Time, error) {
	var d, h *time.Time
	if desde != "" {
		t, err := parseFecha(desde, loc)
		if err != nil {
			return nil, nil, err
		}
		d = &t
	}
	if hasta != "" {
		t, err := parseFecha(hasta, loc)
		if err != nil {
			return nil, nil, err
		}
		t = t.AddDate(0, 0, 1)
		h = &t
	}
	return d, h, nil
}

func parseUUIDOpcional(s, campo string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDatoInvalido, campo)
	}
	return &id, nil
}

// normalizarTelefono keeps only digits; an empty result becomes nil.
func normalizarTelefono(s *string) *string {
	if s == nil {
		return nil
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, *s)
	if digits == "" {
		return nil
	}
	return &digits
}

func normalizarDocumento(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

func textoOpcional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func clienteToResponse(c *model.Cliente) dto.ClienteResponse {
	r := dto.ClienteResponse{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		Documento: c.Documento,
		Telefono:  c.Telefono,
		Email:     c.Email,
		Direccion: c.Direccion,
		Activo:    c.Activo,
	}
	if c.BloqueID != nil {
		id := c.BloqueID.String()
		r.BloqueID = &id
	}
	if c.Bloque != nil {
		r.Bloque = &c.Bloque.Nombre
	}
	return r
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		ID:          p.ID.String(),
		Codigo:      p.Codigo,
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Precio:      p.Precio,
		Stock:       p.Stock,
		StockMinimo: p.StockMinimo,
		Activo:      p.Activo,
	}
}

func facturaToResponse(f *model.Factura, loc *time.Location) dto.FacturaResponse {
	r := dto.FacturaResponse{
		ID:               f.ID.String(),
		Numero:           f.Numero,
		ClienteID:        f.ClienteID.String(),
		MontoTotal:       f.MontoTotal,
		Restante:         f.Restante,
		Estado:           string(f.Estado),
		FechaDespacho:    f.FechaDespacho.In(loc).Format(formatoFecha),
		FechaVencimiento: f.FechaVencimiento.In(loc).Format(formatoFecha),
		Observaciones:    f.Observaciones,
		Items:            make([]dto.ItemFacturaResponse, len(f.Items)),
		Abonos:           make([]dto.AbonoFacturaResponse, len(f.Asignaciones)),
		CreatedAt:        f.CreatedAt.In(loc).Format(formatoFechaHora),
	}
	if f.Cliente != nil {
		r.Cliente = f.Cliente.Nombre
	}
	for i, it := range f.Items {
		item := dto.ItemFacturaResponse{
			ProductoID:     it.ProductoID.String(),
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		}
		if it.Producto != nil {
			item.Producto = it.Producto.Nombre
		}
		r.Items[i] = item
	}
	for i, a := range f.Asignaciones {
		r.Abonos[i] = dto.AbonoFacturaResponse{
			PagoID: a.PagoID.String(),
			Monto:  a.Monto,
			Fecha:  a.CreatedAt.In(loc).Format(formatoFechaHora),
		}
	}
	return r
}

func movimientoToResponse(m *model.MovimientoStock) dto.MovimientoStockResponse {
	r := dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Tipo:          m.Tipo,
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		Motivo:        m.Motivo,
		CreatedAt:     m.CreatedAt.Format(formatoFechaHora),
	}
	if m.Producto != nil {
		r.Producto = m.Producto.Nombre
	}
	if m.ReferenciaID != nil {
		id := m.ReferenciaID.String()
		r.ReferenciaID = &id
	}
	return r
}
