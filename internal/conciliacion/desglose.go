package conciliacion

import (
	"sort"

	"adriani/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemDesglose is the paid/owed split of one invoice line.
type ItemDesglose struct {
	ProductoID        uuid.UUID
	Producto          string
	Cantidad          int
	PrecioUnitario    decimal.Decimal
	CantidadPagada    decimal.Decimal
	CantidadPendiente decimal.Decimal
	MontoPagado       decimal.Decimal
}

// Desglose is the breakdown of a single invoice.
type Desglose struct {
	FacturaID      uuid.UUID
	MontoTotal     decimal.Decimal
	Restante       decimal.Decimal
	FraccionPagada decimal.Decimal
	Items          []ItemDesglose
}

// FraccionPagada returns (total - restante) / total, bounded to [0, 1].
// A zero total counts as fully paid.
func FraccionPagada(total, restante decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.NewFromInt(1)
	}
	f := total.Sub(restante).Div(total)
	if f.IsNegative() {
		return decimal.Zero
	}
	if f.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return f
}

// Desglosar splits the amount already paid on f across its items in order.
// Each item consumes whole units while the paid amount covers its unit price,
// then one fractional unit takes whatever is left. Items priced at zero, and
// every item of a zero-total invoice, count as paid.
func Desglosar(f *model.Factura) Desglose {
	d := Desglose{
		FacturaID:      f.ID,
		MontoTotal:     f.MontoTotal,
		Restante:       f.Restante,
		FraccionPagada: FraccionPagada(f.MontoTotal, f.Restante),
		Items:          make([]ItemDesglose, 0, len(f.Items)),
	}

	disponible := f.MontoTotal.Sub(f.Restante)
	if disponible.IsNegative() {
		disponible = decimal.Zero
	}
	todoPagado := !f.MontoTotal.IsPositive()

	for _, it := range f.Items {
		cantidad := decimal.NewFromInt(int64(it.Cantidad))
		item := ItemDesglose{
			ProductoID:     it.ProductoID,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
		}
		if it.Producto != nil {
			item.Producto = it.Producto.Nombre
		}

		pagadas := decimal.Zero
		switch {
		case todoPagado || !it.PrecioUnitario.IsPositive():
			pagadas = cantidad
		case disponible.IsPositive():
			enteras := decimal.Min(disponible.Div(it.PrecioUnitario).Floor(), cantidad)
			pagadas = enteras
			disponible = disponible.Sub(enteras.Mul(it.PrecioUnitario))
			if pagadas.LessThan(cantidad) && disponible.IsPositive() {
				pagadas = pagadas.Add(disponible.Div(it.PrecioUnitario).Round(4))
				disponible = decimal.Zero
			}
		}

		item.CantidadPagada = pagadas
		item.CantidadPendiente = cantidad.Sub(pagadas)
		item.MontoPagado = pagadas.Mul(it.PrecioUnitario).Round(2)
		d.Items = append(d.Items, item)
	}
	return d
}

// ResumenProducto aggregates sold, paid and owed units of one product.
type ResumenProducto struct {
	ProductoID   uuid.UUID
	Producto     string
	Vendido      decimal.Decimal
	Pagado       decimal.Decimal
	Pendiente    decimal.Decimal
	MontoVendido decimal.Decimal
	MontoPagado  decimal.Decimal
}

// ResumirProductos runs Desglosar over every non-cancelled invoice and sums
// the result per product, sorted by product name.
func ResumirProductos(facturas []model.Factura) []ResumenProducto {
	acumulado := make(map[uuid.UUID]*ResumenProducto)
	for i := range facturas {
		f := &facturas[i]
		if f.Estado == model.EstadoCancelada {
			continue
		}
		for _, it := range Desglosar(f).Items {
			r, ok := acumulado[it.ProductoID]
			if !ok {
				r = &ResumenProducto{ProductoID: it.ProductoID, Producto: it.Producto}
				acumulado[it.ProductoID] = r
			}
			cantidad := decimal.NewFromInt(int64(it.Cantidad))
			r.Vendido = r.Vendido.Add(cantidad)
			r.Pagado = r.Pagado.Add(it.CantidadPagada)
			r.Pendiente = r.Pendiente.Add(it.CantidadPendiente)
			r.MontoVendido = r.MontoVendido.Add(cantidad.Mul(it.PrecioUnitario))
			r.MontoPagado = r.MontoPagado.Add(it.MontoPagado)
		}
	}

	out := make([]ResumenProducto, 0, len(acumulado))
	for _, r := range acumulado {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Producto != out[j].Producto {
			return out[i].Producto < out[j].Producto
		}
		return out[i].ProductoID.String() < out[j].ProductoID.String()
	})
	return out
}
