package conciliacion

import (
	"sort"

	"adriani/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asignacion is the amount of a payment to apply to one invoice.
type Asignacion struct {
	FacturaID uuid.UUID
	Monto     decimal.Decimal
}

// AsignarFIFO splits monto across facturas, oldest due date first (creation
// date breaks ties). Terminal invoices and invoices with nothing left are
// skipped. It returns the allocations and the amount that did not fit.
func AsignarFIFO(monto decimal.Decimal, facturas []model.Factura) ([]Asignacion, decimal.Decimal) {
	if !monto.IsPositive() {
		return nil, decimal.Zero
	}

	abiertas := make([]model.Factura, 0, len(facturas))
	for _, f := range facturas {
		if f.Estado.EsTerminal() || !f.Restante.IsPositive() {
			continue
		}
		abiertas = append(abiertas, f)
	}
	sort.SliceStable(abiertas, func(i, j int) bool {
		a, b := abiertas[i], abiertas[j]
		if !a.FechaVencimiento.Equal(b.FechaVencimiento) {
			return a.FechaVencimiento.Before(b.FechaVencimiento)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	restante := monto
	var out []Asignacion
	for _, f := range abiertas {
		if !restante.IsPositive() {
			break
		}
		parte := decimal.Min(restante, f.Restante)
		out = append(out, Asignacion{FacturaID: f.ID, Monto: parte})
		restante = restante.Sub(parte)
	}
	return out, restante
}
