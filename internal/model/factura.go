package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EstadoFactura is the lifecycle state of an invoice.
type EstadoFactura string

const (
	EstadoCreada    EstadoFactura = "Creada"
	EstadoPendiente EstadoFactura = "Pendiente"
	EstadoVencida   EstadoFactura = "Vencida"
	EstadoPagado    EstadoFactura = "Pagado"
	EstadoCancelada EstadoFactura = "Cancelada"
)

// EsTerminal reports whether no further transition may leave the state.
func (e EstadoFactura) EsTerminal() bool {
	return e == EstadoPagado || e == EstadoCancelada
}

// Valido reports whether e is one of the known states.
func (e EstadoFactura) Valido() bool {
	switch e {
	case EstadoCreada, EstadoPendiente, EstadoVencida, EstadoPagado, EstadoCancelada:
		return true
	}
	return false
}

// Factura is a billing document for a client.
// Invariant: 0 <= Restante <= MontoTotal.
type Factura struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Numero           int             `gorm:"uniqueIndex;not null"`
	ClienteID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	MontoTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Restante         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado           EstadoFactura   `gorm:"type:varchar(20);index;not null;default:'Creada'"`
	FechaDespacho    time.Time       `gorm:"not null"`
	FechaVencimiento time.Time       `gorm:"index;not null"`
	Observaciones    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Cliente      *Cliente      `gorm:"foreignKey:ClienteID"`
	Items        []FacturaItem `gorm:"foreignKey:FacturaID"`
	Asignaciones []PagoFactura `gorm:"foreignKey:FacturaID"`
}

func (Factura) TableName() string { return "facturas" }

func (f *Factura) BeforeCreate(*gorm.DB) error { asignarID(&f.ID); return nil }

// FacturaItem is one line of an invoice. PrecioUnitario is copied from the
// product when the invoice is created, so later price changes do not alter it.
type FacturaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	FacturaID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (FacturaItem) TableName() string { return "factura_items" }

func (i *FacturaItem) BeforeCreate(*gorm.DB) error { asignarID(&i.ID); return nil }

// InicioDelDia returns midnight of t in t's location.
func InicioDelDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
