package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Metodo de una cuenta receptora.
const (
	MetodoEfectivo      = "efectivo"
	MetodoTransferencia = "transferencia"
	MetodoPagoMovil     = "pago_movil"
	MetodoDivisa        = "divisa"
)

// Monedas soportadas. Las facturas siempre se expresan en USD.
const (
	MonedaUSD = "USD"
	MonedaVES = "VES"
)

// Cuenta is an account or method through which payments are received.
type Cuenta struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre    string    `gorm:"uniqueIndex;not null"`
	Metodo    string    `gorm:"type:varchar(20);not null"`
	Moneda    string    `gorm:"type:varchar(3);not null;default:'USD'"`
	Banco     *string
	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cuenta) TableName() string { return "cuentas" }

func (c *Cuenta) BeforeCreate(*gorm.DB) error { asignarID(&c.ID); return nil }

// Pago is money received from a client. Monto is in the account's currency;
// MontoUSD is the same amount converted with the rate snapshot in Tasa.
type Pago struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClienteID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	CuentaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Monto           decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Moneda          string          `gorm:"type:varchar(3);not null"`
	Tasa            decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	MontoUSD        decimal.Decimal `gorm:"column:monto_usd;type:decimal(12,2);not null"`
	MontoSinAsignar decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Referencia      *string
	Fecha           time.Time `gorm:"index;not null"`
	CreatedAt       time.Time

	Cliente      *Cliente      `gorm:"foreignKey:ClienteID"`
	Cuenta       *Cuenta       `gorm:"foreignKey:CuentaID"`
	Asignaciones []PagoFactura `gorm:"foreignKey:PagoID"`
}

func (Pago) TableName() string { return "pagos" }

func (p *Pago) BeforeCreate(*gorm.DB) error { asignarID(&p.ID); return nil }

// PagoFactura is the portion of a payment allocated to one invoice.
// Monto may exceed the invoice balance at allocation time; the balance is
// clamped at zero and the row keeps the amount as recorded.
type PagoFactura struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PagoID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	FacturaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Monto     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time

	Pago    *Pago    `gorm:"foreignKey:PagoID"`
	Factura *Factura `gorm:"foreignKey:FacturaID"`
}

func (PagoFactura) TableName() string { return "pago_facturas" }

func (a *PagoFactura) BeforeCreate(*gorm.DB) error { asignarID(&a.ID); return nil }

// ConvertirAUSD converts monto to USD using tasa (VES per USD).
// USD amounts and a non-positive tasa return monto unchanged.
func ConvertirAUSD(monto decimal.Decimal, moneda string, tasa decimal.Decimal) decimal.Decimal {
	if moneda != MonedaVES || !tasa.IsPositive() {
		return monto
	}
	return monto.Div(tasa).Round(2)
}
