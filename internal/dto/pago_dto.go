package dto

import "github.com/shopspring/decimal"

// ─── Cuentas ─────────────────────────────────────────────────────────────────

type CrearCuentaRequest struct {
	Nombre string  `json:"nombre" validate:"required,min=2,max=100"`
	Metodo string  `json:"metodo" validate:"required,oneof=efectivo transferencia pago_movil divisa"`
	Moneda string  `json:"moneda" validate:"required,oneof=USD VES"`
	Banco  *string `json:"banco"`
}

type CuentaResponse struct {
	ID     string  `json:"id"`
	Nombre string  `json:"nombre"`
	Metodo string  `json:"metodo"`
	Moneda string  `json:"moneda"`
	Banco  *string `json:"banco"`
	Activo bool    `json:"activo"`
}

// ─── Pagos ───────────────────────────────────────────────────────────────────

type AsignacionRequest struct {
	FacturaID string          `json:"factura_id" validate:"required,uuid"`
	Monto     decimal.Decimal `json:"monto"      validate:"required,gt=0"`
}

// RegistrarPagoRequest registers a payment. Without Asignaciones the amount is
// spread over the client's open invoices, oldest due date first.
type RegistrarPagoRequest struct {
	ClienteID    string              `json:"cliente_id"   validate:"required,uuid"`
	CuentaID     string              `json:"cuenta_id"    validate:"required,uuid"`
	Monto        decimal.Decimal     `json:"monto"        validate:"required,gt=0"`
	Tasa         *decimal.Decimal    `json:"tasa"`
	Referencia   *string             `json:"referencia"   validate:"omitempty,max=60"`
	Fecha        string              `json:"fecha"        validate:"omitempty,datetime=2006-01-02"`
	Asignaciones []AsignacionRequest `json:"asignaciones" validate:"omitempty,dive"`
}

type PagoFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	CuentaID  string `form:"cuenta_id"  validate:"omitempty,uuid"`
	Desde     string `form:"desde"      validate:"omitempty,datetime=2006-01-02"`
	Hasta     string `form:"hasta"      validate:"omitempty,datetime=2006-01-02"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type AsignacionResponse struct {
	FacturaID     string          `json:"factura_id"`
	NumeroFactura int             `json:"numero_factura"`
	Monto         decimal.Decimal `json:"monto"`
	Restante      decimal.Decimal `json:"restante"`
	Estado        string          `json:"estado"`
}

type PagoResponse struct {
	ID              string               `json:"id"`
	ClienteID       string               `json:"cliente_id"`
	Cliente         string               `json:"cliente"`
	CuentaID        string               `json:"cuenta_id"`
	Cuenta          string               `json:"cuenta"`
	Monto           decimal.Decimal      `json:"monto"`
	Moneda          string               `json:"moneda"`
	Tasa            decimal.Decimal      `json:"tasa"`
	MontoUSD        decimal.Decimal      `json:"monto_usd"`
	MontoSinAsignar decimal.Decimal      `json:"monto_sin_asignar"`
	Referencia      *string              `json:"referencia"`
	Fecha           string               `json:"fecha"`
	Asignaciones    []AsignacionResponse `json:"asignaciones"`
}

type PagoListResponse struct {
	Data  []PagoResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
