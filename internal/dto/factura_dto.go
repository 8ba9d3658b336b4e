package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemFacturaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

type CrearFacturaRequest struct {
	ClienteID        string               `json:"cliente_id"        validate:"required,uuid"`
	FechaDespacho    string               `json:"fecha_despacho"    validate:"required,datetime=2006-01-02"`
	FechaVencimiento string               `json:"fecha_vencimiento" validate:"required,datetime=2006-01-02"`
	Items            []ItemFacturaRequest `json:"items"             validate:"required,min=1,dive"`
	Observaciones    *string              `json:"observaciones"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type FacturaFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Estado    string `form:"estado"     validate:"omitempty,oneof=Creada Pendiente Vencida Pagado Cancelada"`
	Desde     string `form:"desde"      validate:"omitempty,datetime=2006-01-02"`
	Hasta     string `form:"hasta"      validate:"omitempty,datetime=2006-01-02"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemFacturaResponse struct {
	ProductoID     string          `json:"producto_id"`
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type AbonoFacturaResponse struct {
	PagoID string          `json:"pago_id"`
	Monto  decimal.Decimal `json:"monto"`
	Fecha  string          `json:"fecha"`
}

type FacturaResponse struct {
	ID               string                 `json:"id"`
	Numero           int                    `json:"numero"`
	ClienteID        string                 `json:"cliente_id"`
	Cliente          string                 `json:"cliente"`
	MontoTotal       decimal.Decimal        `json:"monto_total"`
	Restante         decimal.Decimal        `json:"restante"`
	Estado           string                 `json:"estado"`
	FechaDespacho    string                 `json:"fecha_despacho"`
	FechaVencimiento string                 `json:"fecha_vencimiento"`
	Observaciones    *string                `json:"observaciones"`
	Items            []ItemFacturaResponse  `json:"items"`
	Abonos           []AbonoFacturaResponse `json:"abonos"`
	CreatedAt        string                 `json:"created_at"`
}

type FacturaListResponse struct {
	Data  []FacturaResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type ItemDesgloseResponse struct {
	ProductoID        string          `json:"producto_id"`
	Producto          string          `json:"producto"`
	Cantidad          int             `json:"cantidad"`
	PrecioUnitario    decimal.Decimal `json:"precio_unitario"`
	CantidadPagada    decimal.Decimal `json:"cantidad_pagada"`
	CantidadPendiente decimal.Decimal `json:"cantidad_pendiente"`
	MontoPagado       decimal.Decimal `json:"monto_pagado"`
}

type DesgloseFacturaResponse struct {
	FacturaID      string                 `json:"factura_id"`
	MontoTotal     decimal.Decimal        `json:"monto_total"`
	Restante       decimal.Decimal        `json:"restante"`
	FraccionPagada decimal.Decimal        `json:"fraccion_pagada"`
	Items          []ItemDesgloseResponse `json:"items"`
}

type BarridoEstadosResponse struct {
	Pendientes int64 `json:"pendientes"`
	Vencidas   int64 `json:"vencidas"`
}
