package dto

import "github.com/shopspring/decimal"

type ReporteFilter struct {
	Desde string `form:"desde" validate:"omitempty,datetime=2006-01-02"`
	Hasta string `form:"hasta" validate:"omitempty,datetime=2006-01-02"`
}

type ResumenProductoResponse struct {
	ProductoID   string          `json:"producto_id"`
	Producto     string          `json:"producto"`
	Vendido      decimal.Decimal `json:"vendido"`
	Pagado       decimal.Decimal `json:"pagado"`
	Pendiente    decimal.Decimal `json:"pendiente"`
	MontoVendido decimal.Decimal `json:"monto_vendido"`
	MontoPagado  decimal.Decimal `json:"monto_pagado"`
}

type CobroPorCuentaResponse struct {
	CuentaID string          `json:"cuenta_id"`
	Cuenta   string          `json:"cuenta"`
	Moneda   string          `json:"moneda"`
	Monto    decimal.Decimal `json:"monto"`
	MontoUSD decimal.Decimal `json:"monto_usd"`
	Pagos    int             `json:"pagos"`
}

type ReporteFinancieroResponse struct {
	Desde          string                    `json:"desde"`
	Hasta          string                    `json:"hasta"`
	TotalFacturado decimal.Decimal           `json:"total_facturado"`
	TotalCobrado   decimal.Decimal           `json:"total_cobrado"`
	TotalPendiente decimal.Decimal           `json:"total_pendiente"`
	Facturas       int                       `json:"facturas"`
	PorEstado      map[string]int            `json:"por_estado"`
	PorCuenta      []CobroPorCuentaResponse  `json:"por_cuenta"`
	Productos      []ResumenProductoResponse `json:"productos"`
}

type EstadoCuentaResponse struct {
	Cliente    ClienteResponse   `json:"cliente"`
	Facturas   []FacturaResponse `json:"facturas"`
	TotalDeuda decimal.Decimal   `json:"total_deuda"`
	Generado   string            `json:"generado"`
}
