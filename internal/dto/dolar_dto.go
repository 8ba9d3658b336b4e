package dto

import "github.com/shopspring/decimal"

type RegistrarTasaRequest struct {
	Valor decimal.Decimal `json:"valor" validate:"gt=0"`
}

type TasaDolarResponse struct {
	Valor  decimal.Decimal `json:"valor"`
	Fuente string          `json:"fuente"`
	Fecha  string          `json:"fecha"`
}
