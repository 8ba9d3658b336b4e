package dto

import "github.com/shopspring/decimal"

type EncolarRecordatoriosResponse struct {
	Encolados int `json:"encolados"`
	Omitidos  int `json:"omitidos"`
}

// ResultadoEnvio summarises one run of the reminder batch sender.
type ResultadoEnvio struct {
	Lotes    int `json:"lotes"`
	Enviados int `json:"enviados"`
	Fallidos int `json:"fallidos"`
}

type MorosoResponse struct {
	ClienteID   string          `json:"cliente_id"`
	Cliente     string          `json:"cliente"`
	Telefono    *string         `json:"telefono"`
	Facturas    int             `json:"facturas"`
	TotalDeuda  decimal.Decimal `json:"total_deuda"`
	MasAntigua  string          `json:"mas_antigua"`
	UltimoAviso *string         `json:"ultimo_aviso"`
}

type HistorialFilter struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Exitoso   string `form:"exitoso"    validate:"omitempty,oneof=true false"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type HistorialMensajeResponse struct {
	ID        string  `json:"id"`
	ClienteID string  `json:"cliente_id"`
	Telefono  string  `json:"telefono"`
	Mensaje   string  `json:"mensaje"`
	Exitoso   bool    `json:"exitoso"`
	Error     *string `json:"error"`
	CreatedAt string  `json:"created_at"`
}

type HistorialListResponse struct {
	Data  []HistorialMensajeResponse `json:"data"`
	Total int64                      `json:"total"`
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
}

type EnviarEstadoCuentaRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
}
