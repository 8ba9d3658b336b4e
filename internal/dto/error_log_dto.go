package dto

type ErrorLogFilter struct {
	Servicio string `form:"servicio"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type ErrorLogResponse struct {
	ID        string `json:"id"`
	Servicio  string `json:"servicio"`
	Mensaje   string `json:"mensaje"`
	CreatedAt string `json:"created_at"`
}

type ErrorLogListResponse struct {
	Data  []ErrorLogResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
