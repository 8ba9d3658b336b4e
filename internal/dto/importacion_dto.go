package dto

// ImportErrorRow describes a row rejected during an Excel import.
type ImportErrorRow struct {
	Fila   int    `json:"fila"`
	Motivo string `json:"motivo"`
}

type ImportResponse struct {
	TotalFilas   int              `json:"total_filas"`
	Importados   int              `json:"importados"`
	Actualizados int              `json:"actualizados"`
	Errores      []ImportErrorRow `json:"errores"`
}
