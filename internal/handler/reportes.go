package handler

import (
	"fmt"
	"net/http"

	"adriani/internal/dto"
	"adriani/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// Financiero godoc
// @Summary Reporte financiero del periodo
// @Description Sin fechas el periodo va del primer dia del mes a hoy.
// @Tags reportes
// @Produce json
// @Security BearerAuth
// @Param desde query string false "AAAA-MM-DD"
// @Param hasta query string false "AAAA-MM-DD, inclusive"
// @Success 200 {object} dto.ReporteFinancieroResponse
// @Router /v1/reportes/financiero [get]
func (h *ReportesHandler) Financiero(c *gin.Context) {
	var filter dto.ReporteFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Financiero(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) Productos(c *gin.Context) {
	var filter dto.ReporteFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Productos(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) FinancieroPDF(c *gin.Context) {
	var filter dto.ReporteFilter
	if !bindQuery(c, &filter) {
		return
	}
	data, err := h.svc.FinancieroPDF(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	enviarArchivo(c, "reporte-financiero.pdf", mimePDF, data)
}

func (h *ReportesHandler) FinancieroExcel(c *gin.Context) {
	var filter dto.ReporteFilter
	if !bindQuery(c, &filter) {
		return
	}
	data, err := h.svc.FinancieroExcel(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	enviarArchivo(c, "reporte-financiero.xlsx", mimeXLSX, data)
}

// ── Estado de cuenta ──────────────────────────────────────────────────────────

func (h *ReportesHandler) EstadoCuenta(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.EstadoCuenta(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) EstadoCuentaPDF(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	data, err := h.svc.EstadoCuentaPDF(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	enviarArchivo(c, fmt.Sprintf("estado-cuenta-%s.pdf", id), mimePDF, data)
}

// EnviarEstadoCuenta godoc
// @Summary Enviar estado de cuenta por email
// @Description Encola un correo con el PDF adjunto. Sin email en el cuerpo se usa el del cliente.
// @Tags clientes
// @Accept json
// @Security BearerAuth
// @Param id path string true "ID del cliente"
// @Param body body dto.EnviarEstadoCuentaRequest false "Destino"
// @Success 202
// @Failure 422 {object} apierror.APIError
// @Router /v1/clientes/{id}/estado-cuenta/enviar [post]
func (h *ReportesHandler) EnviarEstadoCuenta(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.EnviarEstadoCuentaRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.EnviarEstadoCuenta(c.Request.Context(), id, req); err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"encolado": true})
}
