package handler

import (
	"fmt"
	"net/http"

	"adriani/internal/dto"
	"adriani/internal/service"

	"github.com/gin-gonic/gin"
)

type FacturasHandler struct {
	svc      service.FacturaService
	reportes service.ReporteService
}

func NewFacturasHandler(svc service.FacturaService, reportes service.ReporteService) *FacturasHandler {
	return &FacturasHandler{svc: svc, reportes: reportes}
}

// Crear godoc
// @Summary Crear factura
// @Description Copia el precio vigente de cada producto y descuenta stock. La factura nace en estado Creada.
// @Tags facturas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearFacturaRequest true "Factura"
// @Success 201 {object} dto.FacturaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/facturas [post]
func (h *FacturasHandler) Crear(c *gin.Context) {
	var req dto.CrearFacturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *FacturasHandler) Listar(c *gin.Context) {
	var filter dto.FacturaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FacturasHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar godoc
// @Summary Cancelar factura
// @Description Rechazada con 409 si la factura tiene pagos o ya esta pagada. Devuelve el stock.
// @Tags facturas
// @Security BearerAuth
// @Param id path string true "ID de la factura"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/facturas/{id} [delete]
func (h *FacturasHandler) Cancelar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Cancelar(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Desglose godoc
// @Summary Desglose de pago por producto
// @Tags facturas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la factura"
// @Success 200 {object} dto.DesgloseFacturaResponse
// @Router /v1/facturas/{id}/desglose [get]
func (h *FacturasHandler) Desglose(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Desglose(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FacturasHandler) PDF(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	data, numero, err := h.reportes.FacturaPDF(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	enviarArchivo(c, fmt.Sprintf("factura-%06d.pdf", numero), mimePDF, data)
}

// ActualizarEstados runs the daily sweep on demand.
func (h *FacturasHandler) ActualizarEstados(c *gin.Context) {
	resp, err := h.svc.ActualizarEstados(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
