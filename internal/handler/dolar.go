package handler

import (
	"net/http"

	"adriani/internal/apierror"
	"adriani/internal/dto"
	"adriani/internal/service"

	"github.com/gin-gonic/gin"
)

type DolarHandler struct{ svc service.DolarService }

func NewDolarHandler(svc service.DolarService) *DolarHandler { return &DolarHandler{svc: svc} }

// Actual godoc
// @Summary Tasa del dolar vigente
// @Tags dolar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TasaDolarResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/dolar [get]
func (h *DolarHandler) Actual(c *gin.Context) {
	resp, err := h.svc.Actual(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DolarHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarTasaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Actualizar pulls the rate from the external API now.
func (h *DolarHandler) Actualizar(c *gin.Context) {
	resp, err := h.svc.Actualizar(c.Request.Context())
	if err != nil {
		if status := statusDe(err); status != 0 {
			responderError(c, err)
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, apierror.New("No se pudo obtener la tasa del proveedor externo"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
