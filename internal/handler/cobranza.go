package handler

import (
	"net/http"

	"adriani/internal/dto"
	"adriani/internal/service"

	"github.com/gin-gonic/gin"
)

type CobranzaHandler struct{ svc service.CobranzaService }

func NewCobranzaHandler(svc service.CobranzaService) *CobranzaHandler {
	return &CobranzaHandler{svc: svc}
}

// EncolarRecordatorios godoc
// @Summary Generar recordatorios de cobranza
// @Description Un recordatorio pendiente por cliente moroso con telefono, salvo los ya avisados hoy.
// @Tags cobranza
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.EncolarRecordatoriosResponse
// @Router /v1/cobranza/recordatorios [post]
func (h *CobranzaHandler) EncolarRecordatorios(c *gin.Context) {
	resp, err := h.svc.EncolarRecordatorios(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Enviar godoc
// @Summary Enviar recordatorios pendientes
// @Description Encola el envio por lotes en el worker pool y responde de inmediato.
// @Tags cobranza
// @Security BearerAuth
// @Success 202
// @Router /v1/cobranza/recordatorios/enviar [post]
func (h *CobranzaHandler) Enviar(c *gin.Context) {
	if err := h.svc.SolicitarEnvio(c.Request.Context()); err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"encolado": true})
}

func (h *CobranzaHandler) Morosos(c *gin.Context) {
	resp, err := h.svc.Morosos(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CobranzaHandler) Historial(c *gin.Context) {
	var filter dto.HistorialFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Historial(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
