package handler

import (
	"net/http"

	"adriani/internal/dto"
	"adriani/internal/service"

	"github.com/gin-gonic/gin"
)

type ErroresHandler struct{ rec service.ErrorRecorder }

func NewErroresHandler(rec service.ErrorRecorder) *ErroresHandler {
	return &ErroresHandler{rec: rec}
}

func (h *ErroresHandler) Listar(c *gin.Context) {
	var filter dto.ErrorLogFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.rec.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
