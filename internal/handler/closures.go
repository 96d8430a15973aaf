package handler

import (
	"net/http"

	"posync/internal/dto"
	"posync/internal/service"

	"github.com/gin-gonic/gin"
)

type ClosuresHandler struct{ svc service.ClosureService }

func NewClosuresHandler(svc service.ClosureService) *ClosuresHandler {
	return &ClosuresHandler{svc: svc}
}

func (h *ClosuresHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.List())
}

func (h *ClosuresHandler) Record(c *gin.Context) {
	var req dto.RecordClosureRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Record(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// CloseDay handles POST /v1/closures/close-day.
func (h *ClosuresHandler) CloseDay(c *gin.Context) {
	var req dto.CloseDayRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CloseDay(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}
