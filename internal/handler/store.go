package handler

import (
	"net/http"

	"posync/internal/dto"
	"posync/internal/service"

	"github.com/gin-gonic/gin"
)

type StoreHandler struct{ svc service.StoreService }

func NewStoreHandler(svc service.StoreService) *StoreHandler { return &StoreHandler{svc: svc} }

func (h *StoreHandler) GetSettings(c *gin.Context) {
	resp, err := h.svc.GetSettings()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) SaveSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SaveSettings(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *StoreHandler) GetMenu(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GetMenu())
}

// PublishMenu handles PUT /v1/menu: the body replaces the whole catalog.
func (h *StoreHandler) PublishMenu(c *gin.Context) {
	var req dto.MenuRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.PublishMenu(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}
