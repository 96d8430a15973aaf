package handler

import (
	"net/http"

	"posync/internal/dto"
	"posync/internal/middleware"
	"posync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type SyncHandler struct{ svc service.SyncService }

func NewSyncHandler(svc service.SyncService) *SyncHandler { return &SyncHandler{svc: svc} }

func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status())
}

// Refresh handles POST /v1/sync/refresh. A failed snapshot still answers
// with the resulting status; the UI shows it as offline.
func (h *SyncHandler) Refresh(c *gin.Context) {
	resp, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		log.Warn().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("sync: manual refresh failed")
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SyncHandler) SetVisibility(c *gin.Context) {
	var req dto.VisibilityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.svc.SetVisible(req)
	c.Status(http.StatusNoContent)
}

// SwitchStore handles PUT /v1/sync/store. Unconfirmed writes of the previous
// store are dropped.
func (h *SyncHandler) SwitchStore(c *gin.Context) {
	var req dto.SwitchStoreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SwitchStore(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SyncHandler) Pending(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Pending())
}

func (h *SyncHandler) Retry(c *gin.Context) {
	if err := h.svc.Retry(c.Param("collection"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// Purge handles DELETE /v1/admin/:collection.
func (h *SyncHandler) Purge(c *gin.Context) {
	collection := c.Param("collection")
	if err := h.svc.Purge(c.Request.Context(), collection); err != nil {
		respondError(c, err)
		return
	}
	log.Warn().Str("collection", collection).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("sync: collection purged")
	c.Status(http.StatusNoContent)
}
