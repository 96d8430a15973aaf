package handler

import (
	"net/http"

	"posync/internal/dto"
	"posync/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// List handles GET /v1/sales. Closed sales are hidden unless include_closed=true.
func (h *SalesHandler) List(c *gin.Context) {
	var f dto.SaleFilter
	if !bindQuery(c, &f) {
		return
	}
	c.JSON(http.StatusOK, h.svc.List(f))
}

func (h *SalesHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Record handles POST /v1/sales. The write is accepted locally and synced in
// the background, hence 202.
func (h *SalesHandler) Record(c *gin.Context) {
	var req dto.RecordSaleRequest
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

func (h *SalesHandler) Void(c *gin.Context) {
	var req dto.VoidSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.reply(c)(h.svc.Void(c.Param("id"), req))
}

func (h *SalesHandler) Pay(c *gin.Context) {
	var req dto.PaySaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.reply(c)(h.svc.Pay(c.Param("id"), req))
}

func (h *SalesHandler) Reopen(c *gin.Context) {
	var req dto.ReopenSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.reply(c)(h.svc.Reopen(c.Param("id"), req))
}

func (h *SalesHandler) SetKitchenStatus(c *gin.Context) {
	line, ok := lineParam(c)
	if !ok {
		return
	}
	var req dto.KitchenStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.reply(c)(h.svc.SetKitchenStatus(c.Param("id"), line, req))
}

func (h *SalesHandler) MarkServed(c *gin.Context) {
	line, ok := lineParam(c)
	if !ok {
		return
	}
	h.reply(c)(h.svc.MarkServed(c.Param("id"), line))
}

func (h *SalesHandler) RemoveItem(c *gin.Context) {
	line, ok := lineParam(c)
	if !ok {
		return
	}
	var req dto.RemoveItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.reply(c)(h.svc.RemoveItem(c.Param("id"), line, req))
}

func (h *SalesHandler) reply(c *gin.Context) func(*dto.SaleResponse, error) {
	return func(resp *dto.SaleResponse, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, resp)
	}
}
