package handler

import (
	"net/http"

	"posync/internal/dto"
	"posync/internal/service"

	"github.com/gin-gonic/gin"
)

// LedgerHandler serves expenses and cash injections. Both lists accept
// ?date=YYYY-MM-DD.
type LedgerHandler struct{ svc service.LedgerService }

func NewLedgerHandler(svc service.LedgerService) *LedgerHandler { return &LedgerHandler{svc: svc} }

func (h *LedgerHandler) ListExpenses(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListExpenses(c.Query("date")))
}

func (h *LedgerHandler) RecordExpense(c *gin.Context) {
	var req dto.RecordExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordExpense(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *LedgerHandler) ListInjections(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListInjections(c.Query("date")))
}

func (h *LedgerHandler) RecordInjection(c *gin.Context) {
	var req dto.RecordInjectionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordInjection(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}
