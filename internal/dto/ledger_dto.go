package dto

import "github.com/shopspring/decimal"

type RecordExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,max=200"`
	Category    *string         `json:"category"    validate:"omitempty,max=60"`
	User        string          `json:"user"        validate:"required"`
	Date        string          `json:"date"        validate:"omitempty,datetime=2006-01-02"`
	Time        string          `json:"time"        validate:"omitempty,datetime=15:04"`
}

type RecordInjectionRequest struct {
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,max=200"`
	User        string          `json:"user"        validate:"required"`
	Date        string          `json:"date"        validate:"omitempty,datetime=2006-01-02"`
	Time        string          `json:"time"        validate:"omitempty,datetime=15:04"`
}

// LedgerEntryResponse serves both expenses and cash injections.
type LedgerEntryResponse struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    *string         `json:"category,omitempty"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	User        string          `json:"user"`
	SyncState
}
