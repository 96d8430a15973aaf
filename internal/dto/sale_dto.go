package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from query string of GET /v1/sales.
type SaleFilter struct {
	Status        string `form:"status"         validate:"omitempty,oneof=open paid voided"`
	Table         *int   `form:"table"          validate:"omitempty,min=0"`
	Date          string `form:"date"           validate:"omitempty,datetime=2006-01-02"`
	IncludeClosed bool   `form:"include_closed"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ModifierRequest struct {
	Group  string          `json:"group"  validate:"required"`
	Option string          `json:"option" validate:"required"`
	Price  decimal.Decimal `json:"price"  validate:"min=0"`
}

type PizzaRequest struct {
	Size      string   `json:"size"       validate:"required"`
	LeftHalf  string   `json:"left_half"`
	RightHalf string   `json:"right_half"`
	Extras    []string `json:"extras"`
}

type OrderItemRequest struct {
	Name      string            `json:"name"      validate:"required,max=120"`
	Price     decimal.Decimal   `json:"price"     validate:"min=0"`
	Quantity  int               `json:"quantity"  validate:"required,min=1"`
	Modifiers []ModifierRequest `json:"modifiers" validate:"omitempty,dive"`
	Pizza     *PizzaRequest     `json:"pizza"     validate:"omitempty"`
}

// RecordSaleRequest creates a ticket, or replaces the order of the ticket
// named by ID. A payment method records the ticket as paid at checkout.
type RecordSaleRequest struct {
	ID            string             `json:"id"             validate:"omitempty,max=64"`
	TableNumber   int                `json:"table_number"   validate:"min=0"`
	Waiter        string             `json:"waiter"         validate:"required"`
	Type          string             `json:"type"           validate:"omitempty,oneof=sale refund"`
	Order         []OrderItemRequest `json:"order"          validate:"required,min=1,dive"`
	PaymentMethod string             `json:"payment_method" validate:"omitempty,max=40,ne=PENDIENTE,ne=ANULADO"`
}

type VoidSaleRequest struct {
	By     string `json:"by"     validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
}

type PaySaleRequest struct {
	Method string `json:"method" validate:"required,max=40,ne=PENDIENTE,ne=ANULADO"`
	By     string `json:"by"     validate:"required"`
}

type ReopenSaleRequest struct {
	By string `json:"by" validate:"required"`
}

type KitchenStatusRequest struct {
	Station string `json:"station" validate:"required"`
	Status  string `json:"status"  validate:"required,oneof=pending preparing ready"`
}

type RemoveItemRequest struct {
	By string `json:"by" validate:"required"`
}

type CloseDayRequest struct {
	By    string `json:"by"    validate:"required"`
	Admin bool   `json:"admin"`
}

type RecordClosureRequest struct {
	ClosedBy       string          `json:"closed_by"        validate:"required"`
	IsAdminClosure bool            `json:"is_admin_closure"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalPending   decimal.Decimal `json:"total_pending"`
	TotalVoided    decimal.Decimal `json:"total_voided"`
	SalesCount     int             `json:"sales_count"      validate:"min=0"`
	ReportIDs      []string        `json:"report_ids"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	Name          string            `json:"name"`
	Price         decimal.Decimal   `json:"price"`
	Quantity      int               `json:"quantity"`
	Modifiers     []ModifierRequest `json:"modifiers,omitempty"`
	Pizza         *PizzaRequest     `json:"pizza,omitempty"`
	KitchenStatus map[string]string `json:"kitchen_status,omitempty"`
	Served        bool              `json:"served"`
	LineTotal     decimal.Decimal   `json:"line_total"`
}

type SaleResponse struct {
	ID          string              `json:"id"`
	StoreID     string              `json:"store_id"`
	Date        string              `json:"date"`
	Time        string              `json:"time"`
	TableNumber int                 `json:"table_number"`
	Waiter      string              `json:"waiter"`
	Total       decimal.Decimal     `json:"total"`
	Order       []OrderItemResponse `json:"order"`
	Type        string              `json:"type"`
	Status      string              `json:"status"`
	Notes       string              `json:"notes"`
	Closed      bool                `json:"closed"`
	ClosureID   *string             `json:"closure_id"`
	AuditNotes  []string            `json:"audit_notes"`
	CreatedAt   time.Time           `json:"created_at"`
	SyncState
}

type ClosureResponse struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	ClosedAt       time.Time       `json:"closed_at"`
	ClosedBy       string          `json:"closed_by"`
	IsAdminClosure bool            `json:"is_admin_closure"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalPending   decimal.Decimal `json:"total_pending"`
	TotalVoided    decimal.Decimal `json:"total_voided"`
	SalesCount     int             `json:"sales_count"`
	ReportIDs      []string        `json:"report_ids"`
	SyncState
}

// SyncState is attached to every record returned by the API.
type SyncState struct {
	Revision    int64  `json:"revision"`
	PendingSync bool   `json:"pending_sync"`
	Attempts    int    `json:"attempts,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}
