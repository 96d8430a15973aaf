package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRow is the remote shape of a ticket.
// Notes: "PENDIENTE" | "ANULADO" | <payment method>
// Type: "sale" | "refund"
type SaleRow struct {
	ID          string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	StoreID     string          `gorm:"type:varchar(64);index;not null" json:"store_id"`
	Date        string          `gorm:"type:varchar(10);not null" json:"date"`
	Time        string          `gorm:"type:varchar(8)" json:"time"`
	TableNumber int             `gorm:"not null;default:0" json:"table_number"`
	Waiter      string          `json:"waiter"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	// OrderJSON holds the order lines as JSON text
	OrderJSON  string    `gorm:"column:order_items;type:text;not null" json:"order_items"`
	Type       string    `gorm:"type:varchar(10);not null;default:'sale'" json:"type"`
	Notes      string    `json:"notes"`
	Closed     bool      `gorm:"not null;default:false" json:"closed"`
	ClosureID  *string   `gorm:"type:varchar(64)" json:"closure_id"`
	AuditNotes string    `gorm:"column:audit_notes;type:text" json:"audit_notes"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false;index" json:"created_at"`
	SyncMeta
}

func (SaleRow) TableName() string { return TableSales }
func (r SaleRow) RowID() string   { return r.ID }
func (r SaleRow) Tenant() string  { return r.StoreID }
