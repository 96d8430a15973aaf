package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayClosureRow is immutable once written; ReportIDs holds a JSON array of sale ids.
type DayClosureRow struct {
	ID             string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	StoreID        string          `gorm:"type:varchar(64);index;not null" json:"store_id"`
	Date           string          `gorm:"type:varchar(10);not null" json:"date"`
	ClosedAt       time.Time       `gorm:"not null;index" json:"closed_at"`
	ClosedBy       string          `json:"closed_by"`
	IsAdminClosure bool            `gorm:"not null;default:false" json:"is_admin_closure"`
	TotalPaid      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_paid"`
	TotalPending   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_pending"`
	TotalVoided    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_voided"`
	SalesCount     int             `gorm:"not null" json:"sales_count"`
	ReportIDs      string          `gorm:"column:report_ids;type:text" json:"report_ids"`
	SyncMeta
}

func (DayClosureRow) TableName() string { return TableDayClosures }
func (r DayClosureRow) RowID() string   { return r.ID }
func (r DayClosureRow) Tenant() string  { return r.StoreID }

// ExpenseRow is a flat ledger entry. Category is NULL when uncategorized.
type ExpenseRow struct {
	ID          string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	StoreID     string          `gorm:"type:varchar(64);index;not null" json:"store_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description string          `json:"description"`
	Category    *string         `gorm:"type:varchar(60)" json:"category"`
	Date        string          `gorm:"type:varchar(10);not null;index" json:"date"`
	Time        string          `gorm:"type:varchar(8)" json:"time"`
	User        string          `gorm:"column:user_name" json:"user"`
	SyncMeta
}

func (ExpenseRow) TableName() string { return TableExpenses }
func (r ExpenseRow) RowID() string   { return r.ID }
func (r ExpenseRow) Tenant() string  { return r.StoreID }

type CashInjectionRow struct {
	ID          string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	StoreID     string          `gorm:"type:varchar(64);index;not null" json:"store_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description string          `json:"description"`
	Date        string          `gorm:"type:varchar(10);not null;index" json:"date"`
	Time        string          `gorm:"type:varchar(8)" json:"time"`
	User        string          `gorm:"column:user_name" json:"user"`
	SyncMeta
}

func (CashInjectionRow) TableName() string { return TableCashInjections }
func (r CashInjectionRow) RowID() string   { return r.ID }
func (r CashInjectionRow) Tenant() string  { return r.StoreID }
