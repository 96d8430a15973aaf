package model

import (
	"time"
)

// SyncMeta is embedded in every remote row. The store owns it: Revision is
// bumped on every accepted write and Fingerprint is the hash of the row
// content without these fields.
type SyncMeta struct {
	Revision    int64     `gorm:"not null;default:0" json:"revision"`
	Fingerprint string    `gorm:"type:varchar(64)" json:"fingerprint"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (m *SyncMeta) Meta() *SyncMeta { return m }

// Row is implemented by pointers to every remote row struct.
type Row interface {
	TableName() string
	RowID() string
	Tenant() string
	Meta() *SyncMeta
}

// Table names of the remote store.
const (
	TableSales          = "sales"
	TableDayClosures    = "day_closures"
	TableExpenses       = "expenses"
	TableCashInjections = "cash_injections"
	TableSettings       = "settings"
	TableMenuCategories = "menu_categories"
	TableMenuItems      = "menu_items"
	TableModifierGroups = "modifier_groups"
)

// All lists the row types the store must create (tests, migrations).
func All() []any {
	return []any{
		&SaleRow{},
		&DayClosureRow{},
		&ExpenseRow{},
		&CashInjectionRow{},
		&SettingsRow{},
		&MenuCategoryRow{},
		&MenuItemRow{},
		&ModifierGroupRow{},
	}
}
