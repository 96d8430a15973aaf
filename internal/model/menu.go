package model

import (
	"github.com/shopspring/decimal"
)

type MenuCategoryRow struct {
	ID       string `gorm:"type:varchar(64);primaryKey" json:"id"`
	StoreID  string `gorm:"type:varchar(64);index;not null" json:"store_id"`
	Name     string `gorm:"not null" json:"name"`
	Position int    `gorm:"not null;default:0" json:"position"`
	SyncMeta
}

func (MenuCategoryRow) TableName() string { return TableMenuCategories }
func (r MenuCategoryRow) RowID() string   { return r.ID }
func (r MenuCategoryRow) Tenant() string  { return r.StoreID }

// MenuItemRow: ModifierGroupIDs is a JSON array of modifier group ids.
type MenuItemRow struct {
	ID               string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	StoreID          string          `gorm:"type:varchar(64);index;not null" json:"store_id"`
	CategoryID       string          `gorm:"type:varchar(64);index;not null" json:"category_id"`
	Name             string          `gorm:"not null" json:"name"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Description      *string         `json:"description"`
	Available        bool            `gorm:"not null;default:true" json:"available"`
	IsPizza          bool            `gorm:"not null;default:false" json:"is_pizza"`
	ModifierGroupIDs string          `gorm:"column:modifier_group_ids;type:text" json:"modifier_group_ids"`
	Position         int             `gorm:"not null;default:0" json:"position"`
	SyncMeta
}

func (MenuItemRow) TableName() string { return TableMenuItems }
func (r MenuItemRow) RowID() string   { return r.ID }
func (r MenuItemRow) Tenant() string  { return r.StoreID }

// ModifierGroupRow: Options is a JSON array of {name, price}.
type ModifierGroupRow struct {
	ID            string `gorm:"type:varchar(64);primaryKey" json:"id"`
	StoreID       string `gorm:"type:varchar(64);index;not null" json:"store_id"`
	Name          string `gorm:"not null" json:"name"`
	Required      bool   `gorm:"not null;default:false" json:"required"`
	MaxSelections int    `gorm:"not null;default:1" json:"max_selections"`
	Options       string `gorm:"type:text" json:"options"`
	Position      int    `gorm:"not null;default:0" json:"position"`
	SyncMeta
}

func (ModifierGroupRow) TableName() string { return TableModifierGroups }
func (r ModifierGroupRow) RowID() string   { return r.ID }
func (r ModifierGroupRow) Tenant() string  { return r.StoreID }

// MenuRows is the full remote catalog of one store, replaced as a unit.
type MenuRows struct {
	Categories     []*MenuCategoryRow
	Items          []*MenuItemRow
	ModifierGroups []*ModifierGroupRow
}
