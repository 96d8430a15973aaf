package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Settings ────────────────────────────────────────────────────────────────

type StaffUserRequest struct {
	Name string `json:"name" validate:"required"`
	PIN  string `json:"pin"  validate:"required,numeric,min=4,max=8"`
	Role string `json:"role" validate:"required,oneof=waiter kitchen cashier admin"`
}

type LicenseRequest struct {
	Plan      string     `json:"plan"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type SettingsRequest struct {
	BusinessName    string                     `json:"business_name"    validate:"required,max=120"`
	Rates           map[string]decimal.Decimal `json:"rates"`
	Users           []StaffUserRequest         `json:"users"            validate:"omitempty,dive"`
	KitchenStations []string                   `json:"kitchen_stations" validate:"omitempty,dive,required"`
	License         LicenseRequest             `json:"license"`
	WhatsAppNumber  string                     `json:"whatsapp_number"  validate:"omitempty,max=30"`
	Features        map[string]bool            `json:"features"`
}

type SettingsResponse struct {
	SettingsRequest
	StoreID string `json:"store_id"`
	SyncState
}

// ─── Menu ────────────────────────────────────────────────────────────────────

type MenuItemRequest struct {
	ID               string          `json:"id"                 validate:"required,max=64"`
	Name             string          `json:"name"               validate:"required,max=120"`
	Price            decimal.Decimal `json:"price"              validate:"min=0"`
	Description      *string         `json:"description"`
	Available        bool            `json:"available"`
	IsPizza          bool            `json:"is_pizza"`
	ModifierGroupIDs []string        `json:"modifier_group_ids"`
}

type MenuCategoryRequest struct {
	ID    string            `json:"id"    validate:"required,max=64"`
	Name  string            `json:"name"  validate:"required,max=120"`
	Items []MenuItemRequest `json:"items" validate:"omitempty,dive"`
}

type ModifierOptionRequest struct {
	Name  string          `json:"name"  validate:"required"`
	Price decimal.Decimal `json:"price" validate:"min=0"`
}

type ModifierGroupRequest struct {
	ID            string                  `json:"id"             validate:"required,max=64"`
	Name          string                  `json:"name"           validate:"required"`
	Required      bool                    `json:"required"`
	MaxSelections int                     `json:"max_selections" validate:"min=0"`
	Options       []ModifierOptionRequest `json:"options"        validate:"required,min=1,dive"`
}

// MenuRequest replaces the whole catalog. Slice order is display order.
type MenuRequest struct {
	Categories     []MenuCategoryRequest  `json:"categories"      validate:"omitempty,dive"`
	ModifierGroups []ModifierGroupRequest `json:"modifier_groups" validate:"omitempty,dive"`
}

type MenuResponse struct {
	MenuRequest
	StoreID     string `json:"store_id"`
	Source      string `json:"source"`
	PendingSync bool   `json:"pending_sync"`
}
