package model

import "time"

// SettingsRow is one row per tenant; the primary key is the store id.
// Nested values are JSON text columns.
type SettingsRow struct {
	StoreID         string     `gorm:"column:store_id;type:varchar(64);primaryKey" json:"store_id"`
	BusinessName    string     `json:"business_name"`
	Rates           string     `gorm:"type:text" json:"rates"`
	Users           string     `gorm:"type:text" json:"users"`
	KitchenStations string     `gorm:"type:text" json:"kitchen_stations"`
	LicensePlan     string     `gorm:"type:varchar(30)" json:"license_plan"`
	LicenseActive   bool       `gorm:"not null;default:false" json:"license_active"`
	LicenseExpires  *time.Time `json:"license_expires"`
	WhatsAppNumber  string     `gorm:"column:whatsapp_number;type:varchar(30)" json:"whatsapp_number"`
	Features        string     `gorm:"type:text" json:"features"`
	SyncMeta
}

func (SettingsRow) TableName() string { return TableSettings }
func (r SettingsRow) RowID() string   { return r.StoreID }
func (r SettingsRow) Tenant() string  { return r.StoreID }
