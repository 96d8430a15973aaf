package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StaffUser is an entry of the per-store PIN list.
type StaffUser struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
	Role string `json:"role"`
}

// License tracks the store's subscription state.
type License struct {
	Plan      string     `json:"plan"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Settings is the singleton configuration of one tenant. Its id is the store id.
type Settings struct {
	StoreID         string                     `json:"storeId"`
	BusinessName    string                     `json:"businessName"`
	Rates           map[string]decimal.Decimal `json:"rates,omitempty"`
	Users           []StaffUser                `json:"users,omitempty"`
	KitchenStations []string                   `json:"kitchenStations,omitempty"`
	License         License                    `json:"license"`
	WhatsAppNumber  string                     `json:"whatsappNumber,omitempty"`
	Features        map[string]bool            `json:"features,omitempty"`
	Revision        int64                      `json:"revision"`
}

func (s Settings) RecordID() string      { return s.StoreID }
func (s Settings) RecordRevision() int64 { return s.Revision }

// FeatureEnabled reports a flag, defaulting to false when unset.
func (s Settings) FeatureEnabled(name string) bool {
	return s.Features[name]
}
