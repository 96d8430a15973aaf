package dto

import "time"

type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

type SwitchStoreRequest struct {
	StoreID string `json:"store_id" validate:"required,max=64"`
}

type SyncStatusResponse struct {
	Status           string    `json:"status"`
	Online           bool      `json:"online"`
	StoreID          string    `json:"store_id"`
	LastSyncTime     time.Time `json:"last_sync_time"`
	RenderGeneration uint64    `json:"render_generation"`
	PendingWrites    int       `json:"pending_writes"`
}

type PendingWriteResponse struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error,omitempty"`
	InFlight   bool   `json:"in_flight"`
	Failed     bool   `json:"failed"`
}
