package service

import (
	"context"

	"posync/internal/dto"
	"posync/internal/engine"
)

type SyncEngine interface {
	Signals() engine.Signals
	StoreID() string
	RefreshAll(ctx context.Context) error
	SetVisible(visible bool)
	SwitchStore(storeID string) error
	PendingWrites() []engine.PendingView
	RetryPending(collection, id string) error
	PurgeStore(ctx context.Context, collection string) error
}

// SyncService exposes the engine's own state and controls.
type SyncService interface {
	Status() dto.SyncStatusResponse
	Refresh(ctx context.Context) (dto.SyncStatusResponse, error)
	SetVisible(req dto.VisibilityRequest)
	SwitchStore(req dto.SwitchStoreRequest) (dto.SyncStatusResponse, error)
	Pending() dto.ListResponse[dto.PendingWriteResponse]
	Retry(collection, id string) error
	Purge(ctx context.Context, collection string) error
}

type syncService struct {
	eng SyncEngine
}

func NewSyncService(eng SyncEngine) SyncService {
	return &syncService{eng: eng}
}

func (s *syncService) Status() dto.SyncStatusResponse {
	sig := s.eng.Signals()
	return dto.SyncStatusResponse{
		Status:           string(sig.Status),
		Online:           sig.Status == engine.StatusOnline,
		StoreID:          s.eng.StoreID(),
		LastSyncTime:     sig.LastSyncTime,
		RenderGeneration: sig.RenderGeneration,
		PendingWrites:    len(s.eng.PendingWrites()),
	}
}

// Refresh runs a full snapshot; the status is returned even when it fails.
func (s *syncService) Refresh(ctx context.Context) (dto.SyncStatusResponse, error) {
	err := s.eng.RefreshAll(ctx)
	return s.Status(), err
}

func (s *syncService) SetVisible(req dto.VisibilityRequest) {
	s.eng.SetVisible(*req.Visible)
}

func (s *syncService) SwitchStore(req dto.SwitchStoreRequest) (dto.SyncStatusResponse, error) {
	if err := s.eng.SwitchStore(req.StoreID); err != nil {
		return dto.SyncStatusResponse{}, err
	}
	return s.Status(), nil
}

func (s *syncService) Pending() dto.ListResponse[dto.PendingWriteResponse] {
	out := dto.ListResponse[dto.PendingWriteResponse]{Data: []dto.PendingWriteResponse{}}
	for _, v := range s.eng.PendingWrites() {
		out.Data = append(out.Data, dto.PendingWriteResponse{
			Collection: v.Collection,
			ID:         v.ID,
			Attempts:   v.Attempts,
			LastError:  v.LastError,
			InFlight:   v.InFlight,
			Failed:     v.Failed,
		})
	}
	out.Total = len(out.Data)
	return out
}

func (s *syncService) Retry(collection, id string) error {
	return s.eng.RetryPending(collection, id)
}

func (s *syncService) Purge(ctx context.Context, collection string) error {
	return s.eng.PurgeStore(ctx, collection)
}

var (
	_ SaleEngine    = (*engine.Engine)(nil)
	_ ClosureEngine = (*engine.Engine)(nil)
	_ LedgerEngine  = (*engine.Engine)(nil)
	_ StoreEngine   = (*engine.Engine)(nil)
	_ SyncEngine    = (*engine.Engine)(nil)
)
