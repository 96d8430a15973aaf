package service

import (
	"posync/internal/domain"
	"posync/internal/dto"
	"posync/internal/engine"
)

type StoreEngine interface {
	Settings() (engine.Tracked[domain.Settings], error)
	SaveSettings(s domain.Settings) (domain.Settings, error)
	Menu() (domain.Menu, bool)
	PublishMenu(m domain.Menu) (domain.Menu, error)
}

// StoreService serves the per-store singletons: settings and the catalog.
type StoreService interface {
	GetSettings() (*dto.SettingsResponse, error)
	SaveSettings(req dto.SettingsRequest) (*dto.SettingsResponse, error)
	GetMenu() dto.MenuResponse
	PublishMenu(req dto.MenuRequest) (dto.MenuResponse, error)
}

type storeService struct {
	eng StoreEngine
}

func NewStoreService(eng StoreEngine) StoreService {
	return &storeService{eng: eng}
}

func (s *storeService) GetSettings() (*dto.SettingsResponse, error) {
	t, err := s.eng.Settings()
	if err != nil {
		return nil, err
	}
	resp := toSettingsResponse(t)
	return &resp, nil
}

func (s *storeService) SaveSettings(req dto.SettingsRequest) (*dto.SettingsResponse, error) {
	if _, err := s.eng.SaveSettings(settingsFromRequest(req)); err != nil {
		return nil, err
	}
	return s.GetSettings()
}

func (s *storeService) GetMenu() dto.MenuResponse {
	m, pending := s.eng.Menu()
	return toMenuResponse(m, pending)
}

func (s *storeService) PublishMenu(req dto.MenuRequest) (dto.MenuResponse, error) {
	m, err := s.eng.PublishMenu(menuFromRequest(req))
	if err != nil {
		return dto.MenuResponse{}, err
	}
	return toMenuResponse(m, true), nil
}
