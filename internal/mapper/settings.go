package mapper

import (
	"posync/internal/domain"
	"posync/internal/model"
)

func SettingsToRemote(s domain.Settings) *model.SettingsRow {
	return &model.SettingsRow{
		StoreID:         s.StoreID,
		BusinessName:    s.BusinessName,
		Rates:           encodeJSON(s.Rates),
		Users:           encodeJSON(s.Users),
		KitchenStations: encodeJSON(s.KitchenStations),
		LicensePlan:     s.License.Plan,
		LicenseActive:   s.License.Active,
		LicenseExpires:  s.License.ExpiresAt,
		WhatsAppNumber:  s.WhatsAppNumber,
		Features:        encodeJSON(s.Features),
		SyncMeta:        model.SyncMeta{Revision: s.Revision},
	}
}

func SettingsToDomain(r *model.SettingsRow) (domain.Settings, error) {
	if r.StoreID == "" {
		return domain.Settings{}, &MappingError{Collection: model.TableSettings, Field: "store_id", Err: errMissingID}
	}
	s := domain.Settings{
		StoreID:        r.StoreID,
		BusinessName:   r.BusinessName,
		WhatsAppNumber: r.WhatsAppNumber,
		License: domain.License{
			Plan:      r.LicensePlan,
			Active:    r.LicenseActive,
			ExpiresAt: r.LicenseExpires,
		},
		Revision: r.Revision,
	}
	fields := []struct {
		name string
		raw  string
		dst  any
	}{
		{"rates", r.Rates, &s.Rates},
		{"users", r.Users, &s.Users},
		{"kitchen_stations", r.KitchenStations, &s.KitchenStations},
		{"features", r.Features, &s.Features},
	}
	for _, f := range fields {
		if err := decodeJSON(model.TableSettings, r.StoreID, f.name, f.raw, f.dst); err != nil {
			return domain.Settings{}, err
		}
	}
	return s, nil
}
