package service

import (
	"posync/internal/domain"
	"posync/internal/dto"
	"posync/internal/engine"
)

// ── dto → domain ──────────────────────────────────────────────────────────────

func orderFromRequest(items []dto.OrderItemRequest) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		oi := domain.OrderItem{Name: it.Name, Price: it.Price, Quantity: it.Quantity}
		for _, m := range it.Modifiers {
			oi.Modifiers = append(oi.Modifiers, domain.SelectedModifier{Group: m.Group, Option: m.Option, Price: m.Price})
		}
		if it.Pizza != nil {
			oi.Pizza = &domain.PizzaConfig{
				Size:      it.Pizza.Size,
				LeftHalf:  it.Pizza.LeftHalf,
				RightHalf: it.Pizza.RightHalf,
				Extras:    it.Pizza.Extras,
			}
		}
		out = append(out, oi)
	}
	return out
}

func settingsFromRequest(req dto.SettingsRequest) domain.Settings {
	s := domain.Settings{
		BusinessName:    req.BusinessName,
		Rates:           req.Rates,
		KitchenStations: req.KitchenStations,
		License:         domain.License{Plan: req.License.Plan, Active: req.License.Active, ExpiresAt: req.License.ExpiresAt},
		WhatsAppNumber:  req.WhatsAppNumber,
		Features:        req.Features,
	}
	for _, u := range req.Users {
		s.Users = append(s.Users, domain.StaffUser{Name: u.Name, PIN: u.PIN, Role: u.Role})
	}
	return s
}

func menuFromRequest(req dto.MenuRequest) domain.Menu {
	m := domain.Menu{
		Categories:     make([]domain.MenuCategory, 0, len(req.Categories)),
		ModifierGroups: make([]domain.ModifierGroup, 0, len(req.ModifierGroups)),
	}
	for ci, c := range req.Categories {
		cat := domain.MenuCategory{ID: c.ID, Name: c.Name, Position: ci, Items: make([]domain.MenuItem, 0, len(c.Items))}
		for ii, it := range c.Items {
			cat.Items = append(cat.Items, domain.MenuItem{
				ID:               it.ID,
				CategoryID:       c.ID,
				Name:             it.Name,
				Price:            it.Price,
				Description:      it.Description,
				Available:        it.Available,
				IsPizza:          it.IsPizza,
				ModifierGroupIDs: it.ModifierGroupIDs,
				Position:         ii,
			})
		}
		m.Categories = append(m.Categories, cat)
	}
	for _, g := range req.ModifierGroups {
		group := domain.ModifierGroup{ID: g.ID, Name: g.Name, Required: g.Required, MaxSelections: g.MaxSelections}
		for _, o := range g.Options {
			group.Options = append(group.Options, domain.ModifierOption{Name: o.Name, Price: o.Price})
		}
		m.ModifierGroups = append(m.ModifierGroups, group)
	}
	return m
}

// ── domain → dto ──────────────────────────────────────────────────────────────

func syncState[D domain.Record](t engine.Tracked[D]) dto.SyncState {
	return dto.SyncState{
		Revision:    t.Record.RecordRevision(),
		PendingSync: t.PendingSync,
		Attempts:    t.Attempts,
		LastError:   t.LastError,
	}
}

func toSaleResponse(t engine.Tracked[domain.Sale]) dto.SaleResponse {
	s := t.Record
	resp := dto.SaleResponse{
		ID:          s.ID,
		StoreID:     s.StoreID,
		Date:        s.Date,
		Time:        s.Time,
		TableNumber: s.TableNumber,
		Waiter:      s.Waiter,
		Total:       s.Total,
		Order:       make([]dto.OrderItemResponse, 0, len(s.Order)),
		Type:        string(s.Type),
		Status:      string(s.Status()),
		Notes:       s.Notes,
		Closed:      s.Closed,
		ClosureID:   s.ClosureID,
		AuditNotes:  s.AuditNotes,
		CreatedAt:   s.CreatedAt,
		SyncState:   syncState(t),
	}
	if resp.AuditNotes == nil {
		resp.AuditNotes = []string{}
	}
	for _, it := range s.Order {
		line := dto.OrderItemResponse{
			Name:          it.Name,
			Price:         it.Price,
			Quantity:      it.Quantity,
			KitchenStatus: it.KitchenStatus,
			Served:        it.Served != nil && *it.Served,
			LineTotal:     it.LineTotal(),
		}
		for _, m := range it.Modifiers {
			line.Modifiers = append(line.Modifiers, dto.ModifierRequest{Group: m.Group, Option: m.Option, Price: m.Price})
		}
		if it.Pizza != nil {
			line.Pizza = &dto.PizzaRequest{Size: it.Pizza.Size, LeftHalf: it.Pizza.LeftHalf, RightHalf: it.Pizza.RightHalf, Extras: it.Pizza.Extras}
		}
		resp.Order = append(resp.Order, line)
	}
	return resp
}

func toClosureResponse(t engine.Tracked[domain.DayClosure]) dto.ClosureResponse {
	c := t.Record
	return dto.ClosureResponse{
		ID:             c.ID,
		Date:           c.Date,
		ClosedAt:       c.ClosedAt,
		ClosedBy:       c.ClosedBy,
		IsAdminClosure: c.IsAdminClosure,
		TotalPaid:      c.TotalPaid,
		TotalPending:   c.TotalPending,
		TotalVoided:    c.TotalVoided,
		SalesCount:     c.SalesCount,
		ReportIDs:      c.ReportIDs,
		SyncState:      syncState(t),
	}
}

func toExpenseResponse(t engine.Tracked[domain.Expense]) dto.LedgerEntryResponse {
	x := t.Record
	return dto.LedgerEntryResponse{
		ID: x.ID, Amount: x.Amount, Description: x.Description, Category: x.Category,
		Date: x.Date, Time: x.Time, User: x.User, SyncState: syncState(t),
	}
}

func toInjectionResponse(t engine.Tracked[domain.CashInjection]) dto.LedgerEntryResponse {
	i := t.Record
	return dto.LedgerEntryResponse{
		ID: i.ID, Amount: i.Amount, Description: i.Description,
		Date: i.Date, Time: i.Time, User: i.User, SyncState: syncState(t),
	}
}

func toSettingsResponse(t engine.Tracked[domain.Settings]) dto.SettingsResponse {
	s := t.Record
	resp := dto.SettingsResponse{
		SettingsRequest: dto.SettingsRequest{
			BusinessName:    s.BusinessName,
			Rates:           s.Rates,
			KitchenStations: s.KitchenStations,
			License:         dto.LicenseRequest{Plan: s.License.Plan, Active: s.License.Active, ExpiresAt: s.License.ExpiresAt},
			WhatsAppNumber:  s.WhatsAppNumber,
			Features:        s.Features,
		},
		StoreID:   s.StoreID,
		SyncState: syncState(t),
	}
	for _, u := range s.Users {
		resp.Users = append(resp.Users, dto.StaffUserRequest{Name: u.Name, PIN: u.PIN, Role: u.Role})
	}
	return resp
}

func toMenuResponse(m domain.Menu, pending bool) dto.MenuResponse {
	resp := dto.MenuResponse{
		MenuRequest: dto.MenuRequest{
			Categories:     make([]dto.MenuCategoryRequest, 0, len(m.Categories)),
			ModifierGroups: make([]dto.ModifierGroupRequest, 0, len(m.ModifierGroups)),
		},
		StoreID:     m.StoreID,
		Source:      m.Source,
		PendingSync: pending,
	}
	for _, c := range m.Categories {
		cat := dto.MenuCategoryRequest{ID: c.ID, Name: c.Name, Items: make([]dto.MenuItemRequest, 0, len(c.Items))}
		for _, it := range c.Items {
			cat.Items = append(cat.Items, dto.MenuItemRequest{
				ID:               it.ID,
				Name:             it.Name,
				Price:            it.Price,
				Description:      it.Description,
				Available:        it.Available,
				IsPizza:          it.IsPizza,
				ModifierGroupIDs: it.ModifierGroupIDs,
			})
		}
		resp.Categories = append(resp.Categories, cat)
	}
	for _, g := range m.ModifierGroups {
		group := dto.ModifierGroupRequest{ID: g.ID, Name: g.Name, Required: g.Required, MaxSelections: g.MaxSelections}
		for _, o := range g.Options {
			group.Options = append(group.Options, dto.ModifierOptionRequest{Name: o.Name, Price: o.Price})
		}
		resp.ModifierGroups = append(resp.ModifierGroups, group)
	}
	return resp
}
