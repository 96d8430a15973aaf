package domain

import (
	"github.com/shopspring/decimal"
)

// Menu sources.
const (
	MenuSourceRemote = "remote"
	MenuSourceDemo   = "demo"
)

type MenuItem struct {
	ID               string          `json:"id"`
	CategoryID       string          `json:"categoryId"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	Description      *string         `json:"description,omitempty"`
	Available        bool            `json:"available"`
	IsPizza          bool            `json:"isPizza"`
	ModifierGroupIDs []string        `json:"modifierGroupIds,omitempty"`
	Position         int             `json:"position"`
}

type MenuCategory struct {
	ID       string     `json:"id"`
	StoreID  string     `json:"storeId"`
	Name     string     `json:"name"`
	Position int        `json:"position"`
	Items    []MenuItem `json:"items"`
}

type ModifierOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ModifierGroup struct {
	ID            string           `json:"id"`
	StoreID       string           `json:"storeId"`
	Name          string           `json:"name"`
	Required      bool             `json:"required"`
	MaxSelections int              `json:"maxSelections"`
	Options       []ModifierOption `json:"options"`
}

// Menu is the whole catalog of a store. It is always replaced wholesale.
type Menu struct {
	StoreID        string          `json:"storeId"`
	Source         string          `json:"source"`
	Categories     []MenuCategory  `json:"categories"`
	ModifierGroups []ModifierGroup `json:"modifierGroups"`
}

// Clone returns a copy that shares no slices or pointers with m.
func (m Menu) Clone() Menu {
	c := m
	if m.Categories != nil {
		c.Categories = make([]MenuCategory, len(m.Categories))
		for i, cat := range m.Categories {
			if cat.Items != nil {
				items := make([]MenuItem, len(cat.Items))
				for j, it := range cat.Items {
					if it.Description != nil {
						d := *it.Description
						it.Description = &d
					}
					if it.ModifierGroupIDs != nil {
						it.ModifierGroupIDs = append([]string(nil), it.ModifierGroupIDs...)
					}
					items[j] = it
				}
				cat.Items = items
			}
			c.Categories[i] = cat
		}
	}
	if m.ModifierGroups != nil {
		c.ModifierGroups = make([]ModifierGroup, len(m.ModifierGroups))
		for i, g := range m.ModifierGroups {
			if g.Options != nil {
				g.Options = append([]ModifierOption(nil), g.Options...)
			}
			c.ModifierGroups[i] = g
		}
	}
	return c
}

// DemoMenu is the sample catalog offered before a store publishes its own.
func DemoMenu(storeID string) Menu {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return Menu{
		StoreID: storeID,
		Source:  MenuSourceDemo,
		Categories: []MenuCategory{
			{
				ID: "demo-pizzas", StoreID: storeID, Name: "Pizzas", Position: 0,
				Items: []MenuItem{
					{ID: "demo-muzza", CategoryID: "demo-pizzas", Name: "Muzzarella", Price: price("9.50"), Available: true, IsPizza: true, ModifierGroupIDs: []string{"demo-size"}, Position: 0},
					{ID: "demo-napo", CategoryID: "demo-pizzas", Name: "Napolitana", Price: price("11.00"), Available: true, IsPizza: true, ModifierGroupIDs: []string{"demo-size"}, Position: 1},
				},
			},
			{
				ID: "demo-drinks", StoreID: storeID, Name: "Bebidas", Position: 1,
				Items: []MenuItem{
					{ID: "demo-water", CategoryID: "demo-drinks", Name: "Agua", Price: price("1.50"), Available: true, Position: 0},
					{ID: "demo-soda", CategoryID: "demo-drinks", Name: "Gaseosa", Price: price("2.00"), Available: true, ModifierGroupIDs: []string{"demo-ice"}, Position: 1},
				},
			},
		},
		ModifierGroups: []ModifierGroup{
			{ID: "demo-size", StoreID: storeID, Name: "Tamaño", Required: true, MaxSelections: 1, Options: []ModifierOption{
				{Name: "Chica", Price: decimal.Zero}, {Name: "Grande", Price: price("3.00")},
			}},
			{ID: "demo-ice", StoreID: storeID, Name: "Hielo", MaxSelections: 1, Options: []ModifierOption{
				{Name: "Con hielo", Price: decimal.Zero}, {Name: "Sin hielo", Price: decimal.Zero},
			}},
		},
	}
}
