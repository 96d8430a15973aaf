package mapper

import (
	"fmt"
	"sort"

	"posync/internal/domain"
	"posync/internal/model"
)

// MenuToRemote flattens a menu into its three tables.
func MenuToRemote(m domain.Menu) model.MenuRows {
	var rows model.MenuRows
	for _, c := range m.Categories {
		rows.Categories = append(rows.Categories, &model.MenuCategoryRow{
			ID:       c.ID,
			StoreID:  m.StoreID,
			Name:     c.Name,
			Position: c.Position,
		})
		for _, it := range c.Items {
			rows.Items = append(rows.Items, &model.MenuItemRow{
				ID:               it.ID,
				StoreID:          m.StoreID,
				CategoryID:       c.ID,
				Name:             it.Name,
				Price:            it.Price,
				Description:      it.Description,
				Available:        it.Available,
				IsPizza:          it.IsPizza,
				ModifierGroupIDs: encodeJSON(it.ModifierGroupIDs),
				Position:         it.Position,
			})
		}
	}
	for i, g := range m.ModifierGroups {
		rows.ModifierGroups = append(rows.ModifierGroups, &model.ModifierGroupRow{
			ID:            g.ID,
			StoreID:       m.StoreID,
			Name:          g.Name,
			Required:      g.Required,
			MaxSelections: g.MaxSelections,
			Options:       encodeJSON(g.Options),
			Position:      i,
		})
	}
	return rows
}

// MenuToDomain assembles the catalog of a store. Rows that cannot be mapped,
// including items whose category is missing, are left out and reported.
func MenuToDomain(storeID string, rows model.MenuRows) (domain.Menu, []error) {
	var errs []error
	m := domain.Menu{
		StoreID:        storeID,
		Source:         domain.MenuSourceRemote,
		Categories:     []domain.MenuCategory{},
		ModifierGroups: []domain.ModifierGroup{},
	}

	index := make(map[string]int, len(rows.Categories))
	cats := append([]*model.MenuCategoryRow(nil), rows.Categories...)
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Position < cats[j].Position })
	for _, r := range cats {
		index[r.ID] = len(m.Categories)
		m.Categories = append(m.Categories, domain.MenuCategory{
			ID:       r.ID,
			StoreID:  r.StoreID,
			Name:     r.Name,
			Position: r.Position,
			Items:    []domain.MenuItem{},
		})
	}

	items := append([]*model.MenuItemRow(nil), rows.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	for _, r := range items {
		ci, ok := index[r.CategoryID]
		if !ok {
			errs = append(errs, &MappingError{
				Collection: model.TableMenuItems, ID: r.ID, Field: "category_id",
				Err: fmt.Errorf("unknown category %q", r.CategoryID),
			})
			continue
		}
		it := domain.MenuItem{
			ID:          r.ID,
			CategoryID:  r.CategoryID,
			Name:        r.Name,
			Price:       r.Price,
			Description: r.Description,
			Available:   r.Available,
			IsPizza:     r.IsPizza,
			Position:    r.Position,
		}
		if err := decodeJSON(model.TableMenuItems, r.ID, "modifier_group_ids", r.ModifierGroupIDs, &it.ModifierGroupIDs); err != nil {
			errs = append(errs, err)
			continue
		}
		m.Categories[ci].Items = append(m.Categories[ci].Items, it)
	}

	groups := append([]*model.ModifierGroupRow(nil), rows.ModifierGroups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Position < groups[j].Position })
	for _, r := range groups {
		g := domain.ModifierGroup{
			ID:            r.ID,
			StoreID:       r.StoreID,
			Name:          r.Name,
			Required:      r.Required,
			MaxSelections: r.MaxSelections,
		}
		if err := decodeJSON(model.TableModifierGroups, r.ID, "options", r.Options, &g.Options); err != nil {
			errs = append(errs, err)
			continue
		}
		m.ModifierGroups = append(m.ModifierGroups, g)
	}
	return m, errs
}
