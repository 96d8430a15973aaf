package repository

import (
	"context"
	"fmt"
	"time"

	"posync/internal/model"

	"gorm.io/gorm"
)

const menuInsertBatch = 100

// MenuRepository stores the catalog of a store as three tables that are
// always replaced together.
type MenuRepository interface {
	Fetch(ctx context.Context, storeID string) (model.MenuRows, error)
	// Replace deletes the store's catalog and inserts rows in one transaction.
	// On any failure nothing is changed.
	Replace(ctx context.Context, storeID string, rows model.MenuRows) error
	DB() *gorm.DB
}

type menuRepo struct{ db *gorm.DB }

func NewMenuRepository(db *gorm.DB) MenuRepository { return &menuRepo{db: db} }

func (r *menuRepo) DB() *gorm.DB { return r.db }

func (r *menuRepo) Fetch(ctx context.Context, storeID string) (model.MenuRows, error) {
	var rows model.MenuRows
	db := r.db.WithContext(ctx)
	if err := db.Where("store_id = ?", storeID).Order("position, id").Find(&rows.Categories).Error; err != nil {
		return rows, err
	}
	if err := db.Where("store_id = ?", storeID).Order("position, id").Find(&rows.Items).Error; err != nil {
		return rows, err
	}
	if err := db.Where("store_id = ?", storeID).Order("position, id").Find(&rows.ModifierGroups).Error; err != nil {
		return rows, err
	}
	return rows, nil
}

func (r *menuRepo) Replace(ctx context.Context, storeID string, rows model.MenuRows) error {
	now := time.Now().UTC()
	stamp := func(row model.Row) error {
		if row.Tenant() != storeID {
			return fmt.Errorf("%s %s: %w", row.TableName(), row.RowID(), ErrTenantMismatch)
		}
		fp, err := Fingerprint(row)
		if err != nil {
			return err
		}
		m := row.Meta()
		m.Revision, m.Fingerprint, m.UpdatedAt = 1, fp, now
		return nil
	}
	for _, c := range rows.Categories {
		if err := stamp(c); err != nil {
			return err
		}
	}
	for _, it := range rows.Items {
		if err := stamp(it); err != nil {
			return err
		}
	}
	for _, g := range rows.ModifierGroups {
		if err := stamp(g); err != nil {
			return err
		}
	}

	return runTx(ctx, r.db, func(tx *gorm.DB) error {
		// items first: they reference categories
		for _, target := range []any{&model.MenuItemRow{}, &model.MenuCategoryRow{}, &model.ModifierGroupRow{}} {
			if err := tx.Where("store_id = ?", storeID).Delete(target).Error; err != nil {
				return fmt.Errorf("delete %T: %w", target, err)
			}
		}
		if len(rows.Categories) > 0 {
			if err := tx.CreateInBatches(rows.Categories, menuInsertBatch).Error; err != nil {
				return fmt.Errorf("insert categories: %w", err)
			}
		}
		if len(rows.Items) > 0 {
			if err := tx.CreateInBatches(rows.Items, menuInsertBatch).Error; err != nil {
				return fmt.Errorf("insert items: %w", err)
			}
		}
		if len(rows.ModifierGroups) > 0 {
			if err := tx.CreateInBatches(rows.ModifierGroups, menuInsertBatch).Error; err != nil {
				return fmt.Errorf("insert modifier groups: %w", err)
			}
		}
		return nil
	})
}
