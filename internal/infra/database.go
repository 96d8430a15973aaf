package infra

import (
	"fmt"

	"posync/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the
// record store schema up to date.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates every synced table and applies the patches GORM
// cannot express. Safe to run repeatedly.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own (partial and composite indexes for the snapshot queries).
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// snapshot query of the live floor: newest first per store
		`CREATE INDEX IF NOT EXISTS idx_sales_store_created
		    ON sales (store_id, created_at DESC)`,
		// open tickets are read far more often than archived ones
		`CREATE INDEX IF NOT EXISTS idx_sales_store_open
		    ON sales (store_id)
		    WHERE closed = false`,
		`CREATE INDEX IF NOT EXISTS idx_day_closures_store_closed
		    ON day_closures (store_id, closed_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_store_category
		    ON menu_items (store_id, category_id, position)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
