package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"posync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRevisionMismatch is returned by Upsert when the stored row moved past the
// revision the caller based its write on.
var ErrRevisionMismatch = errors.New("revision mismatch")

// ErrTenantMismatch is returned when a write targets an id owned by another store.
var ErrTenantMismatch = errors.New("row belongs to another store")

// RecordStore is the authoritative store of one collection. Every query is
// scoped by store id.
type RecordStore[R model.Row] interface {
	FetchAll(ctx context.Context, storeID string) ([]R, error)
	FetchOne(ctx context.Context, storeID, id string) (R, error)
	Upsert(ctx context.Context, row R, baseRevision int64) (int64, error)
	Delete(ctx context.Context, storeID string, ids ...string) (int64, error)
	DB() *gorm.DB
}

// StoreOptions describe how one table is read.
type StoreOptions struct {
	IDColumn string // primary key column, "id" when empty
	OrderBy  string // newest first
	Limit    int    // 0 = unbounded
}

type recordStore[R model.Row] struct {
	db     *gorm.DB
	newRow func() R
	opts   StoreOptions
}

func NewRecordStore[R model.Row](db *gorm.DB, newRow func() R, opts StoreOptions) RecordStore[R] {
	if opts.IDColumn == "" {
		opts.IDColumn = "id"
	}
	return &recordStore[R]{db: db, newRow: newRow, opts: opts}
}

func NewSaleStore(db *gorm.DB, limit int) RecordStore[*model.SaleRow] {
	return NewRecordStore(db, func() *model.SaleRow { return &model.SaleRow{} },
		StoreOptions{OrderBy: "created_at DESC", Limit: limit})
}

func NewClosureStore(db *gorm.DB, limit int) RecordStore[*model.DayClosureRow] {
	return NewRecordStore(db, func() *model.DayClosureRow { return &model.DayClosureRow{} },
		StoreOptions{OrderBy: "closed_at DESC", Limit: limit})
}

func NewExpenseStore(db *gorm.DB, limit int) RecordStore[*model.ExpenseRow] {
	return NewRecordStore(db, func() *model.ExpenseRow { return &model.ExpenseRow{} },
		StoreOptions{OrderBy: "date DESC, time DESC", Limit: limit})
}

func NewInjectionStore(db *gorm.DB, limit int) RecordStore[*model.CashInjectionRow] {
	return NewRecordStore(db, func() *model.CashInjectionRow { return &model.CashInjectionRow{} },
		StoreOptions{OrderBy: "date DESC, time DESC", Limit: limit})
}

func NewSettingsStore(db *gorm.DB) RecordStore[*model.SettingsRow] {
	return NewRecordStore(db, func() *model.SettingsRow { return &model.SettingsRow{} },
		StoreOptions{IDColumn: "store_id"})
}

func (r *recordStore[R]) DB() *gorm.DB { return r.db }

func (r *recordStore[R]) FetchAll(ctx context.Context, storeID string) ([]R, error) {
	var rows []R
	q := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if r.opts.OrderBy != "" {
		q = q.Order(r.opts.OrderBy)
	}
	if r.opts.Limit > 0 {
		q = q.Limit(r.opts.Limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// FetchOne returns gorm.ErrRecordNotFound when the row does not exist.
func (r *recordStore[R]) FetchOne(ctx context.Context, storeID, id string) (R, error) {
	row := r.newRow()
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND "+r.opts.IDColumn+" = ?", storeID, id).
		First(row).Error
	return row, err
}

// Upsert writes row with optimistic concurrency and returns the stored revision.
//   - identical content (same fingerprint) is a no-op success
//   - a missing row is inserted at revision 1
//   - an existing row is updated only when its revision equals baseRevision
func (r *recordStore[R]) Upsert(ctx context.Context, row R, baseRevision int64) (int64, error) {
	fp, err := Fingerprint(row)
	if err != nil {
		return 0, err
	}
	meta := row.Meta()
	var stored int64

	txErr := runTx(ctx, r.db, func(tx *gorm.DB) error {
		current := r.newRow()
		res := tx.Where(r.opts.IDColumn+" = ?", row.RowID()).Limit(1).Find(current)
		if res.Error != nil {
			return res.Error
		}

		now := time.Now().UTC()
		if res.RowsAffected == 0 {
			meta.Revision, meta.Fingerprint, meta.UpdatedAt = 1, fp, now
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected == 0 {
				// another writer inserted the same id between our read and insert
				return ErrRevisionMismatch
			}
			stored = 1
			return nil
		}

		cur := current.Meta()
		if current.Tenant() != row.Tenant() {
			return ErrTenantMismatch
		}
		if cur.Fingerprint == fp {
			meta.Revision, meta.Fingerprint, meta.UpdatedAt = cur.Revision, cur.Fingerprint, cur.UpdatedAt
			stored = cur.Revision
			return nil
		}
		if cur.Revision != baseRevision {
			return ErrRevisionMismatch
		}

		meta.Revision, meta.Fingerprint, meta.UpdatedAt = baseRevision+1, fp, now
		upd := tx.Model(row).Where("revision = ?", baseRevision).Select("*").Updates(row)
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return ErrRevisionMismatch
		}
		stored = meta.Revision
		return nil
	})
	if txErr != nil {
		meta.Revision = baseRevision
		return 0, txErr
	}
	return stored, nil
}

// Delete removes the rows of a store, optionally restricted to ids.
func (r *recordStore[R]) Delete(ctx context.Context, storeID string, ids ...string) (int64, error) {
	q := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if len(ids) > 0 {
		q = q.Where(r.opts.IDColumn+" IN ?", ids)
	}
	res := q.Delete(r.newRow())
	return res.RowsAffected, res.Error
}

// Fingerprint hashes the row content with its sync metadata removed.
func Fingerprint(row model.Row) (string, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return "", err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", err
	}
	delete(fields, "revision")
	delete(fields, "fingerprint")
	delete(fields, "updated_at")
	canonical, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// runTx executes fn inside a GORM transaction bound to ctx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
