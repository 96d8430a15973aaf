package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"posync/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func saleRow(id, store string, created time.Time, notes string) *model.SaleRow {
	return &model.SaleRow{
		ID: id, StoreID: store, Date: created.Format("2006-01-02"), Time: created.Format("15:04"),
		Waiter: "Lucia", Total: decimal.NewFromInt(25), OrderJSON: "[]", Type: "sale",
		Notes: notes, CreatedAt: created,
	}
}

var base = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

// ── Upsert ────────────────────────────────────────────────────────────────────

func TestUpsert_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore(newTestDB(t), 0)

	rev, err := store.Upsert(ctx, saleRow("s1", "store-a", base, "PENDIENTE"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	rev, err = store.Upsert(ctx, saleRow("s1", "store-a", base, "efectivo"), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	got, err := store.FetchOne(ctx, "store-a", "s1")
	require.NoError(t, err)
	assert.Equal(t, "efectivo", got.Notes)
	assert.Equal(t, int64(2), got.Revision)
	assert.NotEmpty(t, got.Fingerprint)
}

func TestUpsert_IdenticalRetryIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore(newTestDB(t), 0)

	_, err := store.Upsert(ctx, saleRow("s1", "store-a", base, "PENDIENTE"), 0)
	require.NoError(t, err)

	// the confirmation was lost, the client retries with its old base revision
	rev, err := store.Upsert(ctx, saleRow("s1", "store-a", base, "PENDIENTE"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)
}

func TestUpsert_StaleBaseRevisionConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore(newTestDB(t), 0)

	_, err := store.Upsert(ctx, saleRow("s1", "store-a", base, "PENDIENTE"), 0)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, saleRow("s1", "store-a", base, "ANULADO"), 1)
	require.NoError(t, err)

	// second device still believes revision 1
	_, err = store.Upsert(ctx, saleRow("s1", "store-a", base, "tarjeta"), 1)
	assert.True(t, errors.Is(err, ErrRevisionMismatch))

	got, err := store.FetchOne(ctx, "store-a", "s1")
	require.NoError(t, err)
	assert.Equal(t, "ANULADO", got.Notes)
}

func TestUpsert_OtherTenantRejected(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore(newTestDB(t), 0)

	_, err := store.Upsert(ctx, saleRow("s1", "store-a", base, "PENDIENTE"), 0)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, saleRow("s1", "store-b", base, "efectivo"), 1)
	assert.ErrorIs(t, err, ErrTenantMismatch)
}

// ── Fetch / Delete ────────────────────────────────────────────────────────────

func TestFetchAll_NewestFirstBoundedAndScoped(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore(newTestDB(t), 2)

	for i := 0; i < 3; i++ {
		_, err := store.Upsert(ctx, saleRow(fmt.Sprintf("s%d", i), "store-a", base.Add(time.Duration(i)*time.Minute), "PENDIENTE"), 0)
		require.NoError(t, err)
	}
	_, err := store.Upsert(ctx, saleRow("other", "store-b", base, "PENDIENTE"), 0)
	require.NoError(t, err)

	rows, err := store.FetchAll(ctx, "store-a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "s2", rows[0].ID)
	assert.Equal(t, "s1", rows[1].ID)
}

func TestFetchOne_NotFound(t *testing.T) {
	store := NewSaleStore(newTestDB(t), 0)
	_, err := store.FetchOne(context.Background(), "store-a", "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDelete_ByTenantAndIDs(t *testing.T) {
	ctx := context.Background()
	store := NewSaleStore(newTestDB(t), 0)
	for _, id := range []string{"s1", "s2", "s3"} {
		_, err := store.Upsert(ctx, saleRow(id, "store-a", base, "PENDIENTE"), 0)
		require.NoError(t, err)
	}
	_, err := store.Upsert(ctx, saleRow("keep", "store-b", base, "PENDIENTE"), 0)
	require.NoError(t, err)

	n, err := store.Delete(ctx, "store-a", "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Delete(ctx, "store-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := store.FetchAll(ctx, "store-b")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSettingsStore_KeyedByStore(t *testing.T) {
	ctx := context.Background()
	store := NewSettingsStore(newTestDB(t))

	rev, err := store.Upsert(ctx, &model.SettingsRow{StoreID: "store-a", BusinessName: "La Esquina"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	got, err := store.FetchOne(ctx, "store-a", "store-a")
	require.NoError(t, err)
	assert.Equal(t, "La Esquina", got.BusinessName)
}

func TestFingerprint_IgnoresSyncMeta(t *testing.T) {
	a := saleRow("s1", "store-a", base, "PENDIENTE")
	b := saleRow("s1", "store-a", base, "PENDIENTE")
	b.Revision, b.Fingerprint, b.UpdatedAt = 9, "x", time.Now()

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)

	b.Notes = "ANULADO"
	fc, err := Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)
}
